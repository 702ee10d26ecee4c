package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/0xstonegm/txreplay/replay"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

var testContract = common.HexToAddress("0xC0DE")

func present(t *testing.T, cfg *utils.Config, outcome *replay.Outcome) string {
	t.Helper()
	var buf bytes.Buffer
	NewPresenter(&buf, cfg).Present(outcome)
	return buf.String()
}

func successOutcome() *replay.Outcome {
	return &replay.Outcome{
		Kind:        replay.Succeeded,
		TxHash:      common.HexToHash("0xCC"),
		BlockNumber: 100,
		GasUsed:     21_000,
	}
}

func TestPresent_Success(t *testing.T) {
	got := present(t, &utils.Config{}, successOutcome())
	for _, want := range []string{"succeeded", "Block: 100", "Gas used: 21000"} {
		if !strings.Contains(got, want) {
			t.Errorf("output misses %q:\n%v", want, got)
		}
	}
}

func TestPresent_DecodesRevertReason(t *testing.T) {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("cannot build string type: %v", err)
	}
	packed, err := abi.Arguments{{Type: stringType}}.Pack("not enough funds")
	if err != nil {
		t.Fatalf("cannot pack revert payload: %v", err)
	}
	// Error(string) selector followed by the abi encoded reason
	payload := append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)
	outcome := successOutcome()
	outcome.Kind = replay.Reverted
	outcome.ReturnData = payload

	got := present(t, &utils.Config{}, outcome)
	if !strings.Contains(got, "reverted: not enough funds") {
		t.Errorf("revert reason not decoded:\n%v", got)
	}
}

func TestPresent_RawRevertDataFallsBackToHex(t *testing.T) {
	outcome := successOutcome()
	outcome.Kind = replay.Reverted
	outcome.ReturnData = []byte{0x01, 0x02}

	got := present(t, &utils.Config{}, outcome)
	if !strings.Contains(got, "reverted: 0x0102") {
		t.Errorf("raw revert data not rendered:\n%v", got)
	}
}

func TestPresent_AppliesLabels(t *testing.T) {
	outcome := successOutcome()
	outcome.ContractAddress = testContract

	cfg := &utils.Config{Labels: map[common.Address]string{testContract: "Counter"}}
	got := present(t, cfg, outcome)
	if !strings.Contains(got, "Counter ["+testContract.Hex()+"]") {
		t.Errorf("label not applied:\n%v", got)
	}
}

func TestPresent_DebugPrintsLogs(t *testing.T) {
	outcome := successOutcome()
	outcome.Logs = []*types.Log{{
		Address: testContract,
		Topics:  []common.Hash{common.HexToHash("0x01")},
		Data:    []byte{0xaa},
	}}

	if got := present(t, &utils.Config{}, outcome); strings.Contains(got, "log emitted") {
		t.Errorf("logs rendered without debug flag:\n%v", got)
	}
	got := present(t, &utils.Config{Debug: true}, outcome)
	for _, want := range []string{"log emitted by", "topic[0]", "data: 0xaa"} {
		if !strings.Contains(got, want) {
			t.Errorf("output misses %q:\n%v", want, got)
		}
	}
}

func TestPresent_VerbosePrintsSummaryTable(t *testing.T) {
	got := present(t, &utils.Config{Verbose: true}, successOutcome())
	for _, want := range []string{"FIELD", "VALUE", "21000"} {
		if !strings.Contains(got, want) {
			t.Errorf("output misses %q:\n%v", want, got)
		}
	}
}

func TestPresent_ConsoleRecords(t *testing.T) {
	outcome := successOutcome()
	outcome.ConsoleLogs = []string{"hello 42"}

	got := present(t, &utils.Config{}, outcome)
	if !strings.Contains(got, "console.log: hello 42") {
		t.Errorf("console record not rendered:\n%v", got)
	}
}
