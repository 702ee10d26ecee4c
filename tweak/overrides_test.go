package tweak

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/0xstonegm/txreplay/logger"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/state"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/mock/gomock"
)

var (
	deployer    = common.HexToAddress("0xD0")
	otherSender = common.HexToAddress("0xD1")

	// runtime code returning 0x2a, wrapped into init code below
	runtimeCode = []byte{0x60, 0x2a, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
	initCode    = []byte{
		0x60, byte(len(runtimeCode)),
		0x60, 0x0c,
		0x60, 0x00,
		0x39,
		0x60, byte(len(runtimeCode)),
		0x60, 0x00,
		0xf3,
		0x60, 0x2a, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3,
	}
)

func creationTx(nonce uint64) *provider.Transaction {
	return &provider.Transaction{
		Hash:        testCreation,
		Nonce:       hexutil.Uint64(nonce),
		BlockNumber: (*hexutil.Big)(big.NewInt(5)),
		From:        deployer,
		Gas:         hexutil.Uint64(1_000_000),
	}
}

func creationBlock(txs ...*provider.Transaction) *provider.Block {
	return &provider.Block{
		Number:       5,
		Timestamp:    1_700_000_000,
		GasLimit:     30_000_000,
		Transactions: txs,
	}
}

func chainFor(t *testing.T, tx *provider.Transaction, block *provider.Block) *provider.MockProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	chain := provider.NewMockProvider(ctrl)
	chain.EXPECT().TransactionByHash(gomock.Any(), testCreation).Return(tx, nil).AnyTimes()
	chain.EXPECT().BlockByNumber(gomock.Any(), uint64(5)).Return(block, nil).AnyTimes()
	chain.EXPECT().StateAt(gomock.Any(), uint64(4)).Return(state.EmptyReader{}).AnyTimes()
	return chain
}

func loadedProject(t *testing.T, code []byte) *ClonedProject {
	t.Helper()
	project, err := LoadClonedProject(writeProject(t, testMetadata(), code))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return project
}

func buildOne(t *testing.T, chain provider.Provider, project *ClonedProject, quick bool) (map[common.Address][]byte, error) {
	t.Helper()
	return BuildOverrides(
		context.Background(), chain, utils.GetChainConfig(1, utils.VersionShanghai),
		[]*ClonedProject{project}, quick, logger.NewLogger("CRITICAL", "Test"))
}

func TestBuildOverrides_DeploysLocalInitCode(t *testing.T) {
	chain := chainFor(t, creationTx(0), creationBlock(creationTx(0)))

	overrides, err := buildOne(t, chain, loadedProject(t, initCode), false)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if string(overrides[testAddress]) != string(runtimeCode) {
		t.Errorf("wrong override code: %x", overrides[testAddress])
	}
}

func TestBuildOverrides_ReplaysPrecedingTransactions(t *testing.T) {
	// the creation carries nonce 1; it only applies after the deployer's
	// preceding call bumped the nonce
	prior := &provider.Transaction{
		Hash: common.HexToHash("0xbe"),
		From: deployer,
		To:   &otherSender,
		Gas:  hexutil.Uint64(100_000),
	}
	chain := chainFor(t, creationTx(1), creationBlock(prior, creationTx(1)))

	overrides, err := buildOne(t, chain, loadedProject(t, initCode), false)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if string(overrides[testAddress]) != string(runtimeCode) {
		t.Errorf("wrong override code: %x", overrides[testAddress])
	}
}

func TestBuildOverrides_QuickSkipsPrecedingTransactions(t *testing.T) {
	// the preceding call would abort the replay; quick mode never runs it
	broken := &provider.Transaction{
		Hash:  common.HexToHash("0xbad"),
		Nonce: hexutil.Uint64(7),
		From:  otherSender,
		To:    &deployer,
		Gas:   hexutil.Uint64(100_000),
	}
	chain := chainFor(t, creationTx(0), creationBlock(broken, creationTx(0)))
	project := loadedProject(t, initCode)

	if _, err := buildOne(t, chain, project, false); err == nil {
		t.Fatalf("full replay over a broken block must fail")
	}
	overrides, err := buildOne(t, chain, project, true)
	if err != nil {
		t.Fatalf("quick build failed: %v", err)
	}
	if string(overrides[testAddress]) != string(runtimeCode) {
		t.Errorf("wrong override code: %x", overrides[testAddress])
	}
}

func TestBuildOverrides_RevertedDeploymentFails(t *testing.T) {
	chain := chainFor(t, creationTx(0), creationBlock(creationTx(0)))

	_, err := buildOne(t, chain, loadedProject(t, []byte{0x60, 0x00, 0x60, 0x00, 0xfd}), false)
	if err == nil || !strings.Contains(err.Error(), "reverted") {
		t.Errorf("wrong error: %v", err)
	}
}

func TestBuildOverrides_RejectsForeignChainProject(t *testing.T) {
	chain := chainFor(t, creationTx(0), creationBlock(creationTx(0)))

	// the project metadata pins chain 1; replaying on chain 250 must fail
	// before any chain access happens
	_, err := BuildOverrides(
		context.Background(), chain, utils.GetChainConfig(250, utils.VersionShanghai),
		[]*ClonedProject{loadedProject(t, initCode)}, false, logger.NewLogger("CRITICAL", "Test"))
	if !errors.Is(err, ErrLoadProject) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestBuildOverrides_RejectsNonCreationTransaction(t *testing.T) {
	call := creationTx(0)
	call.To = &otherSender
	chain := chainFor(t, call, creationBlock(call))

	if _, err := buildOne(t, chain, loadedProject(t, initCode), false); err == nil {
		t.Errorf("a call transaction must be rejected as tweak source")
	}
}
