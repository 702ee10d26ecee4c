// Package trace renders the outcome of a replay run for human consumption.
// It is purely a sink; nothing flows back into the replay.
package trace

import (
	"fmt"
	"io"
	"strconv"

	"github.com/0xstonegm/txreplay/replay"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Presenter writes replay outcomes to the given sink, resolving addresses
// through the configured labels.
type Presenter struct {
	out     io.Writer
	labels  map[common.Address]string
	verbose bool
	debug   bool
}

// NewPresenter creates a presenter writing to the given sink, configured by
// the run's label, verbose and debug settings.
func NewPresenter(out io.Writer, cfg *utils.Config) *Presenter {
	return &Presenter{
		out:     out,
		labels:  cfg.Labels,
		verbose: cfg.Verbose,
		debug:   cfg.Debug,
	}
}

// Present renders the given outcome.
func (p *Presenter) Present(outcome *replay.Outcome) {
	fmt.Fprintf(p.out, "Transaction: %v\n", outcome.TxHash)
	fmt.Fprintf(p.out, "Block: %v\n", outcome.BlockNumber)
	fmt.Fprintf(p.out, "Status: %v\n", p.status(outcome))

	if outcome.Kind == replay.Succeeded && outcome.ContractAddress != (common.Address{}) {
		fmt.Fprintf(p.out, "Deployed contract: %v\n", p.label(outcome.ContractAddress))
	}
	fmt.Fprintf(p.out, "Gas used: %v\n", outcome.GasUsed)

	for _, record := range outcome.ConsoleLogs {
		fmt.Fprintf(p.out, "  console.log: %v\n", record)
	}
	if p.debug {
		for _, log := range outcome.Logs {
			p.printLog(log)
		}
	}
	if p.verbose {
		p.printSummary(outcome)
	}
}

// status renders the coloured outcome classification, including a decoded
// revert reason where one can be recovered from the return data.
func (p *Presenter) status(outcome *replay.Outcome) string {
	switch outcome.Kind {
	case replay.Succeeded:
		return color.GreenString("succeeded")
	case replay.Reverted:
		if reason, err := abi.UnpackRevert(outcome.ReturnData); err == nil {
			return color.RedString("reverted: %v", reason)
		}
		if len(outcome.ReturnData) > 0 {
			return color.RedString("reverted: %v", hexutil.Encode(outcome.ReturnData))
		}
		return color.RedString("reverted")
	default:
		return color.RedString("failed: %v", outcome.Err)
	}
}

func (p *Presenter) printLog(log *types.Log) {
	fmt.Fprintf(p.out, "  log emitted by %v\n", p.label(log.Address))
	for i, topic := range log.Topics {
		fmt.Fprintf(p.out, "    topic[%d]: %v\n", i, topic)
	}
	if len(log.Data) > 0 {
		fmt.Fprintf(p.out, "    data: %v\n", hexutil.Encode(log.Data))
	}
}

func (p *Presenter) printSummary(outcome *replay.Outcome) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Transaction", outcome.TxHash.Hex()})
	table.Append([]string{"Block", strconv.FormatUint(outcome.BlockNumber, 10)})
	table.Append([]string{"Outcome", outcome.Kind.String()})
	table.Append([]string{"Gas used", strconv.FormatUint(outcome.GasUsed, 10)})
	table.Append([]string{"Logs", strconv.Itoa(len(outcome.Logs))})
	if outcome.ContractAddress != (common.Address{}) {
		table.Append([]string{"Contract", p.label(outcome.ContractAddress)})
	}
	table.Render()
}

// label resolves an address through the configured labels, falling back to
// the plain hex form.
func (p *Presenter) label(addr common.Address) string {
	if name, ok := p.labels[addr]; ok {
		return fmt.Sprintf("%v [%v]", name, addr.Hex())
	}
	return addr.Hex()
}
