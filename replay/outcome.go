package replay

import (
	"github.com/0xstonegm/txreplay/console"
	"github.com/0xstonegm/txreplay/executor"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// OutcomeKind classifies the execution of the target transaction.
type OutcomeKind int

const (
	// Succeeded marks a regularly committed execution.
	Succeeded OutcomeKind = iota
	// Reverted marks an execution that ran and reverted.
	Reverted
	// Failed marks a creation whose execution could not run at all.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Reverted:
		return "reverted"
	default:
		return "failed"
	}
}

// Outcome is the caller visible result of one replay run. It always carries
// the log records the target emitted, empty if none.
type Outcome struct {
	Kind        OutcomeKind
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	ReturnData  []byte

	// ContractAddress of a successful contract creation.
	ContractAddress common.Address

	Logs        []*types.Log
	ConsoleLogs []string

	// Err details a reverted or failed execution.
	Err error
}

// classify maps the raw execution result of the target transaction into an
// outcome. A nil result stands for a creation whose execution never ran;
// such outcomes carry no logs.
func classify(target *provider.Transaction, blockNumber uint64, res *executor.Result, fatal error) *Outcome {
	out := &Outcome{
		TxHash:      target.Hash,
		BlockNumber: blockNumber,
	}
	if res == nil {
		out.Kind = Failed
		out.Err = fatal
		return out
	}

	out.GasUsed = res.GasUsed
	out.ReturnData = res.ReturnData
	out.Logs = res.Logs
	out.ConsoleLogs = console.Decode(res.Logs)
	if res.Failed() {
		out.Kind = Reverted
		out.Err = res.Err
	} else {
		out.Kind = Succeeded
		out.ContractAddress = res.ContractAddress
	}
	return out
}
