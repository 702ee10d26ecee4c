package executor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Result describes the outcome of executing exactly one transaction. A
// reverted execution is a regular Result carrying the revert error; fatal
// errors never produce a Result.
type Result struct {
	Status          uint64 // types.ReceiptStatusSuccessful or Failed
	GasUsed         uint64
	ReturnData      []byte
	Logs            []*types.Log
	ContractAddress common.Address // deployed address, creations only
	Err             error          // execution error, nil on success
}

// Failed reports whether the execution ended in a revert or another
// execution level error.
func (r *Result) Failed() bool {
	return r.Status == types.ReceiptStatusFailed
}

// Revert returns the raw revert payload, or nil if the execution did not
// revert.
func (r *Result) Revert() []byte {
	if !r.Failed() {
		return nil
	}
	return r.ReturnData
}
