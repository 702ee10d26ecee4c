package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Reader supplies account state of the fork block. Implementations may
// suspend on network I/O; read failures are absorbed by the StateDB and
// surfaced through its Error method.
type Reader interface {
	Balance(common.Address) (*big.Int, error)
	Nonce(common.Address) (uint64, error)
	Code(common.Address) ([]byte, error)
	Storage(common.Address, common.Hash) (common.Hash, error)
}

// StateDB is the mutable world state a replay run executes against. It is
// exclusively owned by one replay driver for the lifetime of the run; there
// is no concurrent mutation.
type StateDB interface {
	vm.StateDB

	// BeginTransaction opens the scope of one replayed transaction. All log
	// records emitted until EndTransaction are attributed to the given hash.
	BeginTransaction(txHash common.Hash, txIndex uint)

	// EndTransaction closes the scope of the current transaction and makes
	// its effects final for the following ones.
	EndTransaction()

	// TxLogs returns the log records emitted by the current transaction in
	// emission order, excluding records dropped by reverts.
	TxLogs() []*types.Log

	// InstallOverrides substitutes the code of the given addresses. Must be
	// called before the first BeginTransaction of the run.
	InstallOverrides(overrides map[common.Address][]byte)

	// Error reports the first remote read failure observed, if any. A replay
	// result obtained from a StateDB with a pending error is invalid.
	Error() error
}

// EmptyReader is a Reader of a chain without any state. It backs scratch
// states in tests and tweak resolution.
type EmptyReader struct{}

func (EmptyReader) Balance(common.Address) (*big.Int, error) { return new(big.Int), nil }

func (EmptyReader) Nonce(common.Address) (uint64, error) { return 0, nil }

func (EmptyReader) Code(common.Address) ([]byte, error) { return nil, nil }

func (EmptyReader) Storage(common.Address, common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}
