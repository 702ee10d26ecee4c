package executor

import (
	"fmt"
	"math/big"

	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// Executor applies transactions of one block to a shared state backend. It
// owns the error classification of the execution layer: a reverted
// transaction is a Result, a broken one is an error.
type Executor struct {
	db       state.StateDB
	chainCfg *params.ChainConfig
	block    BlockEnv
	vmCfg    vm.Config
}

// NewExecutor creates an executor bound to the given backend and block
// environment. The backend stays exclusively owned by the caller.
func NewExecutor(db state.StateDB, chainCfg *params.ChainConfig, block BlockEnv) *Executor {
	return &Executor{
		db:       db,
		chainCfg: chainCfg,
		block:    block,
		// Base fee checks are relaxed the same way archive nodes replay
		// historic transactions; the fee fields of the mined transaction
		// are applied as-is.
		vmCfg: vm.Config{NoBaseFee: true},
	}
}

// Backend exposes the shared state the executor commits into.
func (e *Executor) Backend() state.StateDB {
	return e.db
}

// CommitCall executes a transaction with a recipient against the shared
// backend and commits its effects. The returned error is fatal; a revert is
// reported through the Result.
func (e *Executor) CommitCall(tx *provider.Transaction) (*Result, error) {
	if tx.IsCreation() {
		return nil, fmt.Errorf("transaction %v carries no recipient", tx.Hash)
	}
	return e.commit(tx)
}

// Deploy executes a transaction without a recipient against the shared
// backend and commits its effects. A reverted deployment is a regular
// Result; the returned error is fatal.
func (e *Executor) Deploy(tx *provider.Transaction) (*Result, error) {
	if !tx.IsCreation() {
		return nil, fmt.Errorf("transaction %v carries a recipient", tx.Hash)
	}
	return e.commit(tx)
}

func (e *Executor) commit(tx *provider.Transaction) (*Result, error) {
	var txIndex uint
	if tx.TransactionIndex != nil {
		txIndex = uint(*tx.TransactionIndex)
	}
	e.db.BeginTransaction(tx.Hash, txIndex)
	defer e.db.EndTransaction()

	msg := newMessage(tx)
	evm := vm.NewEVM(e.blockContext(), core.NewEVMTxContext(msg), e.db, e.chainCfg, e.vmCfg)
	gaspool := new(core.GasPool).AddGas(e.block.GasLimit)

	sender := msg.From
	nonce := e.db.GetNonce(sender)

	snapshot := e.db.Snapshot()
	msgResult, err := core.ApplyMessage(evm, msg, gaspool)
	if err != nil {
		e.db.RevertToSnapshot(snapshot)
		// a failed remote read surfaces as a bogus zero value; report the
		// fetch failure as the cause instead of the downstream EVM error
		if fetchErr := e.db.Error(); fetchErr != nil {
			return nil, fmt.Errorf("state fetch failed while executing %v; %w", tx.Hash, fetchErr)
		}
		return nil, fmt.Errorf("cannot apply transaction %v; %w", tx.Hash, err)
	}
	if fetchErr := e.db.Error(); fetchErr != nil {
		return nil, fmt.Errorf("state fetch failed while executing %v; %w", tx.Hash, fetchErr)
	}

	res := &Result{
		Status:     types.ReceiptStatusSuccessful,
		GasUsed:    msgResult.UsedGas,
		ReturnData: msgResult.ReturnData,
		Logs:       e.db.TxLogs(),
		Err:        msgResult.Err,
	}
	if msgResult.Failed() {
		res.Status = types.ReceiptStatusFailed
	} else if tx.IsCreation() {
		res.ContractAddress = crypto.CreateAddress(sender, nonce)
	}
	return res, nil
}

func (e *Executor) blockContext() vm.BlockContext {
	random := e.block.Random
	getHash := e.block.BlockHash
	if getHash == nil {
		getHash = func(uint64) common.Hash { return common.Hash{} }
	}
	difficulty := e.block.Difficulty
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	baseFee := e.block.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     getHash,
		Coinbase:    e.block.Coinbase,
		BlockNumber: new(big.Int).SetUint64(e.block.Number),
		Time:        e.block.Timestamp,
		Difficulty:  new(big.Int).Set(difficulty),
		BaseFee:     new(big.Int).Set(baseFee),
		BlobBaseFee: big.NewInt(params.BlobTxMinBlobGasprice),
		GasLimit:    e.block.GasLimit,
		Random:      &random,
	}
}

// newMessage translates a fetched transaction into the message the EVM
// consumes. The gas price reported by the provider for a mined transaction
// is its effective price, so it is applied verbatim.
func newMessage(tx *provider.Transaction) *core.Message {
	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToInt()
	}
	gasPrice := new(big.Int)
	if tx.GasPrice != nil {
		gasPrice = tx.GasPrice.ToInt()
	}
	feeCap := gasPrice
	if tx.GasFeeCap != nil {
		feeCap = tx.GasFeeCap.ToInt()
	}
	tipCap := gasPrice
	if tx.GasTipCap != nil {
		tipCap = tx.GasTipCap.ToInt()
	}
	return &core.Message{
		From:       tx.From,
		To:         tx.To,
		Nonce:      uint64(tx.Nonce),
		Value:      value,
		GasLimit:   uint64(tx.Gas),
		GasPrice:   gasPrice,
		GasFeeCap:  feeCap,
		GasTipCap:  tipCap,
		Data:       tx.Input,
		AccessList: tx.AccessList,
	}
}
