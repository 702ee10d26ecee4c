package provider

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transaction is a mined transaction as reported by the provider. It is
// read-only for the duration of a replay run.
type Transaction struct {
	Hash             common.Hash      `json:"hash"`
	Nonce            hexutil.Uint64   `json:"nonce"`
	BlockNumber      *hexutil.Big     `json:"blockNumber"`
	TransactionIndex *hexutil.Uint64  `json:"transactionIndex"`
	From             common.Address   `json:"from"`
	To               *common.Address  `json:"to"`
	Value            *hexutil.Big     `json:"value"`
	Gas              hexutil.Uint64   `json:"gas"`
	GasPrice         *hexutil.Big     `json:"gasPrice"`
	GasFeeCap        *hexutil.Big     `json:"maxFeePerGas"`
	GasTipCap        *hexutil.Big     `json:"maxPriorityFeePerGas"`
	Input            hexutil.Bytes    `json:"input"`
	Type             *hexutil.Uint64  `json:"type"`
	AccessList       types.AccessList `json:"accessList,omitempty"`
}

// IsCreation reports whether the transaction deploys a new contract, i.e.
// carries no recipient.
func (tx *Transaction) IsCreation() bool {
	return tx.To == nil
}

// TypeTag returns the EIP-2718 type of the transaction, or nil for legacy
// transactions reported without one.
func (tx *Transaction) TypeTag() *uint64 {
	return (*uint64)(tx.Type)
}

// Block carries the header fields the replay needs plus the full ordered
// transaction list of the block.
type Block struct {
	Number        hexutil.Uint64  `json:"number"`
	Hash          common.Hash     `json:"hash"`
	ParentHash    common.Hash     `json:"parentHash"`
	Miner         common.Address  `json:"miner"`
	Timestamp     hexutil.Uint64  `json:"timestamp"`
	Difficulty    *hexutil.Big    `json:"difficulty"`
	MixHash       *common.Hash    `json:"mixHash"`
	BaseFee       *hexutil.Big    `json:"baseFeePerGas"`
	GasLimit      hexutil.Uint64  `json:"gasLimit"`
	ExcessBlobGas *hexutil.Uint64 `json:"excessBlobGas"`
	Transactions  []*Transaction  `json:"transactions"`
}
