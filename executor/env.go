package executor

import (
	"math/big"

	"github.com/0xstonegm/txreplay/provider"
	"github.com/ethereum/go-ethereum/common"
)

// BlockEnv carries the block level execution parameters of the replayed
// block. It is populated once before replay starts and never mutated
// mid-replay.
type BlockEnv struct {
	Number     uint64
	Timestamp  uint64
	Coinbase   common.Address
	Difficulty *big.Int
	Random     common.Hash
	BaseFee    *big.Int
	GasLimit   uint64

	// BlockHash resolves historic block hashes for the BLOCKHASH opcode.
	// Optional; when nil every historic hash reads as zero.
	BlockHash func(number uint64) common.Hash
}

// BlockEnvOf derives the execution parameters from a fetched block header.
// The randao value falls back to the zero hash and the base fee to zero for
// blocks predating the respective forks.
func BlockEnvOf(block *provider.Block) BlockEnv {
	env := BlockEnv{
		Number:     uint64(block.Number),
		Timestamp:  uint64(block.Timestamp),
		Coinbase:   block.Miner,
		Difficulty: new(big.Int),
		BaseFee:    new(big.Int),
		GasLimit:   uint64(block.GasLimit),
	}
	if block.Difficulty != nil {
		env.Difficulty = block.Difficulty.ToInt()
	}
	if block.MixHash != nil {
		env.Random = *block.MixHash
	}
	if block.BaseFee != nil {
		env.BaseFee = block.BaseFee.ToInt()
	}
	env.BlockHash = func(number uint64) common.Hash {
		if number == uint64(block.Number)-1 {
			return block.ParentHash
		}
		return common.Hash{}
	}
	return env
}
