package replay

import (
	"context"
	"fmt"

	"github.com/0xstonegm/txreplay/executor"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/state"
	"github.com/0xstonegm/txreplay/utils"
)

// Environment is the prepared replay substrate: the target block with its
// full transaction list and an execution backend forked at the state of the
// block's parent.
type Environment struct {
	Block    *provider.Block
	Backend  state.StateDB
	Executor *executor.Executor
	Version  utils.EvmVersion
	ChainID  int64
}

// BuildEnvironment fetches the given block including its full transaction
// list, forks the world state at its parent, and prepares an executor with
// the block's execution parameters. The EVM version is taken from the
// config when pinned there; otherwise a header heuristic decides, falling
// back to the default version.
func BuildEnvironment(ctx context.Context, chain provider.Provider, cfg *utils.Config, blockNumber uint64) (*Environment, error) {
	block, err := chain.BlockByNumber(ctx, blockNumber)
	if err != nil {
		return nil, err
	}

	chainID := cfg.ChainID
	if chainID == 0 {
		chainID, err = chain.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot determine chain id; %w", err)
		}
	}

	version := cfg.EvmVersion
	if version == utils.VersionUnset {
		version = utils.InferEvmVersion((*uint64)(block.ExcessBlobGas))
	}
	if version == utils.VersionUnset {
		version = utils.DefaultEvmVersion
	}

	db := state.NewForkDB(chain.StateAt(ctx, blockNumber-1), 0)
	exec := executor.NewExecutor(db, utils.GetChainConfig(chainID, version), executor.BlockEnvOf(block))

	return &Environment{
		Block:    block,
		Backend:  db,
		Executor: exec,
		Version:  version,
		ChainID:  chainID,
	}, nil
}
