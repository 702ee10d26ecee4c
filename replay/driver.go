package replay

import (
	"context"
	"fmt"

	"github.com/0xstonegm/txreplay/logger"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/tweak"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/common"
)

// Run performs one complete replay of the configured target transaction:
// resolve the target, fork at the parent of its block, install bytecode
// tweaks, re-apply the preceding transactions in mined order and execute
// the target. The target's own failure is returned as the outcome, never
// as a run error.
func Run(ctx context.Context, chain provider.Provider, cfg *utils.Config) (*Outcome, error) {
	log := logger.NewLogger(cfg.LogLevel, "Replay")

	target, blockNumber, err := ResolveTarget(ctx, chain, cfg.TxHash)
	if err != nil {
		return nil, err
	}
	log.Debugf("replaying transaction %v of block %v", target.Hash, blockNumber)

	env, err := BuildEnvironment(ctx, chain, cfg, blockNumber)
	if err != nil {
		return nil, err
	}
	log.Debugf("forked at block %v, EVM version %v, chain id %v",
		blockNumber-1, env.Version, env.ChainID)

	if len(cfg.TweakPaths) > 0 {
		overrides, err := resolveTweaks(ctx, chain, cfg, env, log)
		if err != nil {
			return nil, err
		}
		env.Backend.InstallOverrides(overrides)
	}

	return replayBlock(env, target, cfg.Quick, log)
}

// resolveTweaks loads the configured cloned projects and builds their
// bytecode overrides against live chain state.
func resolveTweaks(ctx context.Context, chain provider.Provider, cfg *utils.Config, env *Environment, log logger.Logger) (map[common.Address][]byte, error) {
	projects := make([]*tweak.ClonedProject, 0, len(cfg.TweakPaths))
	for _, path := range cfg.TweakPaths {
		project, err := tweak.LoadClonedProject(path)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return tweak.BuildOverrides(ctx, chain,
		utils.GetChainConfig(env.ChainID, env.Version), projects, cfg.Quick, log)
}

// replayBlock applies the block's transactions preceding the target against
// the environment's backend, then executes the target itself. Overrides
// must already be installed; quick mode skips the preceding transactions
// entirely.
func replayBlock(env *Environment, target *provider.Transaction, quick bool, log logger.Logger) (*Outcome, error) {
	if !quick {
		if err := replayPreceding(env, target, log); err != nil {
			return nil, err
		}
	}
	return executeTarget(env, target)
}

// replayPreceding re-applies all transactions mined before the target, in
// original order, against the shared backend. System transactions are
// skipped; a reverted creation is tolerated since the chain itself may
// contain failed deployments; any fatal execution error aborts the run.
func replayPreceding(env *Environment, target *provider.Transaction, log logger.Logger) error {
	blockNumber := uint64(env.Block.Number)
	tracker := utils.NewProgressTracker(len(env.Block.Transactions), log)

	for _, tx := range env.Block.Transactions {
		if tx.Hash == target.Hash {
			return nil
		}
		if utils.IsSystemTransaction(tx.From, tx.TypeTag()) {
			log.Debugf("skipping system transaction %v", tx.Hash)
			continue
		}

		if tx.IsCreation() {
			res, err := env.Executor.Deploy(tx)
			if err != nil {
				return fmt.Errorf("cannot replay transaction %v in block %v; %w",
					tx.Hash, blockNumber, err)
			}
			if res.Failed() {
				log.Debugf("tolerating reverted creation %v", tx.Hash)
			}
		} else {
			if _, err := env.Executor.CommitCall(tx); err != nil {
				return fmt.Errorf("cannot replay transaction %v in block %v; %w",
					tx.Hash, blockNumber, err)
			}
		}
		tracker.PrintProgress()
	}

	return fmt.Errorf("transaction %v not found in block %v", target.Hash, blockNumber)
}

// executeTarget runs the target transaction itself. A call failure is the
// run's result and propagates; a creation failure is observable data and
// becomes a structured outcome.
func executeTarget(env *Environment, target *provider.Transaction) (*Outcome, error) {
	blockNumber := uint64(env.Block.Number)

	if target.IsCreation() {
		res, err := env.Executor.Deploy(target)
		if err != nil {
			return classify(target, blockNumber, nil,
				fmt.Errorf("cannot deploy %v in block %v; %w", target.Hash, blockNumber, err)), nil
		}
		return classify(target, blockNumber, res, nil), nil
	}

	res, err := env.Executor.CommitCall(target)
	if err != nil {
		return nil, fmt.Errorf("cannot execute %v in block %v; %w", target.Hash, blockNumber, err)
	}
	return classify(target, blockNumber, res, nil), nil
}
