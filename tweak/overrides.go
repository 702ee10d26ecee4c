package tweak

import (
	"context"
	"fmt"

	"github.com/0xstonegm/txreplay/executor"
	"github.com/0xstonegm/txreplay/logger"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/state"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// BuildOverrides resolves the given cloned projects into an address to
// bytecode override map. Each project's original creation transaction is
// re-executed with the locally built init code so that immutable values are
// bound against the same chain state the original deployment saw. In quick
// mode the deployment runs directly against the state of the block before
// the creation block, skipping the transactions that preceded the creation
// within its own block.
func BuildOverrides(
	ctx context.Context,
	chain provider.Provider,
	chainCfg *params.ChainConfig,
	projects []*ClonedProject,
	quick bool,
	log logger.Logger,
) (map[common.Address][]byte, error) {
	overrides := make(map[common.Address][]byte, len(projects))
	for _, project := range projects {
		code, err := resolveOverride(ctx, chain, chainCfg, project, quick)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve tweak for %v; %w", project.Metadata.Address, err)
		}
		log.Debugf("tweaking %v with %v bytes of code from %v",
			project.Metadata.Address, len(code), project.Root)
		overrides[project.Metadata.Address] = code
	}
	return overrides, nil
}

func resolveOverride(
	ctx context.Context,
	chain provider.Provider,
	chainCfg *params.ChainConfig,
	project *ClonedProject,
	quick bool,
) ([]byte, error) {
	if want := project.Metadata.ChainID; chainCfg.ChainID != nil && chainCfg.ChainID.Uint64() != want {
		return nil, fmt.Errorf("%w; project %v was cloned from chain %d, replaying on chain %v",
			ErrLoadProject, project.Root, want, chainCfg.ChainID)
	}

	initCode, err := project.InitCode()
	if err != nil {
		return nil, err
	}

	creation, err := chain.TransactionByHash(ctx, project.Metadata.CreationTransaction)
	if err != nil {
		return nil, err
	}
	if !creation.IsCreation() {
		return nil, fmt.Errorf("%w; transaction %v is not a contract creation",
			ErrLoadProject, creation.Hash)
	}
	if creation.BlockNumber == nil {
		return nil, fmt.Errorf("%w; creation transaction %v is not mined",
			ErrLoadProject, creation.Hash)
	}

	blockNumber := creation.BlockNumber.ToInt().Uint64()
	block, err := chain.BlockByNumber(ctx, blockNumber)
	if err != nil {
		return nil, err
	}

	db := state.NewForkDB(chain.StateAt(ctx, blockNumber-1), 0)
	exec := executor.NewExecutor(db, chainCfg, executor.BlockEnvOf(block))

	if !quick {
		if err := replayUntil(exec, block, creation.Hash); err != nil {
			return nil, err
		}
	}

	// re-run the deployment with the local init code in place of the
	// original one
	deploy := *creation
	deploy.Input = initCode
	res, err := exec.Deploy(&deploy)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, fmt.Errorf("tweaked deployment of %v reverted; %v",
			project.Metadata.Address, res.Err)
	}

	code := exec.Backend().GetCode(res.ContractAddress)
	if fetchErr := db.Error(); fetchErr != nil {
		return nil, fetchErr
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("tweaked deployment of %v produced no code",
			project.Metadata.Address)
	}
	return code, nil
}

// replayUntil applies the block's transactions preceding the stop hash, in
// mined order, against the executor's backend. System transactions are
// skipped; reverted creations are tolerated the same way the main replay
// tolerates them.
func replayUntil(exec *executor.Executor, block *provider.Block, stop common.Hash) error {
	for _, tx := range block.Transactions {
		if tx.Hash == stop {
			return nil
		}
		if utils.IsSystemTransaction(tx.From, tx.TypeTag()) {
			continue
		}
		if tx.IsCreation() {
			if _, err := exec.Deploy(tx); err != nil {
				return fmt.Errorf("cannot replay creation %v in block %v; %w",
					tx.Hash, block.Number, err)
			}
			continue
		}
		if _, err := exec.CommitCall(tx); err != nil {
			return fmt.Errorf("cannot replay call %v in block %v; %w",
				tx.Hash, block.Number, err)
		}
	}
	return fmt.Errorf("transaction %v not found in block %v", stop, block.Number)
}
