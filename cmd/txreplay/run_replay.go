package main

import (
	"os"

	"github.com/0xstonegm/txreplay/logger"
	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/replay"
	"github.com/0xstonegm/txreplay/trace"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/urfave/cli/v2"
)

// RunCommand data structure for the replay app
var RunCommand = cli.Command{
	Action:    RunReplay,
	Name:      "run",
	Usage:     "replays one mined transaction and prints its outcome",
	ArgsUsage: "<tx-hash>",
	Flags: []cli.Flag{
		&utils.RpcUrlFlag,
		&utils.ChainIDFlag,
		&utils.DebugFlag,
		&utils.QuickFlag,
		&utils.VerboseFlag,
		&utils.LabelFlag,
		&utils.EvmVersionFlag,
		&utils.RpcRateLimitFlag,
		&utils.NoRateLimitFlag,
		&utils.TweakFlag,
		&logger.LogLevelFlag,
	},
	Description: `
The run command requires one argument: <tx-hash>

<tx-hash> is the hash of a mined transaction. The tool forks the state at the
parent of the transaction's block, re-applies all preceding transactions of
the block in their mined order, and then executes the transaction itself.

With --quick the preceding transactions are skipped and the transaction runs
directly against the parent state; this is faster but may produce results
differing from the live execution.

With --tweak the compiled code of a cloned project replaces the code of the
corresponding on-chain contract for the duration of the replay.`,
}

// RunReplay replays the transaction named by the command line argument and
// presents its outcome.
func RunReplay(ctx *cli.Context) error {
	cfg, err := utils.NewConfig(ctx)
	if err != nil {
		return err
	}

	chain, err := provider.NewRpcProvider(ctx.Context, cfg.RpcUrl, cfg.RpcRateLimit)
	if err != nil {
		return err
	}
	defer chain.Close()

	outcome, err := replay.Run(ctx.Context, chain, cfg)
	if err != nil {
		return err
	}

	trace.NewPresenter(os.Stdout, cfg).Present(outcome)
	return nil
}
