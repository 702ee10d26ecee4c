package utils

import (
	"github.com/urfave/cli/v2"
)

// Command line options shared by the replay commands.
var (
	RpcUrlFlag = cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "URL of the JSON-RPC endpoint providing chain data",
		Aliases: []string{"r"},
		Value:   "http://localhost:8545",
	}
	ChainIDFlag = cli.Int64Flag{
		Name:  "chainid",
		Usage: "ChainID of the replayed chain; fetched via eth_chainId when not set",
	}
	DebugFlag = cli.BoolFlag{
		Name:    "debug",
		Usage:   "prints extended execution detail of the replayed transaction",
		Aliases: []string{"d"},
	}
	QuickFlag = cli.BoolFlag{
		Name:    "quick",
		Usage:   "executes the transaction only with the state from the previous block; may produce different results than the live execution",
		Aliases: []string{"q"},
	}
	VerboseFlag = cli.BoolFlag{
		Name:    "verbose",
		Usage:   "prints full addresses and a transaction summary table",
		Aliases: []string{"v"},
	}
	LabelFlag = cli.StringSliceFlag{
		Name:    "label",
		Usage:   "label an address in the replay output, e.g. 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045:vitalik.eth",
		Aliases: []string{"la"},
	}
	EvmVersionFlag = cli.StringFlag{
		Name:  "evm-version",
		Usage: "EVM version used for the replay (\"istanbul\", \"berlin\", \"london\", \"paris\", \"shanghai\", \"cancun\"); inferred from the block header when not set",
	}
	RpcRateLimitFlag = cli.IntFlag{
		Name:  "rpc-rate-limit",
		Usage: "sets the number of requests sent to the RPC provider per second, disabled if 0 or negative",
		Value: 330,
	}
	NoRateLimitFlag = cli.BoolFlag{
		Name:  "no-rate-limit",
		Usage: "disables rate limiting of the RPC provider",
	}
	TweakFlag = cli.StringSliceFlag{
		Name:  "tweak",
		Usage: "path to a cloned project whose compiled code replaces the corresponding on-chain contract; can be used multiple times",
	}
)
