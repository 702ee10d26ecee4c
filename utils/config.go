package utils

import (
	"fmt"
	"strings"

	"github.com/0xstonegm/txreplay/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

// Config of the replay run, assembled from command line flags.
type Config struct {
	AppName     string
	CommandName string

	TxHash       common.Hash               // hash of the transaction to replay
	RpcUrl       string                    // JSON-RPC endpoint providing chain data
	ChainID      int64                     // chain id; 0 means fetch from the provider
	Debug        bool                      // print extended execution detail
	Quick        bool                      // skip replay of preceding transactions
	Verbose      bool                      // print full addresses and a summary table
	Labels       map[common.Address]string // address labels for the replay output
	EvmVersion   EvmVersion                // explicit EVM version; empty means infer from the header
	RpcRateLimit int                       // requests per second towards the provider
	TweakPaths   []string                  // cloned projects used to tweak on-chain code
	LogLevel     string                    // level of the logging
}

// NewConfig creates a config instance from the flags of the cli context. The
// transaction hash is expected as the only positional argument.
func NewConfig(ctx *cli.Context) (*Config, error) {
	if ctx.Args().Len() != 1 {
		return nil, fmt.Errorf("command requires exactly 1 argument: <tx-hash>")
	}

	hashStr := ctx.Args().Get(0)
	if !strings.HasPrefix(hashStr, "0x") || len(hashStr) != 2+2*common.HashLength {
		return nil, fmt.Errorf("invalid tx hash: %v", hashStr)
	}

	cfg := &Config{
		AppName:      ctx.App.HelpName,
		CommandName:  ctx.Command.Name,
		TxHash:       common.HexToHash(hashStr),
		RpcUrl:       ctx.String(RpcUrlFlag.Name),
		ChainID:      ctx.Int64(ChainIDFlag.Name),
		Debug:        ctx.Bool(DebugFlag.Name),
		Quick:        ctx.Bool(QuickFlag.Name),
		Verbose:      ctx.Bool(VerboseFlag.Name),
		RpcRateLimit: ctx.Int(RpcRateLimitFlag.Name),
		TweakPaths:   ctx.StringSlice(TweakFlag.Name),
		LogLevel:     ctx.String(logger.LogLevelFlag.Name),
	}

	if ctx.Bool(NoRateLimitFlag.Name) {
		cfg.RpcRateLimit = 0
	}

	if v := ctx.String(EvmVersionFlag.Name); v != "" {
		version, err := ParseEvmVersion(v)
		if err != nil {
			return nil, err
		}
		cfg.EvmVersion = version
	}

	labels, err := parseLabels(ctx.StringSlice(LabelFlag.Name))
	if err != nil {
		return nil, err
	}
	cfg.Labels = labels

	return cfg, nil
}

// parseLabels decodes repeated "address:name" pairs into a label map.
func parseLabels(raw []string) (map[common.Address]string, error) {
	labels := make(map[common.Address]string, len(raw))
	for _, pair := range raw {
		addr, name, found := strings.Cut(pair, ":")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid label, expected <address>:<name>, got %v", pair)
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid label address: %v", addr)
		}
		labels[common.HexToAddress(addr)] = name
	}
	return labels, nil
}
