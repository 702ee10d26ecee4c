package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// EvmVersion selects the protocol rules the replay is executed under.
type EvmVersion int

// DefaultEvmVersion is in effect when the caller did not pin a version and
// the header heuristic stays silent.
const DefaultEvmVersion = VersionShanghai

const (
	VersionUnset EvmVersion = iota
	VersionIstanbul
	VersionBerlin
	VersionLondon
	VersionParis
	VersionShanghai
	VersionCancun
)

var evmVersionNames = map[EvmVersion]string{
	VersionIstanbul: "istanbul",
	VersionBerlin:   "berlin",
	VersionLondon:   "london",
	VersionParis:    "paris",
	VersionShanghai: "shanghai",
	VersionCancun:   "cancun",
}

func (v EvmVersion) String() string {
	if name, ok := evmVersionNames[v]; ok {
		return name
	}
	return "unset"
}

// ParseEvmVersion decodes an EVM version given by its lower-case name.
func ParseEvmVersion(name string) (EvmVersion, error) {
	for version, n := range evmVersionNames {
		if n == name {
			return version, nil
		}
	}
	return VersionUnset, fmt.Errorf("unknown EVM version: %v", name)
}

// InferEvmVersion guesses the EVM version of a block from its header fields.
// The heuristic covers a single protocol transition: a header carrying the
// excess-blob-gas field is assumed to be a Cancun block. It is best-effort
// and not guaranteed correct for all chains; an explicit version set by the
// caller always wins.
func InferEvmVersion(excessBlobGas *uint64) EvmVersion {
	if excessBlobGas != nil {
		return VersionCancun
	}
	return VersionUnset
}

var zeroTime = uint64(0)

// GetChainConfig returns a chain configuration with all forks up to the
// given EVM version enabled from genesis, so the replayed block is executed
// under exactly those rules regardless of its height.
func GetChainConfig(chainID int64, version EvmVersion) *params.ChainConfig {
	cfg := &params.ChainConfig{
		ChainID:             big.NewInt(chainID),
		HomesteadBlock:      big.NewInt(0),
		EIP150Block:         big.NewInt(0),
		EIP155Block:         big.NewInt(0),
		EIP158Block:         big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(0),
		PetersburgBlock:     big.NewInt(0),
		IstanbulBlock:       big.NewInt(0),
		MuirGlacierBlock:    big.NewInt(0),
	}
	if version >= VersionBerlin {
		cfg.BerlinBlock = big.NewInt(0)
	}
	if version >= VersionLondon {
		cfg.LondonBlock = big.NewInt(0)
	}
	if version >= VersionParis {
		cfg.MergeNetsplitBlock = big.NewInt(0)
		cfg.TerminalTotalDifficulty = big.NewInt(0)
		cfg.TerminalTotalDifficultyPassed = true
	}
	if version >= VersionShanghai {
		cfg.ShanghaiTime = &zeroTime
	}
	if version >= VersionCancun {
		cfg.CancunTime = &zeroTime
	}
	return cfg
}
