// Package tweak resolves cloned contract projects into bytecode overrides.
// A cloned project is a local project root produced by cloning an on-chain
// contract; its metadata pins the contract address and the transaction that
// originally deployed it. Replaying that deployment with the locally built
// init code yields the replacement runtime bytecode, with immutables bound
// against real chain state.
package tweak

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrLoadProject is reported when a tweak path cannot be resolved into a
// well-formed cloned project.
var ErrLoadProject = errors.New("cannot load cloned project")

// metadataFile sits at the root of every cloned project.
const metadataFile = ".clone.meta"

// CloneMetadata pins a cloned project to its on-chain identity.
type CloneMetadata struct {
	// Path of the contract source within the project, e.g. "src/WETH9.sol".
	Path string `json:"path"`

	// TargetContract is the contract name within the source unit.
	TargetContract string `json:"targetContract"`

	// Address the contract is deployed at on chain.
	Address common.Address `json:"address"`

	// ChainID of the chain the contract lives on.
	ChainID uint64 `json:"chainId"`

	// CreationTransaction is the transaction that deployed the contract.
	CreationTransaction common.Hash `json:"creationTransaction"`

	// ConstructorArguments as originally abi-encoded on chain.
	ConstructorArguments hexutil.Bytes `json:"constructorArguments"`
}

// ClonedProject is a loaded cloned project rooted in the local filesystem.
type ClonedProject struct {
	Root     string
	Metadata CloneMetadata
}

// LoadClonedProject canonicalizes the given path and loads the project
// metadata found there. Errors wrap ErrLoadProject.
func LoadClonedProject(path string) (*ClonedProject, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w; cannot resolve path %v; %v", ErrLoadProject, path, err)
	}

	raw, err := os.ReadFile(filepath.Join(root, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w; cannot read metadata in %v; %v", ErrLoadProject, root, err)
	}

	var meta CloneMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w; malformed metadata in %v; %v", ErrLoadProject, root, err)
	}
	if meta.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w; metadata in %v names no contract address", ErrLoadProject, root)
	}
	if meta.CreationTransaction == (common.Hash{}) {
		return nil, fmt.Errorf("%w; metadata in %v names no creation transaction", ErrLoadProject, root)
	}
	if meta.TargetContract == "" {
		return nil, fmt.Errorf("%w; metadata in %v names no target contract", ErrLoadProject, root)
	}
	if meta.ChainID == 0 {
		return nil, fmt.Errorf("%w; metadata in %v names no chain id", ErrLoadProject, root)
	}

	return &ClonedProject{Root: root, Metadata: meta}, nil
}

// artifact is the compiled contract output consumed from the project's out
// directory. Only the creation bytecode is needed.
type artifact struct {
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

// InitCode returns the locally built creation code of the target contract
// with the original constructor arguments appended.
func (p *ClonedProject) InitCode() ([]byte, error) {
	path := filepath.Join(p.Root, "out",
		filepath.Base(p.Metadata.Path), p.Metadata.TargetContract+".json")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w; cannot read artifact %v; %v", ErrLoadProject, path, err)
	}

	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w; malformed artifact %v; %v", ErrLoadProject, path, err)
	}
	code, err := hexutil.Decode(strings.TrimSpace(art.Bytecode.Object))
	if err != nil || len(code) == 0 {
		return nil, fmt.Errorf("%w; artifact %v carries no creation bytecode", ErrLoadProject, path)
	}

	return append(code, p.Metadata.ConstructorArguments...), nil
}
