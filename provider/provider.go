package provider

//go:generate mockgen -source provider.go -destination provider_mocks.go -package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xstonegm/txreplay/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// ErrNotFound is reported when the provider cannot locate the requested
// transaction or block.
var ErrNotFound = errors.New("not found")

// Provider supplies the chain data consumed by a replay run. All fetches
// must be fully materialized before replay begins; no replay step performs
// a blocking fetch through this interface.
type Provider interface {
	// TransactionByHash returns the mined transaction with the given hash,
	// or ErrNotFound if the chain does not know it.
	TransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error)

	// BlockByNumber returns the block with the given number including its
	// full ordered transaction list, or ErrNotFound if absent.
	BlockByNumber(ctx context.Context, number uint64) (*Block, error)

	// ChainID returns the chain id reported by the endpoint.
	ChainID(ctx context.Context) (int64, error)

	// StateAt returns a reader pinned to the state of the given block.
	StateAt(ctx context.Context, block uint64) state.Reader

	// Close releases the underlying connection. After this no more
	// operations are allowed on the same instance.
	Close()
}

// RpcProvider implements Provider over a JSON-RPC endpoint. Requests are
// rate limited so shared endpoints are not hammered during long replays.
type RpcProvider struct {
	client  *rpc.Client
	limiter *rate.Limiter
}

// NewRpcProvider connects to the given JSON-RPC endpoint. A requestsPerSecond
// of zero or less disables rate limiting.
func NewRpcProvider(ctx context.Context, url string, requestsPerSecond int) (*RpcProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %v; %w", url, err)
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}

	return &RpcProvider{client: client, limiter: limiter}, nil
}

func (p *RpcProvider) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return p.client.CallContext(ctx, result, method, args...)
}

func (p *RpcProvider) TransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := p.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("cannot fetch transaction %v; %w", hash, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %v; %w", hash, ErrNotFound)
	}
	return tx, nil
}

func (p *RpcProvider) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	var block *Block
	if err := p.call(ctx, &block, "eth_getBlockByNumber", hexutil.Uint64(number), true); err != nil {
		return nil, fmt.Errorf("cannot fetch block %v; %w", number, err)
	}
	if block == nil {
		return nil, fmt.Errorf("block %v; %w", number, ErrNotFound)
	}
	return block, nil
}

func (p *RpcProvider) ChainID(ctx context.Context) (int64, error) {
	var id hexutil.Big
	if err := p.call(ctx, &id, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("cannot fetch chain id; %w", err)
	}
	return id.ToInt().Int64(), nil
}

func (p *RpcProvider) Close() {
	p.client.Close()
}

// PinnedReader reads account state at one fixed historic block. It satisfies
// the fork backend's remote reader contract.
type PinnedReader struct {
	provider *RpcProvider
	ctx      context.Context
	block    hexutil.Uint64
}

// StateAt returns a reader pinned to the given block. The context governs
// all reads issued through the returned reader.
func (p *RpcProvider) StateAt(ctx context.Context, block uint64) state.Reader {
	return &PinnedReader{provider: p, ctx: ctx, block: hexutil.Uint64(block)}
}

func (r *PinnedReader) Balance(addr common.Address) (*big.Int, error) {
	var balance hexutil.Big
	if err := r.provider.call(r.ctx, &balance, "eth_getBalance", addr, r.block); err != nil {
		return nil, fmt.Errorf("cannot fetch balance of %v at block %v; %w", addr, r.block, err)
	}
	return balance.ToInt(), nil
}

func (r *PinnedReader) Nonce(addr common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	if err := r.provider.call(r.ctx, &nonce, "eth_getTransactionCount", addr, r.block); err != nil {
		return 0, fmt.Errorf("cannot fetch nonce of %v at block %v; %w", addr, r.block, err)
	}
	return uint64(nonce), nil
}

func (r *PinnedReader) Code(addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := r.provider.call(r.ctx, &code, "eth_getCode", addr, r.block); err != nil {
		return nil, fmt.Errorf("cannot fetch code of %v at block %v; %w", addr, r.block, err)
	}
	return code, nil
}

func (r *PinnedReader) Storage(addr common.Address, key common.Hash) (common.Hash, error) {
	var value hexutil.Bytes
	if err := r.provider.call(r.ctx, &value, "eth_getStorageAt", addr, key, r.block); err != nil {
		return common.Hash{}, fmt.Errorf("cannot fetch storage %v of %v at block %v; %w", key, addr, r.block, err)
	}
	return common.BytesToHash(value), nil
}
