// Package replay reconstructs the pre-execution state of a mined transaction
// by forking the parent of its block and re-applying the preceding
// transactions in mined order, then executes the transaction itself and
// classifies the outcome.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xstonegm/txreplay/provider"
	"github.com/0xstonegm/txreplay/utils"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrSystemTransaction is reported for transactions injected by the
	// protocol itself. They carry no regular gas pricing semantics and
	// replaying them as ordinary transactions would corrupt accounting.
	ErrSystemTransaction = errors.New("system transactions cannot be replayed")

	// ErrPendingTransaction is reported for transactions not mined yet.
	ErrPendingTransaction = errors.New("transaction is not mined yet")
)

// ResolveTarget looks up the transaction to replay and checks its
// eligibility. On success it returns the transaction together with the
// number of the block it was mined in.
func ResolveTarget(ctx context.Context, chain provider.Provider, hash common.Hash) (*provider.Transaction, uint64, error) {
	tx, err := chain.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, 0, err
	}
	if utils.IsSystemTransaction(tx.From, tx.TypeTag()) {
		return nil, 0, fmt.Errorf("%w; transaction %v", ErrSystemTransaction, hash)
	}
	if tx.BlockNumber == nil {
		return nil, 0, fmt.Errorf("%w; transaction %v", ErrPendingTransaction, hash)
	}
	return tx, tx.BlockNumber.ToInt().Uint64(), nil
}
