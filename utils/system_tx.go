package utils

import (
	"github.com/ethereum/go-ethereum/common"
)

// SystemTransactionType is the reserved transaction type tag of protocol
// injected transactions (EIP-2718 type 0x7E, used by OP-stack deposits).
// Such transactions carry no gas pricing and are excluded from replay.
const SystemTransactionType = 0x7E

// Senders of protocol injected transactions on known L2 chains.
var (
	arbitrumSystemSender = common.HexToAddress("0x00000000000000000000000000000000000A4B05")
	optimismSystemSender = common.HexToAddress("0xDeaDDEaDDeAdDEAdDEaDDEAddEAddeAddEAd0001")
)

// IsKnownSystemSender reports whether the address is a known sender of
// protocol injected transactions.
func IsKnownSystemSender(sender common.Address) bool {
	return sender == arbitrumSystemSender || sender == optimismSystemSender
}

// IsSystemTransaction reports whether a transaction given by its sender and
// type tag is a system transaction.
func IsSystemTransaction(sender common.Address, txType *uint64) bool {
	if IsKnownSystemSender(sender) {
		return true
	}
	return txType != nil && *txType == SystemTransactionType
}
