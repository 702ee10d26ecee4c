package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestIsSystemTransaction_DetectsKnownSenders(t *testing.T) {
	if !IsSystemTransaction(arbitrumSystemSender, nil) {
		t.Errorf("arbitrum system sender must be detected")
	}
	if !IsSystemTransaction(optimismSystemSender, nil) {
		t.Errorf("optimism system sender must be detected")
	}
	if IsSystemTransaction(common.HexToAddress("0x1"), nil) {
		t.Errorf("ordinary sender must not be detected as system")
	}
}

func TestIsSystemTransaction_DetectsReservedTypeTag(t *testing.T) {
	depositType := uint64(SystemTransactionType)
	if !IsSystemTransaction(common.HexToAddress("0x1"), &depositType) {
		t.Errorf("reserved type tag must be detected")
	}
	legacyType := uint64(0)
	if IsSystemTransaction(common.HexToAddress("0x1"), &legacyType) {
		t.Errorf("legacy type tag must not be detected as system")
	}
}
