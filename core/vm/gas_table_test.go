package vm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestCallGasPreEIP150ForwardsFullRequestWithNoRetention(t *testing.T) {
	if got := CallGas(100_000, 40_000, false); got != 40_000 {
		t.Fatalf("expected full requested gas forwarded pre-EIP-150, got %d", got)
	}
	// Requesting more than available is capped at available, with nothing retained.
	if got := CallGas(100_000, 250_000, false); got != 100_000 {
		t.Fatalf("expected available gas as the cap pre-EIP-150, got %d", got)
	}
}

func TestCallGasEIP150RetainsOneSixtyFourth(t *testing.T) {
	available := uint64(100_000)
	maxGas := available - available/CallGasFraction
	if got := CallGas(available, 250_000, true); got != maxGas {
		t.Fatalf("expected 63/64 of available gas (%d), got %d", maxGas, got)
	}
	if got := CallGas(available, 1_000, true); got != 1_000 {
		t.Fatalf("expected the smaller requested amount to pass through untouched, got %d", got)
	}
}

func TestSstoreGasMatrix(t *testing.T) {
	zero := [32]byte{}
	one := [32]byte{31: 1}
	two := [32]byte{31: 2}

	tests := []struct {
		name       string
		original   [32]byte
		current    [32]byte
		newVal     [32]byte
		cold       bool
		wantGas    uint64
		wantRefund int64
	}{
		{"noop rewrite of current value", zero, one, one, false, WarmStorageReadCost, 0},
		{"fresh slot zero to nonzero", zero, zero, one, false, GasSstoreSet, 0},
		{"update nonzero to different nonzero", one, one, two, false, GasSstoreReset, 0},
		{"clear nonzero to zero grants refund", one, one, zero, false, GasSstoreReset, int64(SstoreClearsScheduleRefund)},
		{"dirty slot: set nonzero again after being cleared this tx", one, zero, two, false, WarmStorageReadCost, -int64(SstoreClearsScheduleRefund)},
		{"dirty slot: clear a value set nonzero this tx", one, two, zero, false, WarmStorageReadCost, int64(SstoreClearsScheduleRefund)},
		{"dirty slot: reset back to original zero", zero, one, zero, false, WarmStorageReadCost, int64(GasSstoreSet) - int64(WarmStorageReadCost)},
		{"dirty slot: reset back to original nonzero", one, two, one, false, WarmStorageReadCost, int64(GasSstoreReset) - int64(WarmStorageReadCost)},
		{"cold access adds ColdSloadCost on top", zero, zero, one, true, GasSstoreSet + ColdSloadCost, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gas, refund := SstoreGas(tt.original, tt.current, tt.newVal, tt.cold)
			if gas != tt.wantGas {
				t.Errorf("gas: got %d, want %d", gas, tt.wantGas)
			}
			if refund != tt.wantRefund {
				t.Errorf("refund: got %d, want %d", refund, tt.wantRefund)
			}
		})
	}
}

func TestExpGasPerByteOfExponent(t *testing.T) {
	tests := []struct {
		exponent uint64
		want     uint64
	}{
		{0, GasHigh},
		{1, GasHigh + 50},
		{255, GasHigh + 50},
		{256, GasHigh + 100},
	}
	for _, tt := range tests {
		exp := uint256.NewInt(tt.exponent)
		if got := ExpGas(exp); got != tt.want {
			t.Errorf("ExpGas(%d): got %d, want %d", tt.exponent, got, tt.want)
		}
	}
}

func TestMemoryExpansionGasOnlyChargesTheDelta(t *testing.T) {
	if got := MemoryExpansionGas(0, 0); got != 0 {
		t.Fatalf("expanding to zero size should cost nothing, got %d", got)
	}
	first := MemoryExpansionGas(0, 32)
	if first == 0 {
		t.Fatal("expected a nonzero cost to grow memory from empty")
	}
	if got := MemoryExpansionGas(32, 32); got != 0 {
		t.Fatalf("no further growth should cost nothing, got %d", got)
	}
	grown := MemoryExpansionGas(32, 64)
	if grown == 0 {
		t.Fatal("expected a nonzero cost for the second word")
	}
}
