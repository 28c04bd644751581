package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestCalcBaseFeeInitial(t *testing.T) {
	parent := &types.Header{GasLimit: 30_000_000, GasUsed: 0}
	if got := CalcBaseFee(parent); got.Cmp(big.NewInt(InitialBaseFee)) != 0 {
		t.Fatalf("want %d, got %s", InitialBaseFee, got)
	}
}

func TestCalcBaseFeeAtTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  15_000_000,
		BaseFee:  big.NewInt(1_000_000_000),
	}
	if got := CalcBaseFee(parent); got.Cmp(parent.BaseFee) != 0 {
		t.Fatalf("base fee should hold steady at target usage: got %s", got)
	}
}

func TestCalcBaseFeeIncreasesAboveTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  30_000_000, // full block: 2x target
		BaseFee:  big.NewInt(1_000_000_000),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(parent.BaseFee) <= 0 {
		t.Fatalf("base fee should increase above target usage: parent=%s, got=%s", parent.BaseFee, got)
	}
}

func TestCalcBaseFeeDecreasesBelowTarget(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  0,
		BaseFee:  big.NewInt(1_000_000_000),
	}
	got := CalcBaseFee(parent)
	if got.Cmp(parent.BaseFee) >= 0 {
		t.Fatalf("base fee should decrease below target usage: parent=%s, got=%s", parent.BaseFee, got)
	}
}

func TestCalcBaseFeeFloor(t *testing.T) {
	parent := &types.Header{
		GasLimit: 30_000_000,
		GasUsed:  0,
		BaseFee:  big.NewInt(MinBaseFee), // already at the floor
	}
	got := CalcBaseFee(parent)
	if got.Cmp(big.NewInt(MinBaseFee)) != 0 {
		t.Fatalf("base fee should not fall below the minimum: got %s", got)
	}
}

func TestCalcExcessBlobGas(t *testing.T) {
	cases := []struct {
		parentExcess, parentUsed, want uint64
	}{
		{0, 0, 0},
		{0, TargetBlobGasPerBlock, 0},
		{0, TargetBlobGasPerBlock + GasPerBlob, GasPerBlob},
		{TargetBlobGasPerBlock, TargetBlobGasPerBlock, TargetBlobGasPerBlock},
	}
	for _, c := range cases {
		if got := CalcExcessBlobGas(c.parentExcess, c.parentUsed); got != c.want {
			t.Errorf("CalcExcessBlobGas(%d, %d) = %d, want %d", c.parentExcess, c.parentUsed, got, c.want)
		}
	}
}

func TestCalcBlobBaseFeeIncreasesWithExcess(t *testing.T) {
	zero := CalcBlobBaseFee(0)
	high := CalcBlobBaseFee(10 * GasPerBlob)
	if high.Cmp(zero) <= 0 {
		t.Fatalf("blob base fee should increase with excess blob gas: zero=%s, high=%s", zero, high)
	}
}
