package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func baseHeader(number int64, parent *types.Header) *types.Header {
	h := &types.Header{
		Number:     big.NewInt(number),
		Difficulty: big.NewInt(0),
		GasLimit:   10_000_000,
		GasUsed:    0,
		Time:       1000 + uint64(number),
	}
	if parent != nil {
		h.ParentHash = parent.Hash()
	}
	return h
}

func TestVerifyAgainstParentHappyPath(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(2, parent)
	if err := v.VerifyAgainstParent(child, parent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyAgainstParentRejectsBrokenLink(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(2, parent)
	child.ParentHash = types.Hash{0xff}
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected broken parent hash link error")
	}
}

func TestVerifyAgainstParentRejectsNumberGap(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(3, parent) // skips block 2
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected block number gap error")
	}
}

func TestVerifyAgainstParentRejectsNonMonotonicTimestamp(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(2, parent)
	child.Time = parent.Time
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected non-monotonic timestamp error")
	}
}

func TestVerifyAgainstParentRejectsExtraDataOverflow(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(2, parent)
	child.Extra = make([]byte, MaxExtraDataSize+1)
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected extra data overflow error")
	}
}

func TestVerifyAgainstParentRejectsGasLimitJump(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	parent.GasLimit = 10_000_000
	child := baseHeader(2, parent)
	child.GasLimit = parent.GasLimit * 2 // far beyond the 1/1024 bound
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected gas limit jump error")
	}
}

func TestVerifyAgainstParentRejectsGasUsedOverLimit(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	child := baseHeader(2, parent)
	child.GasUsed = child.GasLimit + 1
	if err := v.VerifyAgainstParent(child, parent); err == nil {
		t.Fatal("expected gas used exceeds limit error")
	}
}

func TestVerifyChainStopsAtFirstInvalidHeader(t *testing.T) {
	v := NewHeaderVerifier(nil)
	parent := baseHeader(1, nil)
	good := baseHeader(2, parent)
	bad := baseHeader(4, good) // gap
	idx, err := v.VerifyChain(parent, []*types.Header{good, bad})
	if err == nil {
		t.Fatal("expected an error from the second header")
	}
	if idx != 1 {
		t.Fatalf("expected failure at index 1, got %d", idx)
	}
}
