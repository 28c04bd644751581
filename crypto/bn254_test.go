package crypto

import (
	"bytes"
	"testing"
)

// g1Generator is the standard alt_bn128 G1 generator point (1, 2).
func g1Generator() []byte {
	buf := make([]byte, 64)
	buf[31] = 1
	buf[63] = 2
	return buf
}

func TestBN254AddIdentity(t *testing.T) {
	g := g1Generator()
	zero := make([]byte, 64)
	sum, err := BN254Add(g, zero)
	if err != nil {
		t.Fatalf("BN254Add: %v", err)
	}
	if !bytes.Equal(sum, g) {
		t.Fatalf("G + 0 != G: got %x", sum)
	}
}

func TestBN254AddRejectsOffCurvePoint(t *testing.T) {
	bogus := make([]byte, 64)
	bogus[31] = 1
	bogus[63] = 3 // (1,3) is not on y^2 = x^3+3
	if _, err := BN254Add(bogus, g1Generator()); err == nil {
		t.Fatalf("BN254Add accepted an off-curve point")
	}
}

func TestBN254ScalarMulByOneIsIdentity(t *testing.T) {
	g := g1Generator()
	one := make([]byte, 32)
	one[31] = 1
	got, err := BN254ScalarMul(g, one)
	if err != nil {
		t.Fatalf("BN254ScalarMul: %v", err)
	}
	if !bytes.Equal(got, g) {
		t.Fatalf("1*G != G: got %x", got)
	}
}

func TestBN254ScalarMulByZeroIsInfinity(t *testing.T) {
	g := g1Generator()
	zero := make([]byte, 32)
	got, err := BN254ScalarMul(g, zero)
	if err != nil {
		t.Fatalf("BN254ScalarMul: %v", err)
	}
	if !bytes.Equal(got, make([]byte, 64)) {
		t.Fatalf("0*G != point at infinity: got %x", got)
	}
}

func TestBN254PairingEmptyInputSucceeds(t *testing.T) {
	ok, err := BN254Pairing(nil, nil)
	if err != nil {
		t.Fatalf("BN254Pairing(empty): %v", err)
	}
	if !ok {
		t.Fatalf("empty pairing product should be the identity")
	}
}

func TestBN254PairingMismatchedLengthErrors(t *testing.T) {
	_, err := BN254Pairing([][]byte{g1Generator()}, nil)
	if err == nil {
		t.Fatalf("BN254Pairing accepted mismatched G1/G2 slice lengths")
	}
}
