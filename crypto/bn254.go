package crypto

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
)

// The alt_bn128 precompiles (addresses 0x06-0x08, EIP-196/EIP-197) operate on
// raw big-endian field elements rather than gnark-crypto's canonical
// compressed/uncompressed point encoding, so points are assembled field by
// field instead of via (Un)marshal.

var (
	errBN254InvalidPoint  = errors.New("bn254: point not on curve")
	errBN254InvalidScalar = errors.New("bn254: invalid scalar encoding")
)

// decodeG1 parses a 64-byte uncompressed G1 point (x, y each 32 bytes
// big-endian). The all-zero encoding is the point at infinity.
func decodeG1(buf []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(buf) != 64 {
		return p, errBN254InvalidPoint
	}
	if isAllZero(buf) {
		return p, nil // point at infinity
	}
	if err := setFp(&p.X, buf[:32]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y, buf[32:64]); err != nil {
		return p, err
	}
	if !p.IsOnCurve() {
		return p, errBN254InvalidPoint
	}
	return p, nil
}

// decodeG2 parses a 128-byte uncompressed G2 point. Per EIP-197 each
// coordinate is a degree-2 extension field element encoded as (imaginary,
// real) 32-byte halves, in the order cx1 || cx0 || cy1 || cy0.
func decodeG2(buf []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(buf) != 128 {
		return p, errBN254InvalidPoint
	}
	if isAllZero(buf) {
		return p, nil
	}
	if err := setFp(&p.X.A1, buf[0:32]); err != nil {
		return p, err
	}
	if err := setFp(&p.X.A0, buf[32:64]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y.A1, buf[64:96]); err != nil {
		return p, err
	}
	if err := setFp(&p.Y.A0, buf[96:128]); err != nil {
		return p, err
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return p, errBN254InvalidPoint
	}
	return p, nil
}

func setFp(e *fp.Element, buf []byte) error {
	if len(buf) != 32 {
		return errBN254InvalidScalar
	}
	v := new(big.Int).SetBytes(buf)
	if v.Cmp(fp.Modulus()) >= 0 {
		return errBN254InvalidScalar
	}
	e.SetBytes(buf)
	return nil
}

func encodeG1(p *bn254.G1Affine) []byte {
	out := make([]byte, 64)
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	copy(out[:32], xb[:])
	copy(out[32:], yb[:])
	return out
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// BN254Add computes the EC addition of two G1 points, each given as a
// 64-byte uncompressed encoding, returning the 64-byte sum.
func BN254Add(p1, p2 []byte) ([]byte, error) {
	a, err := decodeG1(p1)
	if err != nil {
		return nil, err
	}
	b, err := decodeG1(p2)
	if err != nil {
		return nil, err
	}
	var sum bn254.G1Jac
	var aJac, bJac bn254.G1Jac
	aJac.FromAffine(&a)
	bJac.FromAffine(&b)
	sum.Set(&aJac).AddAssign(&bJac)
	var res bn254.G1Affine
	res.FromJacobian(&sum)
	return encodeG1(&res), nil
}

// BN254ScalarMul computes scalar*p for a G1 point p given as a 64-byte
// uncompressed encoding and a 32-byte big-endian scalar.
func BN254ScalarMul(p []byte, scalar []byte) ([]byte, error) {
	a, err := decodeG1(p)
	if err != nil {
		return nil, err
	}
	if len(scalar) != 32 {
		return nil, errBN254InvalidScalar
	}
	s := new(big.Int).SetBytes(scalar)
	var res bn254.G1Affine
	res.ScalarMultiplication(&a, s)
	return encodeG1(&res), nil
}

// BN254Pairing checks whether the product of pairings e(g1_i, g2_i) over the
// given (G1, G2) pairs equals the identity in the target group. g1s holds
// the G1 (64-byte) and g2s the G2 (128-byte) encodings; the two slices
// must have the same length, and g1s[i] is paired with g2s[i].
func BN254Pairing(g1s [][]byte, g2s [][]byte) (bool, error) {
	if len(g1s) != len(g2s) {
		return false, errors.New("bn254: mismatched pairing input")
	}
	if len(g1s) == 0 {
		return true, nil
	}
	as := make([]bn254.G1Affine, len(g1s))
	bs := make([]bn254.G2Affine, len(g2s))
	for i := range g1s {
		a, err := decodeG1(g1s[i])
		if err != nil {
			return false, err
		}
		b, err := decodeG2(g2s[i])
		if err != nil {
			return false, err
		}
		as[i] = a
		bs[i] = b
	}
	result, err := bn254.Pair(as, bs)
	if err != nil {
		return false, err
	}
	return result.IsOne(), nil
}
