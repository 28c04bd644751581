package crypto

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethlayer/coreeth/types"
)

// secp256k1N is the order of the secp256k1 base point, used to validate
// signature components and to implement the Homestead low-S rule.
var secp256k1N = secp256k1.S256().N

var secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

var (
	errInvalidHashLen = errors.New("crypto: hash must be 32 bytes")
	errInvalidSigLen  = errors.New("crypto: signature must be 65 bytes [R || S || V]")
)

// PrivateKey is a secp256k1 signing key.
type PrivateKey = secp256k1.PrivateKey

// PublicKey is a secp256k1 public key.
type PublicKey = secp256k1.PublicKey

// GenerateKey returns a fresh secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// ToECDSA parses a 32-byte big-endian scalar as a private key.
func ToECDSA(d []byte) (*PrivateKey, error) {
	if len(d) != 32 {
		return nil, errors.New("crypto: invalid private key length")
	}
	priv := secp256k1.PrivKeyFromBytes(d)
	return priv, nil
}

// Sign produces a 65-byte recoverable signature [R || S || V] (V in {0,1})
// over a 32-byte hash, the format used for transaction signatures and for
// the ECRECOVER precompile.
func Sign(hash []byte, priv *PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errInvalidHashLen
	}
	compact := ecdsa.SignCompact(priv, hash, false)
	sig := make([]byte, 65)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// Ecrecover recovers the 65-byte uncompressed public key (0x04 || X || Y)
// that produced sig over hash.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the public key from hash and a 65-byte [R || S || V]
// signature.
func SigToPub(hash, sig []byte) (*PublicKey, error) {
	if len(hash) != 32 {
		return nil, errInvalidHashLen
	}
	if len(sig) != 65 {
		return nil, errInvalidSigLen
	}
	if sig[64] > 1 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// ValidateSignatureValues checks r, s, v for well-formedness. Homestead
// (EIP-2) additionally requires s to lie in the lower half of the curve
// order to reject signature malleability.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil || v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1HalfN) > 0 {
		return false
	}
	return true
}

// PubkeyToAddress derives the Ethereum address of a public key:
// Keccak256(X || Y)[12:], X and Y each 32 bytes big-endian.
func PubkeyToAddress(pub *PublicKey) types.Address {
	raw := pub.SerializeUncompressed()
	hash := Keccak256(raw[1:])
	return types.BytesToAddress(hash[12:])
}
