// Package crypto supplies every hash and signature primitive the execution
// layer needs: Keccak-256 (the hash used throughout consensus encoding,
// distinct from NIST SHA3), secp256k1 transaction signing and recovery, and
// the precompiled-contract primitives (RIPEMD-160, alt_bn128 pairing,
// BLAKE2b compression, KZG point evaluation).
package crypto

import (
	"github.com/ethlayer/coreeth/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 wrapped as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}

// Keccak512 returns the Keccak-512 digest of the concatenation of data.
// The EVM's KECCAK256 opcode only ever uses Keccak256; this is exposed for
// callers needing the wider digest (e.g. key derivation).
func Keccak512(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak512()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
