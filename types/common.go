// Package types defines the core Ethereum data structures shared by the
// state, trie, vm and core packages: addresses, hashes, headers, logs,
// receipts, transactions and accounts.
package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
	NonceLength   = 8
)

// Hash represents the 32-byte Keccak256 hash of data.
type Hash [HashLength]byte

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// Bloom represents a 2048-bit bloom filter over log addresses/topics.
type Bloom [BloomLength]byte

// BlockNonce is the 8-byte block nonce (legacy PoW; zero post-Paris).
type BlockNonce [NonceLength]byte

func fromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes
// and truncating from the left if longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

// BigToHash converts a big.Int to Hash (big-endian, left-padded).
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }

func (h Hash) Bytes() []byte   { return h[:] }
func (h Hash) Big() *big.Int   { return new(big.Int).SetBytes(h[:]) }
func (h Hash) Hex() string     { return fmt.Sprintf("0x%x", h[:]) }
func (h Hash) String() string  { return h.Hex() }
func (h Hash) IsZero() bool    { return h == Hash{} }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// BytesToAddress converts bytes to Address, left-padding/truncating to 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address.
func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

// BigToAddress converts a big.Int to Address.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Big() *big.Int  { return new(big.Int).SetBytes(a[:]) }
func (a Address) Hex() string    { return fmt.Sprintf("0x%x", a[:]) }
func (a Address) String() string { return a.Hex() }
func (a Address) IsZero() bool   { return a == Address{} }

// SetBytes sets the address from a byte slice, left-padding if necessary.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Hash returns the Hash representation of an address, zero-padded on the left.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

func BytesToBlockNonce(b []byte) BlockNonce {
	var n BlockNonce
	copy(n[NonceLength-len(b):], b)
	return n
}

func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	for idx := 0; idx < NonceLength; idx++ {
		n[NonceLength-1-idx] = byte(i >> (8 * idx))
	}
	return n
}

func (n BlockNonce) Uint64() uint64 {
	var v uint64
	for _, b := range n {
		v = v<<8 | uint64(b)
	}
	return v
}

func (n BlockNonce) Bytes() []byte { return n[:] }
