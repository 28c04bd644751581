// Package rlp implements the Recursive Length Prefix encoding used for all
// consensus-critical serialization: header hashing, transaction signing and
// hashing, and the keys/values stored in the state and storage tries.
package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is found where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string or byte")

	// ErrExpectedList is returned when a string is found where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrCanonSize is returned when a single-byte string is encoded with a
	// multi-byte string header instead of as a bare byte.
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrNonCanonicalSize is returned when a long-form length prefix encodes
	// a size that would have fit in the short form.
	ErrNonCanonicalSize = errors.New("rlp: non-canonical size")

	// ErrCanonInt is returned when an integer's big-endian encoding carries
	// leading zero bytes.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrEOL is returned when a stream reader hits the end of a list scope
	// with unread input still ahead, or reads past its end.
	ErrEOL = errors.New("rlp: end of list")

	// ErrUint64Range is returned when a decoded integer exceeds 64 bits.
	ErrUint64Range = errors.New("rlp: uint64 overflow")

	// ErrValueTooLarge is returned for a Go value with no RLP representation.
	ErrValueTooLarge = errors.New("rlp: value too large or unsupported")

	// ErrNegativeBigInt is returned when asked to encode a negative big.Int;
	// RLP has no sign, negative integers are a caller bug.
	ErrNegativeBigInt = errors.New("rlp: cannot encode negative big.Int")
)
