package types

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Account is the consensus representation of an account as stored in the
// account trie: keccak(address) -> rlp(Account). Storage lives in a
// separate per-account trie rooted at Root; code is content-addressed by
// CodeHash in the code store.
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     Hash // storage trie root
	CodeHash []byte
}

// EmptyCodeHash is keccak256 of the empty byte string, the CodeHash of an
// account with no code.
var EmptyCodeHash = keccak256Hash()

// EmptyRootHash is the root hash of an empty trie, keccak256(rlp("")) where
// rlp("") is the single byte 0x80.
var EmptyRootHash = keccak256Hash([]byte{0x80})

// keccak256Hash is a tiny local Keccak helper so that this package does not
// need to import the crypto package (which itself imports types), avoiding
// an import cycle.
func keccak256Hash(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

// NewEmptyAccount returns the zero-value account: nonce 0, balance 0, empty
// storage root, empty code hash.
func NewEmptyAccount() *Account {
	return &Account{
		Balance:  new(big.Int),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

// IsEmpty reports whether the account satisfies EIP-161's definition of an
// empty account: zero nonce, zero balance, and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.Sign() == 0) && codeHashEmpty(a.CodeHash)
}

func codeHashEmpty(h []byte) bool {
	if len(h) == 0 {
		return true
	}
	return BytesToHash(h) == EmptyCodeHash
}
