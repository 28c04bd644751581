package state

import (
	"math/big"

	"github.com/ethlayer/coreeth/types"
)

// stateObject is the in-memory representation of a single account: its
// consensus fields plus the two storage layers (committed, from the last
// Commit, and dirty, written since) that let GetCommittedState answer the
// SSTORE gas schedule's "original value" question without resolving the
// trie again.
type stateObject struct {
	account types.Account
	code    []byte

	committedStorage map[types.Hash]types.Hash
	dirtyStorage     map[types.Hash]types.Hash

	selfDestructed bool
	// created marks an account created since the last Commit, the condition
	// under which SELFDESTRUCT still deletes it once EIP-6780 applies. Commit
	// clears it, so it spans the whole block, not a single transaction.
	created bool
}

func newStateObject() *stateObject {
	return &stateObject{
		account:          types.Account{Balance: new(big.Int), CodeHash: types.EmptyCodeHash.Bytes()},
		committedStorage: make(map[types.Hash]types.Hash),
		dirtyStorage:     make(map[types.Hash]types.Hash),
	}
}
