package types

import "github.com/ethlayer/coreeth/rlp"

// Withdrawal represents a validator withdrawal from the beacon chain,
// included in the execution block body since Shanghai (EIP-4895). The core
// only needs to credit the balance; it does not validate beacon-chain
// provenance (out of scope per spec.md §1).
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        Address
	Amount         uint64 // in Gwei
}

// Withdrawals is an ordered list of withdrawals, e.g. a block's withdrawal
// list.
type Withdrawals []*Withdrawal

func (ws Withdrawals) Len() int { return len(ws) }

// EncodeIndex implements DerivableList for building the withdrawals trie.
func (ws Withdrawals) EncodeIndex(i int) []byte {
	enc, _ := rlp.EncodeToBytes(ws[i])
	return enc
}
