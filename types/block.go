package types

import (
	"math/big"

	"github.com/ethlayer/coreeth/rlp"
)

// TrieHasher is the minimal interface a trie implementation must satisfy to
// be used by DeriveSha for computing the transactions/receipts/withdrawals
// root of a block. It is defined here (rather than importing the trie
// package) so that types has no dependency on trie; trie.Trie satisfies
// it.
type TrieHasher interface {
	Reset()
	Update(key, value []byte) error
	Hash() Hash
}

// DerivableList is a list of RLP-encodable items keyed by their index.
type DerivableList interface {
	Len() int
	EncodeIndex(i int) []byte
}

// DeriveSha computes the root of the trie built from list, keyed by the
// RLP encoding of each item's index (per the Yellow Paper's definition of
// the transactions/receipts root).
func DeriveSha(list DerivableList, hasher TrieHasher) Hash {
	hasher.Reset()
	for i := 0; i < list.Len(); i++ {
		key, _ := rlp.EncodeToBytes(uint64(i))
		hasher.Update(key, list.EncodeIndex(i))
	}
	return hasher.Hash()
}

// Block bundles a header with its body (transactions, uncle headers, and
// since Shanghai, withdrawals). Blocks are immutable once constructed.
type Block struct {
	header       *Header
	transactions []*Transaction
	uncles       []*Header
	withdrawals  []*Withdrawal
}

// NewBlock assembles a block from a header template and body, computing the
// transactions/uncles/withdrawals roots and uncle hash into a copy of the
// header (the caller's header is not mutated). hasher is invoked (and
// Reset) for the transactions root when txs is non-empty and for the
// withdrawals root when withdrawals is non-nil; the uncle hash does not use
// it. The same *trie.Trie can serve both calls.
func NewBlock(header *Header, txs []*Transaction, uncles []*Header, withdrawals []*Withdrawal, hasher TrieHasher) *Block {
	b := &Block{header: header.Copy()}

	if len(txs) == 0 {
		b.header.TxHash = EmptyRootHash
	} else {
		b.header.TxHash = DeriveSha(Transactions(txs), hasher)
		b.transactions = append([]*Transaction(nil), txs...)
	}

	if len(uncles) == 0 {
		b.header.UncleHash = EmptyUncleHash
	} else {
		b.header.UncleHash = deriveUncleHash(uncles)
		b.uncles = make([]*Header, len(uncles))
		for i, u := range uncles {
			b.uncles[i] = u.Copy()
		}
	}

	if withdrawals != nil {
		root := DeriveSha(Withdrawals(withdrawals), hasher)
		b.header.WithdrawalsHash = &root
		b.withdrawals = append([]*Withdrawal(nil), withdrawals...)
	}

	return b
}

// NewBlockWithHeader wraps an already-fully-populated header with no body;
// used when reconstructing a block whose roots were already computed
// (e.g. decoded off the wire).
func NewBlockWithHeader(header *Header) *Block { return &Block{header: header.Copy()} }

func (b *Block) WithBody(txs []*Transaction, uncles []*Header, withdrawals []*Withdrawal) *Block {
	cpy := *b
	cpy.transactions = txs
	cpy.uncles = uncles
	cpy.withdrawals = withdrawals
	return &cpy
}

func (b *Block) Header() *Header               { return b.header.Copy() }
func (b *Block) Number() *big.Int              { return b.header.Number }
func (b *Block) NumberU64() uint64             { return b.header.Number.Uint64() }
func (b *Block) Hash() Hash                    { return b.header.Hash() }
func (b *Block) ParentHash() Hash              { return b.header.ParentHash }
func (b *Block) Root() Hash                    { return b.header.Root }
func (b *Block) Time() uint64                  { return b.header.Time }
func (b *Block) GasLimit() uint64              { return b.header.GasLimit }
func (b *Block) GasUsed() uint64               { return b.header.GasUsed }
func (b *Block) Coinbase() Address             { return b.header.Coinbase }
func (b *Block) Difficulty() *big.Int          { return b.header.Difficulty }
func (b *Block) BaseFee() *big.Int             { return b.header.BaseFee }
func (b *Block) Transactions() []*Transaction  { return b.transactions }
func (b *Block) Uncles() []*Header             { return b.uncles }
func (b *Block) Withdrawals() []*Withdrawal    { return b.withdrawals }
func (b *Block) Transaction(i int) *Transaction { return b.transactions[i] }

// deriveUncleHash computes keccak256(rlp(uncleHeaders)).
func deriveUncleHash(uncles []*Header) Hash {
	enc, err := EncodeUncleListRLP(uncles)
	if err != nil {
		return Hash{}
	}
	return keccak256Hash(enc)
}
