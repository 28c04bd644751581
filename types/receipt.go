package types

import "math/big"

// Receipt status values, set by the post-Byzantium consensus field (EIP-658);
// pre-Byzantium receipts carry an intermediate state root instead.
const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt records the outcome of executing a single transaction within a
// block. Its Type/PostStateOrStatus/CumulativeGasUsed/Bloom/Logs fields are
// consensus-critical (they feed the block's receipts root); the rest are
// derived convenience fields a node fills in after processing.
type Receipt struct {
	// Consensus fields.
	Type              byte
	PostState         []byte // pre-Byzantium only; nil afterwards
	Status            uint64 // post-Byzantium only
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log

	// Derived fields, not part of the consensus encoding.
	TxHash            Hash
	ContractAddress   Address
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	BlobGasUsed       uint64
	BlobGasPrice      *big.Int
	BlockHash         Hash
	BlockNumber       *big.Int
	TransactionIndex  uint
}

// NewReceipt creates a post-Byzantium receipt with the given status and
// cumulative gas used; its Logs/Bloom are filled in by the caller.
func NewReceipt(status uint64, cumulativeGasUsed uint64) *Receipt {
	return &Receipt{Status: status, CumulativeGasUsed: cumulativeGasUsed}
}

// Succeeded reports whether the receipt's post-Byzantium status field is 1.
func (r *Receipt) Succeeded() bool { return r.Status == ReceiptStatusSuccessful }

// Receipts is an ordered list of receipts, e.g. a block's receipt list.
type Receipts []*Receipt

func (rs Receipts) Len() int { return len(rs) }

// EncodeIndex implements DerivableList for building the receipts trie.
func (rs Receipts) EncodeIndex(i int) []byte {
	enc, _ := rs[i].EncodeRLP()
	return enc
}

// DeriveFields fills in every receipt's derived fields (TxHash, block
// context, per-log indices) once its position in the block is known.
func DeriveFields(receipts Receipts, blockHash Hash, blockNumber uint64, txs Transactions) {
	var logIndex uint
	for i, r := range receipts {
		r.BlockHash = blockHash
		r.BlockNumber = new(big.Int).SetUint64(blockNumber)
		r.TransactionIndex = uint(i)
		if i < len(txs) {
			r.TxHash = txs[i].Hash()
			if txs[i].IsContractCreation() {
				if sender := txs[i].CachedSender(); sender != nil {
					r.ContractAddress = CreateAddress(*sender, txs[i].Nonce())
				}
			}
		}
		for _, l := range r.Logs {
			l.BlockHash = blockHash
			l.BlockNumber = blockNumber
			l.TxIndex = uint(i)
			l.Index = logIndex
			if i < len(txs) {
				l.TxHash = txs[i].Hash()
			}
			logIndex++
		}
	}
}

// CreateAddress computes the address of a contract created via CREATE:
// the low 20 bytes of keccak256(rlp([sender, nonce])).
func CreateAddress(sender Address, nonce uint64) Address {
	enc := rlpEncodeCreateTuple(sender, nonce)
	h := keccak256Hash(enc)
	var a Address
	copy(a[:], h[12:])
	return a
}
