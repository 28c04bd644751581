package types

import (
	"math/big"
	"sync/atomic"
)

// Transaction type identifiers, per EIP-2718's typed-envelope scheme.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01 // EIP-2930
	DynamicFeeTxType = 0x02 // EIP-1559
	BlobTxType       = 0x03 // EIP-4844
)

// BlobTxBlobGasPerBlob is the gas charged per versioned hash on a blob
// transaction (2**17), independent of the EIP-4844 blob base fee.
const BlobTxBlobGasPerBlob = 1 << 17

// TxData is the type-specific payload of a Transaction. Each concrete type
// (LegacyTx, AccessListTx, DynamicFeeTx, BlobTx) implements it; Transaction
// itself is a thin wrapper that also caches the hash and recovered sender.
type TxData interface {
	txType() byte
	chainID() *big.Int
	accessList() AccessList
	data() []byte
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	value() *big.Int
	nonce() uint64
	to() *Address
	rawSignatureValues() (v, r, s *big.Int)
	setSignatureValues(v, r, s *big.Int)
	copy() TxData
}

// Transaction is an immutable, typed Ethereum transaction. Use one of the
// NewXTx constructors (or decode one off the wire) rather than constructing
// the zero value.
type Transaction struct {
	inner TxData

	hash atomic.Pointer[Hash]
	from atomic.Pointer[Address]
}

func newTx(inner TxData) *Transaction {
	return &Transaction{inner: inner.copy()}
}

// NewLegacyTx wraps a LegacyTx.
func NewLegacyTx(inner *LegacyTx) *Transaction { return newTx(inner) }

// NewAccessListTx wraps an AccessListTx.
func NewAccessListTx(inner *AccessListTx) *Transaction { return newTx(inner) }

// NewDynamicFeeTx wraps a DynamicFeeTx.
func NewDynamicFeeTx(inner *DynamicFeeTx) *Transaction { return newTx(inner) }

// NewBlobTx wraps a BlobTx.
func NewBlobTx(inner *BlobTx) *Transaction { return newTx(inner) }

func (tx *Transaction) Type() byte             { return tx.inner.txType() }
func (tx *Transaction) ChainID() *big.Int      { return tx.inner.chainID() }
func (tx *Transaction) AccessList() AccessList { return tx.inner.accessList() }
func (tx *Transaction) Data() []byte           { return tx.inner.data() }
func (tx *Transaction) Gas() uint64            { return tx.inner.gas() }
func (tx *Transaction) GasPrice() *big.Int     { return tx.inner.gasPrice() }
func (tx *Transaction) GasTipCap() *big.Int    { return tx.inner.gasTipCap() }
func (tx *Transaction) GasFeeCap() *big.Int    { return tx.inner.gasFeeCap() }
func (tx *Transaction) Value() *big.Int        { return tx.inner.value() }
func (tx *Transaction) Nonce() uint64          { return tx.inner.nonce() }
func (tx *Transaction) To() *Address           { return tx.inner.to() }

// IsContractCreation reports whether the transaction has no recipient.
func (tx *Transaction) IsContractCreation() bool { return tx.inner.to() == nil }

// RawSignatureValues returns the transaction's (v, r, s) signature components.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.inner.rawSignatureValues()
}

// WithSignature returns a copy of tx carrying the given signature values.
func (tx *Transaction) WithSignature(v, r, s *big.Int) *Transaction {
	cpy := tx.inner.copy()
	cpy.setSignatureValues(v, r, s)
	return &Transaction{inner: cpy}
}

// BlobHashes returns the versioned hashes of a blob transaction's data blobs,
// or nil for any other type.
func (tx *Transaction) BlobHashes() []Hash {
	if b, ok := tx.inner.(*BlobTx); ok {
		return b.BlobHashes
	}
	return nil
}

// BlobGasFeeCap returns the max fee per blob gas of a blob transaction, or
// nil for any other type.
func (tx *Transaction) BlobGasFeeCap() *big.Int {
	if b, ok := tx.inner.(*BlobTx); ok {
		return b.BlobFeeCap
	}
	return nil
}

// BlobGas returns the blob gas a blob transaction's data consumes.
func (tx *Transaction) BlobGas() uint64 {
	if b, ok := tx.inner.(*BlobTx); ok {
		return uint64(len(b.BlobHashes)) * BlobTxBlobGasPerBlob
	}
	return 0
}

// EffectiveGasTip returns the miner tip per gas given a base fee: for
// dynamic-fee and blob transactions it is min(GasTipCap, GasFeeCap-baseFee);
// for legacy/access-list transactions GasPrice already includes the tip, so
// it is GasPrice-baseFee. Returns an error if the fee cap cannot cover the
// base fee.
func (tx *Transaction) EffectiveGasTip(baseFee *big.Int) (*big.Int, error) {
	if baseFee == nil {
		return new(big.Int).Set(tx.GasTipCap()), nil
	}
	feeCap := tx.GasFeeCap()
	if feeCap.Cmp(baseFee) < 0 {
		return nil, ErrFeeCapTooLow
	}
	tip := tx.GasTipCap()
	possibleTip := new(big.Int).Sub(feeCap, baseFee)
	if possibleTip.Cmp(tip) < 0 {
		return possibleTip, nil
	}
	return new(big.Int).Set(tip), nil
}

// ErrFeeCapTooLow is returned by EffectiveGasTip when a transaction's fee cap
// does not cover the supplied base fee.
var ErrFeeCapTooLow = txError("max fee per gas less than block base fee")

type txError string

func (e txError) Error() string { return string(e) }

// SetSender caches a previously-recovered sender address on the transaction
// so repeated lookups avoid re-running signature recovery.
func (tx *Transaction) SetSender(addr Address) { tx.from.Store(&addr) }

// CachedSender returns the sender address cached by a prior SetSender call,
// or nil if none has been set.
func (tx *Transaction) CachedSender() *Address { return tx.from.Load() }

// Hash returns the Keccak-256 hash of the transaction's canonical RLP
// encoding (the typed envelope for non-legacy transactions), caching the
// result since transactions are immutable once constructed.
func (tx *Transaction) Hash() Hash {
	if h := tx.hash.Load(); h != nil {
		return *h
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		return Hash{}
	}
	h := keccak256Hash(enc)
	tx.hash.Store(&h)
	return h
}

// EncodeIndex implements DerivableList for building the transactions trie:
// it returns the canonical RLP envelope of the tx at index i.
func (txs Transactions) EncodeIndex(i int) []byte {
	enc, _ := txs[i].EncodeRLP()
	return enc
}

// Transactions is an ordered list of transactions, e.g. a block body.
type Transactions []*Transaction

func (txs Transactions) Len() int { return len(txs) }

// LegacyTx is a pre-EIP-2718 transaction: no type byte, no access list, and
// (after EIP-155) a V value that encodes the chain ID.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *Address
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (tx *LegacyTx) txType() byte             { return LegacyTxType }
func (tx *LegacyTx) chainID() *big.Int        { return deriveChainID(tx.V) }
func (tx *LegacyTx) accessList() AccessList   { return nil }
func (tx *LegacyTx) data() []byte             { return tx.Data }
func (tx *LegacyTx) gas() uint64              { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int       { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *big.Int      { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *big.Int      { return tx.GasPrice }
func (tx *LegacyTx) value() *big.Int          { return tx.Value }
func (tx *LegacyTx) nonce() uint64            { return tx.Nonce }
func (tx *LegacyTx) to() *Address             { return tx.To }
func (tx *LegacyTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }
func (tx *LegacyTx) setSignatureValues(v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}
func (tx *LegacyTx) copy() TxData {
	return &LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: bigCopy(tx.GasPrice),
		Gas:      tx.Gas,
		To:       copyAddressPtr(tx.To),
		Value:    bigCopy(tx.Value),
		Data:     copyBytes(tx.Data),
		V:        bigCopy(tx.V),
		R:        bigCopy(tx.R),
		S:        bigCopy(tx.S),
	}
}

// AccessListTx is an EIP-2930 transaction: a legacy-shaped fee model plus a
// pre-declared access list and an explicit chain ID.
type AccessListTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         *Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *AccessListTx) txType() byte             { return AccessListTxType }
func (tx *AccessListTx) chainID() *big.Int        { return tx.ChainID }
func (tx *AccessListTx) accessList() AccessList   { return tx.AccessList }
func (tx *AccessListTx) data() []byte             { return tx.Data }
func (tx *AccessListTx) gas() uint64              { return tx.Gas }
func (tx *AccessListTx) gasPrice() *big.Int       { return tx.GasPrice }
func (tx *AccessListTx) gasTipCap() *big.Int      { return tx.GasPrice }
func (tx *AccessListTx) gasFeeCap() *big.Int      { return tx.GasPrice }
func (tx *AccessListTx) value() *big.Int          { return tx.Value }
func (tx *AccessListTx) nonce() uint64            { return tx.Nonce }
func (tx *AccessListTx) to() *Address             { return tx.To }
func (tx *AccessListTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }
func (tx *AccessListTx) setSignatureValues(v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}
func (tx *AccessListTx) copy() TxData {
	return &AccessListTx{
		ChainID:    bigCopy(tx.ChainID),
		Nonce:      tx.Nonce,
		GasPrice:   bigCopy(tx.GasPrice),
		Gas:        tx.Gas,
		To:         copyAddressPtr(tx.To),
		Value:      bigCopy(tx.Value),
		Data:       copyBytes(tx.Data),
		AccessList: copyAccessList(tx.AccessList),
		V:          bigCopy(tx.V),
		R:          bigCopy(tx.R),
		S:          bigCopy(tx.S),
	}
}

// DynamicFeeTx is an EIP-1559 transaction: the gas price is split into a
// priority fee (tip) and a fee cap, with the actual amount burned/tipped
// determined against the block's base fee at execution time.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *Address
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (tx *DynamicFeeTx) txType() byte             { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int        { return tx.ChainID }
func (tx *DynamicFeeTx) accessList() AccessList   { return tx.AccessList }
func (tx *DynamicFeeTx) data() []byte             { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64              { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *big.Int       { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int      { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int      { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *big.Int          { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64            { return tx.Nonce }
func (tx *DynamicFeeTx) to() *Address             { return tx.To }
func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }
func (tx *DynamicFeeTx) setSignatureValues(v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}
func (tx *DynamicFeeTx) copy() TxData {
	return &DynamicFeeTx{
		ChainID:    bigCopy(tx.ChainID),
		Nonce:      tx.Nonce,
		GasTipCap:  bigCopy(tx.GasTipCap),
		GasFeeCap:  bigCopy(tx.GasFeeCap),
		Gas:        tx.Gas,
		To:         copyAddressPtr(tx.To),
		Value:      bigCopy(tx.Value),
		Data:       copyBytes(tx.Data),
		AccessList: copyAccessList(tx.AccessList),
		V:          bigCopy(tx.V),
		R:          bigCopy(tx.R),
		S:          bigCopy(tx.S),
	}
}

// BlobTx is an EIP-4844 transaction. Its data blobs travel alongside the
// block in the network "sidecar" wrapper (out of scope for this module, see
// spec Non-goals); only the blob's versioned hashes are consensus-visible
// here, used by the KZG point-evaluation precompile and blob gas accounting.
type BlobTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         Address // blob transactions cannot create contracts
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	BlobFeeCap *big.Int
	BlobHashes []Hash
	V, R, S    *big.Int
}

func (tx *BlobTx) txType() byte             { return BlobTxType }
func (tx *BlobTx) chainID() *big.Int        { return tx.ChainID }
func (tx *BlobTx) accessList() AccessList   { return tx.AccessList }
func (tx *BlobTx) data() []byte             { return tx.Data }
func (tx *BlobTx) gas() uint64              { return tx.Gas }
func (tx *BlobTx) gasPrice() *big.Int       { return tx.GasFeeCap }
func (tx *BlobTx) gasTipCap() *big.Int      { return tx.GasTipCap }
func (tx *BlobTx) gasFeeCap() *big.Int      { return tx.GasFeeCap }
func (tx *BlobTx) value() *big.Int          { return tx.Value }
func (tx *BlobTx) nonce() uint64            { return tx.Nonce }
func (tx *BlobTx) to() *Address             { addr := tx.To; return &addr }
func (tx *BlobTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }
func (tx *BlobTx) setSignatureValues(v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}
func (tx *BlobTx) copy() TxData {
	return &BlobTx{
		ChainID:    bigCopy(tx.ChainID),
		Nonce:      tx.Nonce,
		GasTipCap:  bigCopy(tx.GasTipCap),
		GasFeeCap:  bigCopy(tx.GasFeeCap),
		Gas:        tx.Gas,
		To:         tx.To,
		Value:      bigCopy(tx.Value),
		Data:       copyBytes(tx.Data),
		AccessList: copyAccessList(tx.AccessList),
		BlobFeeCap: bigCopy(tx.BlobFeeCap),
		BlobHashes: append([]Hash(nil), tx.BlobHashes...),
		V:          bigCopy(tx.V),
		R:          bigCopy(tx.R),
		S:          bigCopy(tx.S),
	}
}

func bigCopy(i *big.Int) *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set(i)
}

func copyAddressPtr(a *Address) *Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// deriveChainID recovers the chain ID encoded into a legacy transaction's V
// value by EIP-155 (v = chainID*2+35 or chainID*2+36); pre-EIP-155
// transactions (v == 27 or 28) have no chain ID.
func deriveChainID(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	if v.BitLen() <= 8 {
		switch v.Uint64() {
		case 27, 28:
			return new(big.Int)
		}
	}
	chainID := new(big.Int).Sub(v, big.NewInt(35))
	return chainID.Rsh(chainID, 1)
}
