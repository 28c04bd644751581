package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethlayer/coreeth/rlp"
)

var (
	errUnknownTxType  = errors.New("rlp: unknown transaction type")
	errEmptyTypedTx   = errors.New("rlp: empty typed transaction payload")
	errEmptyTx        = errors.New("rlp: empty transaction encoding")
)

// legacyTxRLP mirrors LegacyTx's consensus field order.
type legacyTxRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       []byte
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

type accessTupleRLP struct {
	Address     Address
	StorageKeys []Hash
}

type accessListTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         []byte
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V, R, S    *big.Int
}

type dynamicFeeTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         []byte
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	V, R, S    *big.Int
}

type blobTxRLP struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         Address
	Value      *big.Int
	Data       []byte
	AccessList []accessTupleRLP
	BlobFeeCap *big.Int
	BlobHashes []Hash
	V, R, S    *big.Int
}

// EncodeRLP returns the transaction's canonical network/consensus encoding:
// a bare RLP list for legacy transactions, or a type byte followed by an
// RLP list for every typed transaction (EIP-2718).
func (tx *Transaction) EncodeRLP() ([]byte, error) {
	switch inner := tx.inner.(type) {
	case *LegacyTx:
		enc := legacyTxRLP{
			Nonce: inner.Nonce, GasPrice: orZero(inner.GasPrice), Gas: inner.Gas,
			To: addrBytes(inner.To), Value: orZero(inner.Value), Data: inner.Data,
			V: orZero(inner.V), R: orZero(inner.R), S: orZero(inner.S),
		}
		return rlp.EncodeToBytes(enc)

	case *AccessListTx:
		enc := accessListTxRLP{
			ChainID: orZero(inner.ChainID), Nonce: inner.Nonce, GasPrice: orZero(inner.GasPrice),
			Gas: inner.Gas, To: addrBytes(inner.To), Value: orZero(inner.Value), Data: inner.Data,
			AccessList: toTupleRLP(inner.AccessList),
			V:          orZero(inner.V), R: orZero(inner.R), S: orZero(inner.S),
		}
		return prependType(AccessListTxType, enc)

	case *DynamicFeeTx:
		enc := dynamicFeeTxRLP{
			ChainID: orZero(inner.ChainID), Nonce: inner.Nonce, GasTipCap: orZero(inner.GasTipCap),
			GasFeeCap: orZero(inner.GasFeeCap), Gas: inner.Gas, To: addrBytes(inner.To),
			Value: orZero(inner.Value), Data: inner.Data, AccessList: toTupleRLP(inner.AccessList),
			V: orZero(inner.V), R: orZero(inner.R), S: orZero(inner.S),
		}
		return prependType(DynamicFeeTxType, enc)

	case *BlobTx:
		enc := blobTxRLP{
			ChainID: orZero(inner.ChainID), Nonce: inner.Nonce, GasTipCap: orZero(inner.GasTipCap),
			GasFeeCap: orZero(inner.GasFeeCap), Gas: inner.Gas, To: inner.To,
			Value: orZero(inner.Value), Data: inner.Data, AccessList: toTupleRLP(inner.AccessList),
			BlobFeeCap: orZero(inner.BlobFeeCap), BlobHashes: inner.BlobHashes,
			V: orZero(inner.V), R: orZero(inner.R), S: orZero(inner.S),
		}
		return prependType(BlobTxType, enc)

	default:
		return nil, errUnknownTxType
	}
}

func prependType(txType byte, enc interface{}) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(enc)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(payload))
	out[0] = txType
	copy(out[1:], payload)
	return out, nil
}

// DecodeTxRLP decodes a transaction from its canonical encoding: a type
// byte followed by an RLP list for typed transactions (the first byte is in
// [0x01, 0x7f]), or a bare RLP list for legacy transactions (first byte
// >= 0xc0).
func DecodeTxRLP(data []byte) (*Transaction, error) {
	if len(data) == 0 {
		return nil, errEmptyTx
	}
	if data[0] >= 0xc0 {
		var dec legacyTxRLP
		if err := rlp.DecodeBytes(data, &dec); err != nil {
			return nil, fmt.Errorf("decode legacy tx: %w", err)
		}
		return newTx(&LegacyTx{
			Nonce: dec.Nonce, GasPrice: dec.GasPrice, Gas: dec.Gas, To: bytesAddr(dec.To),
			Value: dec.Value, Data: dec.Data, V: dec.V, R: dec.R, S: dec.S,
		}), nil
	}
	if len(data) < 2 {
		return nil, errEmptyTypedTx
	}
	payload := data[1:]
	switch data[0] {
	case AccessListTxType:
		var dec accessListTxRLP
		if err := rlp.DecodeBytes(payload, &dec); err != nil {
			return nil, fmt.Errorf("decode access list tx: %w", err)
		}
		return newTx(&AccessListTx{
			ChainID: dec.ChainID, Nonce: dec.Nonce, GasPrice: dec.GasPrice, Gas: dec.Gas,
			To: bytesAddr(dec.To), Value: dec.Value, Data: dec.Data,
			AccessList: fromTupleRLP(dec.AccessList), V: dec.V, R: dec.R, S: dec.S,
		}), nil

	case DynamicFeeTxType:
		var dec dynamicFeeTxRLP
		if err := rlp.DecodeBytes(payload, &dec); err != nil {
			return nil, fmt.Errorf("decode dynamic fee tx: %w", err)
		}
		return newTx(&DynamicFeeTx{
			ChainID: dec.ChainID, Nonce: dec.Nonce, GasTipCap: dec.GasTipCap, GasFeeCap: dec.GasFeeCap,
			Gas: dec.Gas, To: bytesAddr(dec.To), Value: dec.Value, Data: dec.Data,
			AccessList: fromTupleRLP(dec.AccessList), V: dec.V, R: dec.R, S: dec.S,
		}), nil

	case BlobTxType:
		var dec blobTxRLP
		if err := rlp.DecodeBytes(payload, &dec); err != nil {
			return nil, fmt.Errorf("decode blob tx: %w", err)
		}
		return newTx(&BlobTx{
			ChainID: dec.ChainID, Nonce: dec.Nonce, GasTipCap: dec.GasTipCap, GasFeeCap: dec.GasFeeCap,
			Gas: dec.Gas, To: dec.To, Value: dec.Value, Data: dec.Data,
			AccessList: fromTupleRLP(dec.AccessList), BlobFeeCap: dec.BlobFeeCap, BlobHashes: dec.BlobHashes,
			V: dec.V, R: dec.R, S: dec.S,
		}), nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", errUnknownTxType, data[0])
	}
}

func toTupleRLP(al AccessList) []accessTupleRLP {
	if al == nil {
		return nil
	}
	out := make([]accessTupleRLP, len(al))
	for i, t := range al {
		out[i] = accessTupleRLP{Address: t.Address, StorageKeys: t.StorageKeys}
	}
	return out
}

func fromTupleRLP(al []accessTupleRLP) AccessList {
	if al == nil {
		return nil
	}
	out := make(AccessList, len(al))
	for i, t := range al {
		out[i] = AccessTuple{Address: t.Address, StorageKeys: t.StorageKeys}
	}
	return out
}

func addrBytes(a *Address) []byte {
	if a == nil {
		return nil
	}
	return a[:]
}

func bytesAddr(b []byte) *Address {
	if len(b) == 0 {
		return nil
	}
	a := BytesToAddress(b)
	return &a
}

func orZero(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return i
}

// SigningHash returns the hash that a signer signs to authorize tx: the
// same encoding as EncodeRLP but with the V/R/S fields omitted (and, for
// post-EIP-155 legacy transactions, the chain ID and two empty fields
// appended in their place).
func (tx *Transaction) SigningHash() Hash {
	switch t := tx.inner.(type) {
	case *LegacyTx:
		return signingHashLegacy(t)
	case *AccessListTx:
		payload := unsignedFields(orZero(t.ChainID), t.Nonce, orZero(t.GasPrice), t.Gas, addrBytesOrEmpty(t.To), orZero(t.Value), t.Data)
		payload = append(payload, accessListPayload(t.AccessList)...)
		return typedSigningHash(AccessListTxType, payload)
	case *DynamicFeeTx:
		payload := unsignedFields(orZero(t.ChainID), t.Nonce, orZero(t.GasTipCap), orZero(t.GasFeeCap), t.Gas, addrBytesOrEmpty(t.To), orZero(t.Value), t.Data)
		payload = append(payload, accessListPayload(t.AccessList)...)
		return typedSigningHash(DynamicFeeTxType, payload)
	case *BlobTx:
		payload := unsignedFields(orZero(t.ChainID), t.Nonce, orZero(t.GasTipCap), orZero(t.GasFeeCap), t.Gas, t.To[:], orZero(t.Value), t.Data)
		payload = append(payload, accessListPayload(t.AccessList)...)
		feeCap, _ := rlp.EncodeToBytes(orZero(t.BlobFeeCap))
		payload = append(payload, feeCap...)
		payload = append(payload, hashListPayload(t.BlobHashes)...)
		return typedSigningHash(BlobTxType, payload)
	default:
		return Hash{}
	}
}

func signingHashLegacy(tx *LegacyTx) Hash {
	chainID := deriveChainID(tx.V)
	fields := unsignedFields(tx.Nonce, orZero(tx.GasPrice), tx.Gas, addrBytesOrEmpty(tx.To), orZero(tx.Value), tx.Data)
	if chainID.Sign() > 0 {
		fields = append(fields, unsignedFields(chainID, uint64(0), uint64(0))...)
	}
	return keccak256Hash(rlp.WrapList(fields))
}

func unsignedFields(vals ...interface{}) []byte {
	var payload []byte
	for _, v := range vals {
		b, _ := rlp.EncodeToBytes(v)
		payload = append(payload, b...)
	}
	return payload
}

func typedSigningHash(txType byte, payload []byte) Hash {
	full := append([]byte{txType}, rlp.WrapList(payload)...)
	return keccak256Hash(full)
}

func accessListPayload(al AccessList) []byte {
	var inner []byte
	for _, tuple := range al {
		addrEnc, _ := rlp.EncodeToBytes(tuple.Address[:])
		item := append(addrEnc, hashListPayload(tuple.StorageKeys)...)
		inner = append(inner, rlp.WrapList(item)...)
	}
	return rlp.WrapList(inner)
}

func hashListPayload(hashes []Hash) []byte {
	var inner []byte
	for _, h := range hashes {
		enc, _ := rlp.EncodeToBytes(h[:])
		inner = append(inner, enc...)
	}
	return rlp.WrapList(inner)
}

func addrBytesOrEmpty(a *Address) []byte {
	if a == nil {
		return []byte{}
	}
	return a[:]
}
