package types

import (
	"github.com/ethlayer/coreeth/rlp"
)

// EncodeHeaderRLP returns the RLP encoding of h in Yellow Paper field order.
// The 15 Frontier-era fields are always present; BaseFee (London),
// WithdrawalsHash (Shanghai), BlobGasUsed/ExcessBlobGas (Cancun data-gas
// accounting) and ParentBeaconBlockRoot (Cancun beacon root) are appended
// only when h carries them, so a pre-fork header's hash is unaffected by
// fields it predates.
func EncodeHeaderRLP(h *Header) ([]byte, error) {
	items := []interface{}{
		h.ParentHash, h.UncleHash, h.Coinbase, h.Root, h.TxHash, h.ReceiptHash, h.Bloom,
		orZero(h.Difficulty), orZero(h.Number), h.GasLimit, h.GasUsed, h.Time, h.Extra,
		h.MixDigest, h.Nonce,
	}
	if h.BaseFee != nil {
		items = append(items, h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		items = append(items, *h.WithdrawalsHash)
	}
	if h.BlobGasUsed != nil {
		items = append(items, *h.BlobGasUsed)
	}
	if h.ExcessBlobGas != nil {
		items = append(items, *h.ExcessBlobGas)
	}
	if h.ParentBeaconBlockRoot != nil {
		items = append(items, *h.ParentBeaconBlockRoot)
	}
	return encodeRLPItems(items)
}

func encodeRLPItems(items []interface{}) ([]byte, error) {
	var payload []byte
	for _, item := range items {
		enc, err := rlp.EncodeToBytes(item)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return rlp.WrapList(payload), nil
}

// EncodeUncleListRLP RLP-encodes a list of uncle headers as a single list
// value, used to derive a block's UncleHash.
func EncodeUncleListRLP(uncles []*Header) ([]byte, error) {
	var payload []byte
	for _, u := range uncles {
		enc, err := EncodeHeaderRLP(u)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return rlp.WrapList(payload), nil
}
