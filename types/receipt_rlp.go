package types

import (
	"errors"
	"fmt"

	"github.com/ethlayer/coreeth/rlp"
)

var errEmptyReceipt = errors.New("rlp: empty receipt encoding")

// receiptRLP is the consensus encoding of a receipt's payload, shared by the
// legacy (Type 0, PostState-or-Status) and post-EIP-2718 typed forms.
type receiptRLP struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []rlpLog
}

// EncodeRLP returns the receipt's canonical encoding: a bare RLP list for
// legacy (Type 0) receipts, or a type byte followed by an RLP list for
// typed receipts (EIP-2718), mirroring the typed-transaction envelope.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	enc := receiptRLP{
		PostStateOrStatus: r.postStateOrStatus(),
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              toRLPLogs(r.Logs),
	}
	payload, err := rlp.EncodeToBytes(enc)
	if err != nil {
		return nil, err
	}
	if r.Type == LegacyTxType {
		return payload, nil
	}
	out := make([]byte, 1+len(payload))
	out[0] = r.Type
	copy(out[1:], payload)
	return out, nil
}

// postStateOrStatus returns the pre-Byzantium intermediate state root if
// present, otherwise the post-Byzantium one-byte status.
func (r *Receipt) postStateOrStatus() []byte {
	if len(r.PostState) > 0 {
		return r.PostState
	}
	if r.Status == ReceiptStatusSuccessful {
		return []byte{0x01}
	}
	return []byte{}
}

// DecodeReceiptRLP decodes a receipt from its canonical encoding.
func DecodeReceiptRLP(data []byte) (*Receipt, error) {
	if len(data) == 0 {
		return nil, errEmptyReceipt
	}
	r := &Receipt{}
	if data[0] < 0xc0 {
		r.Type = data[0]
		data = data[1:]
	}
	var dec receiptRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	switch len(dec.PostStateOrStatus) {
	case 0:
		r.Status = ReceiptStatusFailed
	case 1:
		r.Status = uint64(dec.PostStateOrStatus[0])
	default:
		r.PostState = dec.PostStateOrStatus
	}
	r.CumulativeGasUsed = dec.CumulativeGasUsed
	r.Bloom = dec.Bloom
	r.Logs = fromRLPLogs(dec.Logs)
	return r, nil
}

func toRLPLogs(logs []*Log) []rlpLog {
	out := make([]rlpLog, len(logs))
	for i, l := range logs {
		out[i] = rlpLog{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return out
}

func fromRLPLogs(logs []rlpLog) []*Log {
	if logs == nil {
		return nil
	}
	out := make([]*Log, len(logs))
	for i, l := range logs {
		out[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return out
}

// rlpEncodeCreateTuple returns RLP([sender, nonce]), the preimage hashed to
// derive a CREATE contract address.
func rlpEncodeCreateTuple(sender Address, nonce uint64) []byte {
	enc, _ := rlp.EncodeToBytes(struct {
		Sender Address
		Nonce  uint64
	}{sender, nonce})
	return enc
}
