package core

import (
	"math/big"

	"github.com/ethlayer/coreeth/crypto"
	"github.com/ethlayer/coreeth/types"
)

// Message is a transaction flattened into the fields the EVM executor
// actually needs, with the sender already resolved from its signature.
type Message struct {
	From       types.Address
	To         *types.Address // nil for contract creation
	Nonce      uint64
	Value      *big.Int
	GasLimit   uint64
	GasPrice   *big.Int
	GasFeeCap  *big.Int
	GasTipCap  *big.Int
	Data       []byte
	AccessList types.AccessList
	BlobHashes []types.Hash
	TxType     byte
}

// TransactionToMessage recovers the transaction's sender (via its cached
// value if already set, otherwise by ECDSA recovery against signer) and
// flattens the transaction into a Message ready for execution.
func TransactionToMessage(tx *types.Transaction, signer crypto.Signer) (*Message, error) {
	msg := &Message{
		Nonce:      tx.Nonce(),
		GasLimit:   tx.Gas(),
		GasPrice:   tx.GasPrice(),
		GasFeeCap:  tx.GasFeeCap(),
		GasTipCap:  tx.GasTipCap(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
		BlobHashes: tx.BlobHashes(),
		TxType:     tx.Type(),
		To:         tx.To(),
	}
	if msg.Value = tx.Value(); msg.Value == nil {
		msg.Value = new(big.Int)
	} else {
		msg.Value = new(big.Int).Set(msg.Value)
	}

	if sender := tx.CachedSender(); sender != nil {
		msg.From = *sender
		return msg, nil
	}
	from, err := signer.Sender(tx)
	if err != nil {
		return nil, err
	}
	tx.SetSender(from)
	msg.From = from
	return msg, nil
}

// EffectiveGasPrice computes the actual per-gas price a message pays per
// EIP-1559: legacy messages pay GasPrice; dynamic-fee messages pay
// min(GasFeeCap, BaseFee+GasTipCap).
func (msg *Message) EffectiveGasPrice(baseFee *big.Int) *big.Int {
	if msg.GasFeeCap == nil || baseFee == nil || baseFee.Sign() <= 0 {
		if msg.GasPrice == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(msg.GasPrice)
	}
	tip := msg.GasTipCap
	if tip == nil {
		tip = new(big.Int)
	}
	price := new(big.Int).Add(baseFee, tip)
	if price.Cmp(msg.GasFeeCap) > 0 {
		price.Set(msg.GasFeeCap)
	}
	return price
}
