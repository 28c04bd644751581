package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestTransactionToMessageCachedSender(t *testing.T) {
	to := types.Address{2}
	tx := types.NewLegacyTx(&types.LegacyTx{
		Nonce:    7,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(5),
	})
	from := types.Address{1}
	tx.SetSender(from)

	msg, err := TransactionToMessage(tx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.From != from {
		t.Fatalf("expected cached sender to be used, got %x", msg.From)
	}
	if msg.Nonce != 7 || msg.GasLimit != 21000 {
		t.Fatalf("unexpected message fields: %+v", msg)
	}
	if msg.Value.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected value: %s", msg.Value)
	}
}

func TestEffectiveGasPriceLegacy(t *testing.T) {
	msg := &Message{GasPrice: big.NewInt(42)}
	if got := msg.EffectiveGasPrice(big.NewInt(10)); got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("legacy message should pay its flat gas price: got %s", got)
	}
}

func TestEffectiveGasPriceDynamicFeeCapped(t *testing.T) {
	msg := &Message{
		GasFeeCap: big.NewInt(100),
		GasTipCap: big.NewInt(50),
	}
	// baseFee + tip = 70 + 50 = 120 > feeCap(100), so the fee cap wins.
	got := msg.EffectiveGasPrice(big.NewInt(70))
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected fee cap to bound the price: got %s", got)
	}
}

func TestEffectiveGasPriceDynamicFeeUncapped(t *testing.T) {
	msg := &Message{
		GasFeeCap: big.NewInt(100),
		GasTipCap: big.NewInt(2),
	}
	// baseFee + tip = 10 + 2 = 12 < feeCap, so the tip-inclusive price wins.
	got := msg.EffectiveGasPrice(big.NewInt(10))
	if got.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("expected base fee + tip: got %s", got)
	}
}
