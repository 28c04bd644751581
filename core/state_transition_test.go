package core

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/core/state"
	"github.com/ethlayer/coreeth/trie"
	"github.com/ethlayer/coreeth/types"
)

func newTestStateDB(t *testing.T) *state.StateDB {
	t.Helper()
	db := trie.NewNodeDatabase(trie.NewMemoryKVStore())
	sdb, err := state.New(types.Hash{}, db)
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return sdb
}

func legacyTxFrom(from, to types.Address, nonce uint64, value, gasPrice *big.Int, gas uint64) *types.Transaction {
	tx := types.NewLegacyTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
	})
	tx.SetSender(from)
	return tx
}

func TestApplyTransactionValueTransfer(t *testing.T) {
	sdb := newTestStateDB(t)
	from := types.Address{1}
	to := types.Address{2}
	sdb.CreateAccount(from)
	sdb.AddBalance(from, big.NewInt(1_000_000_000_000))

	header := &types.Header{
		Number:   big.NewInt(1),
		GasLimit: 30_000_000,
		BaseFee:  big.NewInt(0),
		Coinbase: types.Address{9},
	}
	tx := legacyTxFrom(from, to, 0, big.NewInt(100), big.NewInt(1), 21000)
	gp := new(GasPool).AddGas(header.GasLimit)

	receipt, usedGas, err := ApplyTransaction(TestConfig, nil, sdb, header, tx, gp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Fatalf("expected success, got status %d", receipt.Status)
	}
	if usedGas != TxGas {
		t.Fatalf("plain transfer should cost exactly TxGas: got %d", usedGas)
	}
	if got := sdb.GetBalance(to); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("recipient balance wrong: got %s", got)
	}
	if got := sdb.GetNonce(from); got != 1 {
		t.Fatalf("sender nonce should increment: got %d", got)
	}
}

func TestApplyTransactionNonceTooLow(t *testing.T) {
	sdb := newTestStateDB(t)
	from := types.Address{1}
	to := types.Address{2}
	sdb.CreateAccount(from)
	sdb.AddBalance(from, big.NewInt(1_000_000_000_000))
	sdb.SetNonce(from, 5)

	header := &types.Header{Number: big.NewInt(1), GasLimit: 30_000_000, BaseFee: big.NewInt(0), Coinbase: types.Address{9}}
	tx := legacyTxFrom(from, to, 1, big.NewInt(0), big.NewInt(1), 21000)
	gp := new(GasPool).AddGas(header.GasLimit)

	if _, _, err := ApplyTransaction(TestConfig, nil, sdb, header, tx, gp); err == nil {
		t.Fatal("expected nonce-too-low error")
	}
}

func TestApplyTransactionInsufficientBalance(t *testing.T) {
	sdb := newTestStateDB(t)
	from := types.Address{1}
	to := types.Address{2}
	sdb.CreateAccount(from)
	sdb.AddBalance(from, big.NewInt(100))

	header := &types.Header{Number: big.NewInt(1), GasLimit: 30_000_000, BaseFee: big.NewInt(0), Coinbase: types.Address{9}}
	tx := legacyTxFrom(from, to, 0, big.NewInt(0), big.NewInt(1), 21000)
	gp := new(GasPool).AddGas(header.GasLimit)

	if _, _, err := ApplyTransaction(TestConfig, nil, sdb, header, tx, gp); err == nil {
		t.Fatal("expected insufficient balance error")
	}
}

func TestApplyTransactionSenderNotEOA(t *testing.T) {
	sdb := newTestStateDB(t)
	from := types.Address{1}
	to := types.Address{2}
	sdb.CreateAccount(from)
	sdb.AddBalance(from, big.NewInt(1_000_000_000_000))
	sdb.SetCode(from, []byte{0x60, 0x00})

	header := &types.Header{Number: big.NewInt(1), GasLimit: 30_000_000, BaseFee: big.NewInt(0), Coinbase: types.Address{9}}
	tx := legacyTxFrom(from, to, 0, big.NewInt(0), big.NewInt(1), 21000)
	gp := new(GasPool).AddGas(header.GasLimit)

	if _, _, err := ApplyTransaction(TestConfig, nil, sdb, header, tx, gp); err == nil {
		t.Fatal("expected sender-not-EOA error")
	}
}

func TestValidateTransactionFeeCapTooLow(t *testing.T) {
	sdb := newTestStateDB(t)
	from := types.Address{1}
	to := types.Address{2}
	sdb.CreateAccount(from)
	sdb.AddBalance(from, big.NewInt(1_000_000_000_000))

	header := &types.Header{Number: big.NewInt(1), GasLimit: 30_000_000, BaseFee: big.NewInt(1000), Coinbase: types.Address{9}}
	tx := types.NewDynamicFeeTx(&types.DynamicFeeTx{
		ChainID:   TestConfig.ChainID,
		Nonce:     0,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(10), // below base fee
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
	})
	tx.SetSender(from)

	if err := ValidateTransaction(tx, sdb, header, TestConfig, nil); err == nil {
		t.Fatal("expected fee-cap-too-low error")
	}
}

func TestTxCostIncludesValueAndGas(t *testing.T) {
	to := types.Address{2}
	tx := legacyTxFrom(types.Address{1}, to, 0, big.NewInt(100), big.NewInt(5), 21000)
	want := new(big.Int).Add(big.NewInt(100), big.NewInt(5*21000))
	if got := TxCost(tx, nil); got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestProcessWithdrawalsCreditsBalance(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := types.Address{3}
	ProcessWithdrawals(sdb, []*types.Withdrawal{{Address: addr, Amount: 5}})
	want := new(big.Int).Mul(big.NewInt(5), big.NewInt(1_000_000_000))
	if got := sdb.GetBalance(addr); got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got, want)
	}
}
