package core

import (
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestIntrinsicGasPlainTransfer(t *testing.T) {
	if got := IntrinsicGas(nil, nil, false, false); got != TxGas {
		t.Fatalf("empty transfer should cost exactly TxGas: got %d, want %d", got, TxGas)
	}
}

func TestIntrinsicGasCalldata(t *testing.T) {
	data := []byte{0x00, 0x00, 0x01, 0x02}
	want := TxGas + 2*TxDataZeroGas + 2*TxDataNonZeroGas
	if got := IntrinsicGas(data, nil, false, false); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestIntrinsicGasContractCreation(t *testing.T) {
	if got := IntrinsicGas(nil, nil, true, false); got != TxGasContractCreation {
		t.Fatalf("got %d, want %d", got, TxGasContractCreation)
	}
}

func TestIntrinsicGasInitCodeWordCostShanghaiOnly(t *testing.T) {
	data := make([]byte, 64) // exactly 2 words
	pre := IntrinsicGas(data, nil, true, false)
	post := IntrinsicGas(data, nil, true, true)
	if post-pre != 2*uint64(2) { // 2 words * InitCodeWordGas(2)
		t.Fatalf("Shanghai init-code surcharge wrong: pre=%d, post=%d", pre, post)
	}
}

func TestIntrinsicGasAccessList(t *testing.T) {
	al := types.AccessList{
		{Address: types.Address{1}, StorageKeys: []types.Hash{{1}, {2}}},
	}
	want := TxGas + TxAccessListAddressGas + 2*TxAccessListStorageKeyGas
	if got := IntrinsicGas(nil, al, false, false); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
