package crypto

import (
	"math/big"
	"testing"

	"github.com/ethlayer/coreeth/types"
)

func TestEIP155SignerRoundTrip(t *testing.T) {
	priv, _ := GenerateKey()
	from := PubkeyToAddress(priv.PubKey())

	to := types.HexToAddress("0x0000000000000000000000000000000000001234")
	tx := types.NewLegacyTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	})

	signer := NewEIP155Signer(1)
	sigHash := signer.Hash(tx)
	sig, err := Sign(sigHash[:], priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := new(big.Int).SetUint64(uint64(sig[64]) + 35 + 2*1)
	signed := tx.WithSignature(v, r, s)

	got, err := signer.Sender(signed)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if got != from {
		t.Fatalf("recovered sender = %s, want %s", got.Hex(), from.Hex())
	}
}

func TestEIP155SignerRejectsTypedTx(t *testing.T) {
	to := types.HexToAddress("0x0000000000000000000000000000000000001234")
	tx := types.NewDynamicFeeTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     0,
		To:        &to,
		Value:     big.NewInt(0),
		Gas:       21000,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(1),
	})
	signer := NewEIP155Signer(1)
	if _, err := signer.Sender(tx); err == nil {
		t.Fatalf("eip155Signer accepted a dynamic-fee transaction")
	}
}

func TestMakeSignerDispatchesByType(t *testing.T) {
	if _, ok := MakeSigner(1, types.LegacyTxType).(eip155Signer); !ok {
		t.Fatalf("MakeSigner(legacy) did not return eip155Signer")
	}
	if _, ok := MakeSigner(1, types.DynamicFeeTxType).(allTypesSigner); !ok {
		t.Fatalf("MakeSigner(dynamic fee) did not return allTypesSigner")
	}
}
