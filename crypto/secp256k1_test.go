package crypto

import (
	"bytes"
	"math/big"
	"testing"
)

func TestSignAndRecoverRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	hash := Keccak256([]byte("message to sign"))

	sig, err := Sign(hash, priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}
	if sig[64] > 1 {
		t.Fatalf("recovery id = %d, want 0 or 1", sig[64])
	}

	pub, err := SigToPub(hash, sig)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	gotAddr := PubkeyToAddress(pub)
	wantAddr := PubkeyToAddress(priv.PubKey())
	if gotAddr != wantAddr {
		t.Fatalf("recovered address = %s, want %s", gotAddr.Hex(), wantAddr.Hex())
	}
}

func TestEcrecoverMatchesSigToPub(t *testing.T) {
	priv, _ := GenerateKey()
	hash := Keccak256([]byte("another message"))
	sig, err := Sign(hash, priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	rawPub, err := Ecrecover(hash, sig)
	if err != nil {
		t.Fatalf("Ecrecover: %v", err)
	}
	pub, err := SigToPub(hash, sig)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	if !bytes.Equal(rawPub, pub.SerializeUncompressed()) {
		t.Fatalf("Ecrecover and SigToPub disagree")
	}
}

func TestValidateSignatureValuesRejectsHighS(t *testing.T) {
	r := big.NewInt(1)
	highS := new(big.Int).Sub(secp256k1N, big.NewInt(1))
	if ValidateSignatureValues(0, r, highS, true) {
		t.Fatalf("high-S signature accepted under Homestead rule")
	}
	if !ValidateSignatureValues(0, r, big.NewInt(1), true) {
		t.Fatalf("low-S signature rejected")
	}
}

func TestWrongHashLengthRejected(t *testing.T) {
	priv, _ := GenerateKey()
	if _, err := Sign([]byte("short"), priv); err == nil {
		t.Fatalf("Sign accepted a non-32-byte hash")
	}
}
