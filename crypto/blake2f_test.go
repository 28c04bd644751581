package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
)

// TestBlake2FKnownVector reproduces the canonical EIP-152 compression of
// BLAKE2b's "abc" test vector: 12 rounds over a single final block.
func TestBlake2FKnownVector(t *testing.T) {
	hHex := "48c9bdf267e6096a3ba7ca8485ae67bb2bf894fe72f36e3cf1361d5f3af54fa" +
		"5d182e6ad7f520e511f6c3e2b8c68059b6bbd41fbabd9831f79217e1319cde05b"
	mHex := "6162630000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000000000000000000000000000000000000000000000"
	wantHex := "ba80a53f981c4d0d6a2797b69f12f6e94c212f14685ac4b74b12bb6fdbffa2d" +
		"17d87c5392aab792dc252d5de4533cc9518d38aa8dbf1925ab92386edd4009923"

	hBytes, err := hex.DecodeString(hHex)
	if err != nil || len(hBytes) != 64 {
		t.Fatalf("bad test fixture h: %v", err)
	}
	mBytes, err := hex.DecodeString(mHex)
	if err != nil || len(mBytes) != 128 {
		t.Fatalf("bad test fixture m: %v", err)
	}

	var h [8]uint64
	for i := range h {
		h[i] = binary.LittleEndian.Uint64(hBytes[i*8 : i*8+8])
	}
	var m [16]uint64
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(mBytes[i*8 : i*8+8])
	}

	Blake2F(&h, m, [2]uint64{3, 0}, true, 12)

	out := make([]byte, 64)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], h[i])
	}
	got := hex.EncodeToString(out)
	if got != wantHex {
		t.Fatalf("Blake2F = %s, want %s", got, wantHex)
	}
}

func TestBlake2FZeroRoundsIsIdentity(t *testing.T) {
	h := [8]uint64{1, 2, 3, 4, 5, 6, 7, 8}
	orig := h
	var m [16]uint64
	Blake2F(&h, m, [2]uint64{0, 0}, false, 0)
	if h != xorIV(orig) {
		t.Fatalf("zero-round compression did not match the expected XOR-with-IV identity")
	}
}

// xorIV computes what Blake2F with rounds=0 must produce: h ^= v[:8] ^ v[8:]
// where v[:8]=h, v[8:]=IV (t,final both zero leaves v unmodified beyond the
// copy), so each output word is h[i] ^ h[i] ^ iv[i] == iv[i].
func xorIV(h [8]uint64) [8]uint64 {
	return blake2bIV
}
