package crypto

import "testing"

func TestVerifyKZGProofBytesRejectsMalformedLengths(t *testing.T) {
	cases := []struct {
		name                           string
		commitment, z, y, proof []byte
	}{
		{"short commitment", make([]byte, 47), make([]byte, 32), make([]byte, 32), make([]byte, 48)},
		{"short proof", make([]byte, 48), make([]byte, 32), make([]byte, 32), make([]byte, 47)},
		{"short z", make([]byte, 48), make([]byte, 31), make([]byte, 32), make([]byte, 48)},
		{"short y", make([]byte, 48), make([]byte, 32), make([]byte, 31), make([]byte, 48)},
	}
	for _, c := range cases {
		if err := VerifyKZGProofBytes(c.commitment, c.z, c.y, c.proof); err == nil {
			t.Errorf("%s: expected a length-validation error", c.name)
		}
	}
}

func TestKZGToVersionedHashSetsVersionByte(t *testing.T) {
	commitment := make([]byte, 48)
	commitment[0] = 0xAB
	h := KZGToVersionedHash(commitment)
	if h[0] != VersionedHashVersionKZG {
		t.Fatalf("versioned hash byte 0 = 0x%02x, want 0x%02x", h[0], VersionedHashVersionKZG)
	}
}
