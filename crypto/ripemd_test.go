package crypto

import (
	"encoding/hex"
	"testing"
)

func TestRipemd160KnownVectors(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{"abc", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
	}
	for _, c := range cases {
		got := hex.EncodeToString(Ripemd160([]byte(c.in)))
		if got != c.want {
			t.Errorf("Ripemd160(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
