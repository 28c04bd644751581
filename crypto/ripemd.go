package crypto

import "golang.org/x/crypto/ripemd160"

// Ripemd160 returns the RIPEMD-160 digest of data, used by the precompile at
// address 0x03.
func Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}
