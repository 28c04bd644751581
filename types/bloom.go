package types

import "golang.org/x/crypto/sha3"

// BytesToBloom converts a byte slice to a Bloom, left-padding/truncating to
// exactly 256 bytes.
func BytesToBloom(b []byte) Bloom {
	var bloom Bloom
	bloom.SetBytes(b)
	return bloom
}

func (b Bloom) Bytes() []byte {
	out := make([]byte, BloomLength)
	copy(out, b[:])
	return out
}

// SetBytes sets the bloom filter from a byte slice, left-padding if shorter
// than 256 bytes or truncating from the left if longer.
func (b *Bloom) SetBytes(data []byte) {
	*b = Bloom{}
	if len(data) > BloomLength {
		data = data[len(data)-BloomLength:]
	}
	copy(b[BloomLength-len(data):], data)
}

// Add inserts data (an address or a log topic) into the bloom filter by
// setting 3 bit positions derived from Keccak256(data), per the Yellow Paper.
func (b *Bloom) Add(data []byte) {
	idx, mask := bloomBits(data)
	for i := 0; i < 3; i++ {
		b[idx[i]] |= mask[i]
	}
}

// Test reports whether data might be present in the bloom filter. It may
// return a false positive but never a false negative.
func (b Bloom) Test(data []byte) bool {
	idx, mask := bloomBits(data)
	for i := 0; i < 3; i++ {
		if b[idx[i]]&mask[i] != mask[i] {
			return false
		}
	}
	return true
}

// Or performs a bitwise OR of the receiver with another bloom filter,
// storing the result in the receiver. Used to aggregate per-log blooms
// into the per-receipt and per-block bloom.
func (b *Bloom) Or(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

// bloomBits computes the 3 (byteIndex, bitMask) pairs for data, using the
// low 11 bits of 3 non-overlapping 16-bit windows of Keccak256(data).
func bloomBits(data []byte) (idx [3]int, mask [3]byte) {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	hash := d.Sum(nil)
	for i := 0; i < 3; i++ {
		bit := (uint(hash[2*i])<<8 | uint(hash[2*i+1])) & 0x7ff
		idx[i] = BloomLength - 1 - int(bit/8)
		mask[i] = byte(1) << (bit % 8)
	}
	return
}

// CreateBloom builds the bloom filter for a slice of logs by OR-ing each
// log's address and topics into a fresh filter.
func CreateBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, log := range logs {
		bloom.Add(log.Address.Bytes())
		for _, topic := range log.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}
