package vm

import "github.com/holiman/uint256"

// Memory is the EVM's linear, byte-addressed, word-growable scratch space.
// It never shrinks within a call frame: Resize only grows the backing
// store, matching the memory-expansion gas schedule, which charges for the
// high-water mark reached, not current usage.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

func NewMemory() *Memory { return &Memory{} }

// Set writes value into store[offset:offset+size]. The caller must have
// already grown the memory via Resize; Set panics on an out-of-bounds
// write, the same contract the interpreter's gas-then-resize-then-execute
// ordering guarantees is never hit in practice.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val as a 32-byte big-endian word at offset, zero-padding on
// the left.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	for i := uint64(0); i < 32; i++ {
		m.store[offset+i] = 0
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Resize grows the backing store to size bytes if it is currently smaller.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Get returns a copy of store[offset:offset+size].
func (m *Memory) Get(offset, size int64) []byte {
	if size == 0 {
		return []byte{}
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct slice into the backing store without copying.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

func (m *Memory) Len() int { return len(m.store) }

func (m *Memory) Data() []byte { return m.store }
