package types

import "math/big"

// Header is a block header. Fields below the first group are fork-gated:
// BaseFee (London), WithdrawalsHash (Shanghai), BlobGasUsed/ExcessBlobGas/
// ParentBeaconBlockRoot (Cancun) are nil/absent on headers from earlier
// forks, matching spec.md §3.
type Header struct {
	ParentHash       Hash
	UncleHash        Hash
	Coinbase         Address
	Root             Hash // state root
	TxHash           Hash // transactions root
	ReceiptHash      Hash // receipts root
	Bloom            Bloom
	Difficulty       *big.Int
	Number           *big.Int
	GasLimit         uint64
	GasUsed          uint64
	Time             uint64
	Extra            []byte
	MixDigest        Hash // post-Paris: PrevRandao
	Nonce            BlockNonce

	BaseFee               *big.Int // London (EIP-1559)
	WithdrawalsHash       *Hash    // Shanghai (EIP-4895)
	BlobGasUsed           *uint64  // Cancun (EIP-4844)
	ExcessBlobGas         *uint64  // Cancun (EIP-4844)
	ParentBeaconBlockRoot *Hash    // Cancun (EIP-4788)
}

// Hash computes the block hash: keccak256 of the RLP encoding of the header.
func (h *Header) Hash() Hash {
	enc, err := EncodeHeaderRLP(h)
	if err != nil {
		return Hash{}
	}
	return keccak256Hash(enc)
}

// EmptyUncleHash is keccak256(rlp([])), the UncleHash of a block with no
// uncles (the canonical value since post-Paris blocks always have none).
var EmptyUncleHash = keccak256Hash([]byte{0xc0})

// Copy returns a deep-enough copy of the header for mutation (e.g. by a
// block builder) without aliasing the original's big.Int/byte-slice fields.
func (h *Header) Copy() *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = append([]byte(nil), h.Extra...)
	}
	if h.WithdrawalsHash != nil {
		v := *h.WithdrawalsHash
		cpy.WithdrawalsHash = &v
	}
	if h.BlobGasUsed != nil {
		v := *h.BlobGasUsed
		cpy.BlobGasUsed = &v
	}
	if h.ExcessBlobGas != nil {
		v := *h.ExcessBlobGas
		cpy.ExcessBlobGas = &v
	}
	if h.ParentBeaconBlockRoot != nil {
		v := *h.ParentBeaconBlockRoot
		cpy.ParentBeaconBlockRoot = &v
	}
	return &cpy
}
