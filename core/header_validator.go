package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethlayer/coreeth/types"
)

// Header chain verification constants.
const (
	MaxExtraDataSize            = 32
	GasLimitBoundDivisor uint64 = 1024
	MinGasLimit          uint64 = 5000
	MaxGasLimit          uint64 = 1<<63 - 1
)

// EmptyUncleHash is the Keccak256 RLP hash of an empty uncle list,
// expected on every post-merge header since PoS blocks have no uncles.
var EmptyUncleHash = types.EmptyUncleHash

var (
	ErrTimestampNonMonotonic = errors.New("timestamp not monotonically increasing")
	ErrHeaderChainBroken     = errors.New("parent hash mismatch in header chain")
	ErrGasLimitJump          = errors.New("gas limit change exceeds 1/1024 bound")
	ErrBaseFeeComputation    = errors.New("base fee does not match expected computation")
	ErrBlobGasComputation    = errors.New("excess blob gas does not match expected computation")
	ErrDifficultyPostMerge   = errors.New("non-zero difficulty in post-merge header")
	ErrNoncePostMerge        = errors.New("non-zero nonce in post-merge header")
	ErrUnclesPostMerge       = errors.New("non-empty uncle hash in post-merge header")
	ErrExtraDataOverflow     = errors.New("extra data exceeds maximum length")
	ErrBlockNumberGap        = errors.New("block number gap in header chain")
	ErrGasUsedExceedsLimit   = errors.New("gas used exceeds gas limit in header")
)

// HeaderVerifier validates consensus rules across a sequence of headers:
// parent linkage, PoS transition fields, EIP-1559 base fee continuity,
// gas limit bounds, and EIP-4844 blob gas accounting.
type HeaderVerifier struct {
	config *ChainConfig
}

// NewHeaderVerifier creates a verifier bound to config.
func NewHeaderVerifier(config *ChainConfig) *HeaderVerifier {
	return &HeaderVerifier{config: config}
}

// VerifyChain validates a contiguous, ascending sequence of headers
// starting from a trusted parent. It returns the index of the first
// invalid header and its error, or (len(headers), nil) if all are valid.
func (v *HeaderVerifier) VerifyChain(parent *types.Header, headers []*types.Header) (int, error) {
	current := parent
	for i, header := range headers {
		if err := v.VerifyAgainstParent(header, current); err != nil {
			return i, fmt.Errorf("header %d (block %v): %w", i, header.Number, err)
		}
		current = header
	}
	return len(headers), nil
}

// VerifyAgainstParent validates a single header against its immediate parent.
func (v *HeaderVerifier) VerifyAgainstParent(header, parent *types.Header) error {
	if err := verifyParentHash(header, parent); err != nil {
		return err
	}
	if err := verifyBlockNumber(header, parent); err != nil {
		return err
	}
	if err := verifyTimestampMonotonicity(header, parent); err != nil {
		return err
	}
	if err := verifyExtraDataLimit(header); err != nil {
		return err
	}
	if err := verifyGasLimitBounds(header, parent); err != nil {
		return err
	}
	if err := verifyGasUsedBound(header); err != nil {
		return err
	}
	if err := verifyPoSTransition(v.config, header); err != nil {
		return err
	}
	if err := v.verifyBaseFee(header, parent); err != nil {
		return err
	}
	if err := v.verifyBlobGas(header, parent); err != nil {
		return err
	}
	return nil
}

func verifyParentHash(header, parent *types.Header) error {
	if expected := parent.Hash(); header.ParentHash != expected {
		return fmt.Errorf("%w: header parent_hash=%s, parent hash=%s",
			ErrHeaderChainBroken, header.ParentHash.Hex(), expected.Hex())
	}
	return nil
}

func verifyBlockNumber(header, parent *types.Header) error {
	if header.Number == nil || parent.Number == nil {
		return fmt.Errorf("%w: nil block number", ErrBlockNumberGap)
	}
	expected := new(big.Int).Add(parent.Number, big.NewInt(1))
	if header.Number.Cmp(expected) != 0 {
		return fmt.Errorf("%w: want %v, got %v", ErrBlockNumberGap, expected, header.Number)
	}
	return nil
}

func verifyTimestampMonotonicity(header, parent *types.Header) error {
	if header.Time <= parent.Time {
		return fmt.Errorf("%w: child=%d, parent=%d", ErrTimestampNonMonotonic, header.Time, parent.Time)
	}
	return nil
}

func verifyExtraDataLimit(header *types.Header) error {
	if len(header.Extra) > MaxExtraDataSize {
		return fmt.Errorf("%w: len=%d, max=%d", ErrExtraDataOverflow, len(header.Extra), MaxExtraDataSize)
	}
	return nil
}

func verifyGasLimitBounds(header, parent *types.Header) error {
	if header.GasLimit < MinGasLimit {
		return fmt.Errorf("%w: %d < %d", ErrGasLimitBelowMinimum, header.GasLimit, MinGasLimit)
	}
	if header.GasLimit > MaxGasLimit {
		return fmt.Errorf("%w: %d > %d", ErrGasLimitTooHigh, header.GasLimit, MaxGasLimit)
	}
	var diff uint64
	if header.GasLimit > parent.GasLimit {
		diff = header.GasLimit - parent.GasLimit
	} else {
		diff = parent.GasLimit - header.GasLimit
	}
	if bound := parent.GasLimit / GasLimitBoundDivisor; diff >= bound {
		return fmt.Errorf("%w: delta=%d, max_allowed=%d (parent=%d)", ErrGasLimitJump, diff, bound, parent.GasLimit)
	}
	return nil
}

func verifyGasUsedBound(header *types.Header) error {
	if header.GasUsed > header.GasLimit {
		return fmt.Errorf("%w: used=%d, limit=%d", ErrGasUsedExceedsLimit, header.GasUsed, header.GasLimit)
	}
	return nil
}

// verifyPoSTransition checks that merged headers carry zero difficulty,
// zero nonce, and an empty uncle hash, as consensus moves mining fields
// off the execution layer.
func verifyPoSTransition(config *ChainConfig, header *types.Header) error {
	if config == nil || !config.IsMerge(header.Number) {
		return nil
	}
	if header.Difficulty != nil && header.Difficulty.Sign() != 0 {
		return fmt.Errorf("%w: difficulty=%v", ErrDifficultyPostMerge, header.Difficulty)
	}
	if header.Nonce != (types.BlockNonce{}) {
		return fmt.Errorf("%w: nonce=%x", ErrNoncePostMerge, header.Nonce)
	}
	if header.UncleHash != (types.Hash{}) && header.UncleHash != EmptyUncleHash {
		return fmt.Errorf("%w: uncle_hash=%s", ErrUnclesPostMerge, header.UncleHash.Hex())
	}
	return nil
}

// verifyBaseFee checks the EIP-1559 base fee against CalcBaseFee(parent).
// Pre-London headers (nil BaseFee) are exempt.
func (v *HeaderVerifier) verifyBaseFee(header, parent *types.Header) error {
	if header.BaseFee == nil {
		return nil
	}
	if expected := CalcBaseFee(parent); header.BaseFee.Cmp(expected) != 0 {
		return fmt.Errorf("%w: have=%v, want=%v", ErrBaseFeeComputation, header.BaseFee, expected)
	}
	return nil
}

// verifyBlobGas checks the EIP-4844 excess blob gas field against
// CalcExcessBlobGas(parent). A no-op before Cancun.
func (v *HeaderVerifier) verifyBlobGas(header, parent *types.Header) error {
	if v.config == nil || !v.config.IsCancun(header.Time) {
		return nil
	}
	if header.BlobGasUsed == nil {
		return fmt.Errorf("%w: missing BlobGasUsed", ErrBlobGasComputation)
	}
	if *header.BlobGasUsed > MaxBlobGasPerBlock {
		return fmt.Errorf("%w: used %d exceeds max %d", ErrMaxBlobGasExceeded, *header.BlobGasUsed, MaxBlobGasPerBlock)
	}
	if header.ExcessBlobGas == nil {
		return fmt.Errorf("%w: missing ExcessBlobGas", ErrBlobGasComputation)
	}

	var parentExcess, parentUsed uint64
	if parent.ExcessBlobGas != nil {
		parentExcess = *parent.ExcessBlobGas
	}
	if parent.BlobGasUsed != nil {
		parentUsed = *parent.BlobGasUsed
	}
	if expected := CalcExcessBlobGas(parentExcess, parentUsed); *header.ExcessBlobGas != expected {
		return fmt.Errorf("%w: have %d, want %d", ErrExcessBlobGasMismatch, *header.ExcessBlobGas, expected)
	}
	return nil
}
