package core

import (
	"math/big"

	"github.com/ethlayer/coreeth/types"
)

// EIP-1559 constants.
const (
	InitialBaseFee           = 1_000_000_000 // 1 Gwei, London genesis base fee
	MinBaseFee               = 7             // wei, floor applied by CalcBaseFee for every fork
	ElasticityMultiplier     = 2
	BaseFeeChangeDenominator = 8
)

// EIP-4844 blob gas constants.
const (
	GasPerBlob            = 131072
	TargetBlobGasPerBlock = 3 * GasPerBlob
	MaxBlobGasPerBlock    = 6 * GasPerBlob
	MaxBlobsPerBlock      = 6
	BlobTxHashVersion     = 0x01
	blobBaseFeeUpdateFraction = 3338477
)

// CalcBaseFee computes the EIP-1559 base fee for the block following parent,
// adjusting by at most 1/BaseFeeChangeDenominator of the parent base fee
// depending on whether parent gas usage was above or below its target.
func CalcBaseFee(parent *types.Header) *big.Int {
	if parent.BaseFee == nil {
		return big.NewInt(InitialBaseFee)
	}

	target := parent.GasLimit / ElasticityMultiplier
	if parent.GasUsed == target {
		return new(big.Int).Set(parent.BaseFee)
	}

	if parent.GasUsed > target {
		delta := parent.GasUsed - target
		change := new(big.Int).Mul(parent.BaseFee, new(big.Int).SetUint64(delta))
		change.Div(change, new(big.Int).SetUint64(target))
		change.Div(change, big.NewInt(BaseFeeChangeDenominator))
		if change.Sign() == 0 {
			change.SetInt64(1)
		}
		return new(big.Int).Add(parent.BaseFee, change)
	}

	delta := target - parent.GasUsed
	change := new(big.Int).Mul(parent.BaseFee, new(big.Int).SetUint64(delta))
	change.Div(change, new(big.Int).SetUint64(target))
	change.Div(change, big.NewInt(BaseFeeChangeDenominator))
	baseFee := new(big.Int).Sub(parent.BaseFee, change)
	if baseFee.Cmp(big.NewInt(MinBaseFee)) < 0 {
		baseFee.SetInt64(MinBaseFee)
	}
	return baseFee
}

// CalcExcessBlobGas computes the excess blob gas carried into the next
// block from the parent's excess and the blob gas it actually used.
func CalcExcessBlobGas(parentExcessBlobGas, parentBlobGasUsed uint64) uint64 {
	sum := parentExcessBlobGas + parentBlobGasUsed
	if sum < TargetBlobGasPerBlock {
		return 0
	}
	return sum - TargetBlobGasPerBlock
}

// CalcBlobBaseFee computes the per-blob-gas fee from excess blob gas using
// the EIP-4844 fake-exponential approximation of 1 wei * e^(excess/denom).
func CalcBlobBaseFee(excessBlobGas uint64) *big.Int {
	return fakeExponential(big.NewInt(1), new(big.Int).SetUint64(excessBlobGas), big.NewInt(blobBaseFeeUpdateFraction))
}

// fakeExponential approximates factor * e^(numerator/denominator) with the
// Taylor-series accumulator defined by EIP-4844.
func fakeExponential(factor, numerator, denominator *big.Int) *big.Int {
	i := big.NewInt(1)
	output := new(big.Int)
	accum := new(big.Int).Mul(factor, denominator)
	for accum.Sign() > 0 {
		output.Add(output, accum)
		accum.Mul(accum, numerator)
		accum.Div(accum, new(big.Int).Mul(denominator, i))
		i.Add(i, big.NewInt(1))
	}
	return output.Div(output, denominator)
}
