package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethlayer/coreeth/types"
)

var errMissingWithdrawals = errors.New("post-Shanghai block missing withdrawals")
var errUnexpectedUncles = errors.New("post-merge block must not have uncles")

// BlockValidator checks a block's body and post-execution results against
// its header, using a HeaderVerifier for the header-chain portion.
type BlockValidator struct {
	config   *ChainConfig
	headerV  *HeaderVerifier
}

// NewBlockValidator creates a validator bound to config.
func NewBlockValidator(config *ChainConfig) *BlockValidator {
	return &BlockValidator{config: config, headerV: NewHeaderVerifier(config)}
}

// ValidateHeader checks header against parent's consensus rules. It
// delegates to the HeaderVerifier shared with chain-sync verification.
func (v *BlockValidator) ValidateHeader(header, parent *types.Header) error {
	return v.headerV.VerifyAgainstParent(header, parent)
}

// ValidateBody checks a block's transaction list, uncles, and withdrawals
// against its header, independent of executing any transaction.
func (v *BlockValidator) ValidateBody(block *types.Block) error {
	header := block.Header()

	if v.config != nil && v.config.IsMerge(header.Number) && len(block.Uncles()) > 0 {
		return errUnexpectedUncles
	}

	if v.config != nil && v.config.IsCancun(header.Time) {
		var totalBlobGas uint64
		for _, tx := range block.Transactions() {
			totalBlobGas += blobGasOf(tx)
		}
		if header.BlobGasUsed != nil && *header.BlobGasUsed != totalBlobGas {
			return fmt.Errorf("%w: header %d, computed %d", ErrBlobGasUsedMismatch, *header.BlobGasUsed, totalBlobGas)
		}
	}

	if v.config != nil && v.config.IsShanghai(header.Time) && block.Withdrawals() == nil {
		return errMissingWithdrawals
	}

	return nil
}

// ValidatePostBlock checks a header's gas-used, state root, and logs bloom
// fields against the values computed by StateProcessor.Process.
func (v *BlockValidator) ValidatePostBlock(header *types.Header, gasUsed uint64, stateRoot types.Hash, receipts types.Receipts) error {
	if header.GasUsed != gasUsed {
		return fmt.Errorf("%w: header %d, computed %d", ErrGasUsedMismatch, header.GasUsed, gasUsed)
	}
	if header.Root != stateRoot {
		return fmt.Errorf("%w: header %s, computed %s", ErrStateRootMismatch, header.Root.Hex(), stateRoot.Hex())
	}

	var logs []*types.Log
	for _, r := range receipts {
		logs = append(logs, r.Logs...)
	}
	if bloom := types.CreateBloom(logs); header.Bloom != bloom {
		return ErrBloomMismatch
	}
	return nil
}

func blobGasOf(tx *types.Transaction) uint64 {
	return uint64(len(tx.BlobHashes())) * GasPerBlob
}

// BlockReward returns the static block reward owed to the coinbase at the
// given header, before any transaction fee tips. Post-merge blocks pay no
// protocol-level block reward; validator compensation happens entirely at
// the consensus layer.
func BlockReward(config *ChainConfig, header *types.Header) *big.Int {
	if config != nil && config.IsMerge(header.Number) {
		return new(big.Int)
	}
	return new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
}
