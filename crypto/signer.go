package crypto

import (
	"errors"
	"math/big"

	"github.com/ethlayer/coreeth/types"
)

var (
	errInvalidSig         = errors.New("crypto: invalid transaction signature")
	errInvalidChainID     = errors.New("crypto: transaction chain ID does not match signer")
	errTxTypeNotSupported = errors.New("crypto: transaction type not supported by this signer")
)

// Signer recovers the sender of a transaction and computes its signing
// hash. Which rules apply (plain EIP-155 vs. the full typed-transaction set)
// depends on the transaction's type, so callers obtain one via MakeSigner/
// LatestSigner rather than constructing a concrete type directly.
type Signer interface {
	ChainID() uint64
	Hash(tx *types.Transaction) types.Hash
	Sender(tx *types.Transaction) (types.Address, error)
}

// eip155Signer supports only legacy transactions, with or without EIP-155
// replay protection; MakeSigner returns it for every legacy transaction,
// whatever the fork.
type eip155Signer struct{ chainID uint64 }

// NewEIP155Signer returns a Signer accepting only legacy transactions.
func NewEIP155Signer(chainID uint64) Signer { return eip155Signer{chainID: chainID} }

func (s eip155Signer) ChainID() uint64 { return s.chainID }

func (s eip155Signer) Hash(tx *types.Transaction) types.Hash {
	if tx.Type() != types.LegacyTxType {
		return types.Hash{}
	}
	// Bind the hash to this signer's chain ID even when tx is still unsigned.
	v := new(big.Int).SetUint64(s.chainID*2 + 35)
	return tx.WithSignature(v, nil, nil).SigningHash()
}

func (s eip155Signer) Sender(tx *types.Transaction) (types.Address, error) {
	if tx.Type() != types.LegacyTxType {
		return types.Address{}, errTxTypeNotSupported
	}
	v, r, ss := tx.RawSignatureValues()
	recovery, err := legacyRecoveryID(v, s.chainID)
	if err != nil {
		return types.Address{}, err
	}
	return recoverSender(tx.SigningHash(), r, ss, recovery)
}

// allTypesSigner supports every transaction type defined by this module
// (legacy through blob); used from Berlin onward.
type allTypesSigner struct{ chainID uint64 }

// NewSigner returns a Signer accepting any transaction type this module
// defines.
func NewSigner(chainID uint64) Signer { return allTypesSigner{chainID: chainID} }

// LatestSigner is an alias for NewSigner, naming the signer a block at the
// chain's current tip would use.
func LatestSigner(chainID uint64) Signer { return NewSigner(chainID) }

// MakeSigner returns the signer appropriate for txType: legacy transactions
// get the restrictive EIP-155 signer, everything else gets the full signer.
// Callers enforce fork-gating of which types are acceptable separately (see
// the core package's transaction acceptance rules).
func MakeSigner(chainID uint64, txType byte) Signer {
	if txType == types.LegacyTxType {
		return NewEIP155Signer(chainID)
	}
	return NewSigner(chainID)
}

func (s allTypesSigner) ChainID() uint64 { return s.chainID }

func (s allTypesSigner) Hash(tx *types.Transaction) types.Hash { return tx.SigningHash() }

func (s allTypesSigner) Sender(tx *types.Transaction) (types.Address, error) {
	v, r, ss := tx.RawSignatureValues()
	if r == nil || ss == nil {
		return types.Address{}, errInvalidSig
	}

	var recovery byte
	switch tx.Type() {
	case types.LegacyTxType:
		rec, err := legacyRecoveryID(v, s.chainID)
		if err != nil {
			return types.Address{}, err
		}
		recovery = rec
	case types.AccessListTxType, types.DynamicFeeTxType, types.BlobTxType:
		if v == nil {
			recovery = 0
		} else if v.BitLen() > 8 {
			return types.Address{}, errInvalidSig
		} else {
			recovery = byte(v.Uint64())
		}
		if txChainID := tx.ChainID(); txChainID != nil && txChainID.Sign() != 0 && txChainID.Uint64() != s.chainID {
			return types.Address{}, errInvalidChainID
		}
	default:
		return types.Address{}, errTxTypeNotSupported
	}

	if recovery > 1 {
		return types.Address{}, errInvalidSig
	}
	return recoverSender(tx.SigningHash(), r, ss, recovery)
}

// legacyRecoveryID derives the 0/1 recovery id from a legacy transaction's V
// value, which is either the pre-EIP-155 {27,28} or the EIP-155
// chainID*2+35+recoveryID.
func legacyRecoveryID(v *big.Int, chainID uint64) (byte, error) {
	if v == nil {
		return 0, errInvalidSig
	}
	if v.BitLen() <= 8 {
		switch v.Uint64() {
		case 27:
			return 0, nil
		case 28:
			return 1, nil
		}
	}
	offset := new(big.Int).Sub(v, big.NewInt(35))
	offset.Sub(offset, new(big.Int).Mul(big.NewInt(2), new(big.Int).SetUint64(chainID)))
	if offset.Sign() < 0 || offset.BitLen() > 8 || offset.Uint64() > 1 {
		return 0, errInvalidSig
	}
	return byte(offset.Uint64()), nil
}

// recoverSender reconstructs the 65-byte [R||S||V] signature and recovers
// the signer's address via Ecrecover.
func recoverSender(sigHash types.Hash, r, s *big.Int, recovery byte) (types.Address, error) {
	if r == nil || s == nil {
		return types.Address{}, errInvalidSig
	}
	if !ValidateSignatureValues(recovery, r, s, true) {
		return types.Address{}, errInvalidSig
	}
	sig := make([]byte, 65)
	rb, sb := r.Bytes(), s.Bytes()
	copy(sig[32-len(rb):32], rb)
	copy(sig[64-len(sb):64], sb)
	sig[64] = recovery

	pub, err := SigToPub(sigHash[:], sig)
	if err != nil {
		return types.Address{}, err
	}
	return PubkeyToAddress(pub), nil
}
