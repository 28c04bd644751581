package crypto

import (
	"crypto/sha256"
	"errors"
	"sync"

	gokzg4844 "github.com/crate-crypto/go-eth-kzg"
)

// VersionedHashVersionKZG is the single-byte version prefix a blob
// versioned hash must carry (EIP-4844).
const VersionedHashVersionKZG = 0x01

var (
	kzgCtx     *gokzg4844.Context
	kzgCtxOnce sync.Once
	kzgCtxErr  error
)

func kzgContext() (*gokzg4844.Context, error) {
	kzgCtxOnce.Do(func() {
		kzgCtx, kzgCtxErr = gokzg4844.NewContext4096(gokzg4844.DefaultTrustedSetup)
	})
	return kzgCtx, kzgCtxErr
}

// KZGToVersionedHash derives the versioned hash of a blob commitment:
// version byte followed by the low 31 bytes of sha256(commitment).
func KZGToVersionedHash(commitment []byte) [32]byte {
	full := sha256.Sum256(commitment)
	full[0] = VersionedHashVersionKZG
	return full
}

// VerifyKZGProofBytes verifies a KZG point-evaluation proof. commitment and
// proof are 48-byte compressed G1 points; z and y are 32-byte big-endian
// field elements.
func VerifyKZGProofBytes(commitment, z, y, proof []byte) error {
	if len(commitment) != 48 || len(proof) != 48 || len(z) != 32 || len(y) != 32 {
		return errors.New("crypto: malformed kzg proof input")
	}
	ctx, err := kzgContext()
	if err != nil {
		return err
	}
	var c gokzg4844.KZGCommitment
	copy(c[:], commitment)
	var p gokzg4844.KZGProof
	copy(p[:], proof)
	var zs, ys gokzg4844.Scalar
	copy(zs[:], z)
	copy(ys[:], y)
	return ctx.VerifyKZGProof(c, zs, ys, p)
}
