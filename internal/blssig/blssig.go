/*
NAME
  blssig.go

DESCRIPTION
  blssig.go wraps github.com/supranational/blst's min-sig BLS12-381
  primitives (48-byte compressed G1 signatures, G2 public keys) behind a
  byte-slice-only API, so the rest of this module never touches curve
  point types directly.

LICENSE
  See LICENSE file in the project root.
*/

// Package blssig signs and verifies payload transcripts with BLS12-381
// (min-sig variant): secret keys sign on G1, public keys live on G2.
package blssig

import (
	blst "github.com/supranational/blst/bindings/go"

	"github.com/pkg/errors"
)

// DST is the hash-to-curve domain separation tag for min-sig signatures
// over G1.
const DST = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"

// Sizes of the serialized wire forms.
const (
	SecretKeyBytes          = 32
	CompressedSignatureSize = 48
	CompressedPublicKeySize = 96
)

// KeyGen derives a secret key deterministically from ikm, which must be
// at least 32 bytes of entropy.
func KeyGen(ikm []byte) ([]byte, error) {
	if len(ikm) < SecretKeyBytes {
		return nil, errors.Errorf("blssig: ikm must be at least %d bytes, got %d", SecretKeyBytes, len(ikm))
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, errors.New("blssig: key generation failed")
	}
	return sk.Serialize(), nil
}

// PublicKey derives the compressed G2 public key for a serialized secret
// key.
func PublicKey(skBytes []byte) ([]byte, error) {
	sk, err := loadSecretKey(skBytes)
	if err != nil {
		return nil, err
	}
	pk := new(blst.P2Affine).From(sk)
	return pk.Compress(), nil
}

// Sign computes the compressed G1 signature over msg under skBytes:
// compress(sign(priv, H1(msg, DST, pub_bytes))).
func Sign(skBytes, pkBytes, msg []byte) ([]byte, error) {
	sk, err := loadSecretKey(skBytes)
	if err != nil {
		return nil, err
	}
	sig := new(blst.P1Affine).Sign(sk, msg, []byte(DST), pkBytes)
	return sig.Compress(), nil
}

// Verify checks a compressed G1 signature against a compressed G2
// public key and the message it was supposedly signed over, hashing
// with the same public-key augmentation that Sign uses.
func Verify(pkBytes, msg, sigBytes []byte) (bool, error) {
	if len(sigBytes) != CompressedSignatureSize {
		return false, errors.Errorf("blssig: signature must be %d bytes, got %d", CompressedSignatureSize, len(sigBytes))
	}
	if len(pkBytes) != CompressedPublicKeySize {
		return false, errors.Errorf("blssig: public key must be %d bytes, got %d", CompressedPublicKeySize, len(pkBytes))
	}
	pk := new(blst.P2Affine).Uncompress(pkBytes)
	if pk == nil {
		return false, errors.New("blssig: malformed public key")
	}
	if !pk.KeyValidate() {
		return false, errors.New("blssig: public key fails subgroup check")
	}
	sig := new(blst.P1Affine).Uncompress(sigBytes)
	if sig == nil {
		return false, errors.New("blssig: malformed signature")
	}
	return sig.Verify(true, pk, true, msg, []byte(DST), pkBytes), nil
}

func loadSecretKey(b []byte) (*blst.SecretKey, error) {
	if len(b) != SecretKeyBytes {
		return nil, errors.Errorf("blssig: secret key must be %d bytes, got %d", SecretKeyBytes, len(b))
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, errors.New("blssig: malformed secret key")
	}
	return sk, nil
}
