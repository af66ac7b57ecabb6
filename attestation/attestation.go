// Package attestation verifies secp256k1 recoverable signatures over an
// original-content fingerprint and derives the signer identity.
package attestation

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"zk-sampler/commitment"
	"zk-sampler/shared"
)

const (
	// SignatureLength is r || s || v
	SignatureLength = 65
	// IdentityLength is the size of a signer identity
	IdentityLength = 20

	messagePrefix = "\x19Ethereum Signed Message:\n32"
)

// Identity is the low 20 bytes of Keccak-256 over the uncompressed public key
type Identity [IdentityLength]byte

// Address returns the identity as a go-ethereum address
func (id Identity) Address() common.Address {
	return common.Address(id)
}

// Hex renders the identity as 0x-prefixed lowercase hex
func (id Identity) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero identity
func (id Identity) IsZero() bool {
	return id == Identity{}
}

func keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// MessageHash is the digest that gets signed for a fingerprint:
// Keccak256("\x19Ethereum Signed Message:\n32" || fp)
func MessageHash(fp commitment.Fingerprint) [32]byte {
	return keccak256([]byte(messagePrefix), fp[:])
}

// Verify recovers the signer of att over fp. Every failure (wrong length,
// bad recovery byte, unrecoverable point) yields the zero identity and false.
func Verify(fp commitment.Fingerprint, att *shared.SignatureAttestation) (Identity, bool) {
	if att == nil || len(att.Signature) != SignatureLength {
		return Identity{}, false
	}

	sig := make([]byte, SignatureLength)
	copy(sig, att.Signature)
	switch v := sig[64]; {
	case v == 27 || v == 28:
		sig[64] = v - 27
	case v == 0 || v == 1:
	default:
		return Identity{}, false
	}

	hash := MessageHash(fp)
	pub, err := crypto.Ecrecover(hash[:], sig)
	if err != nil || len(pub) != 65 {
		return Identity{}, false
	}

	digest := keccak256(pub[1:])
	var id Identity
	copy(id[:], digest[12:])
	return id, true
}

// SignFingerprint produces a 65-byte signature with a 27/28 recovery byte,
// the form wallets emit for personal_sign.
func SignFingerprint(fp commitment.Fingerprint, key *ecdsa.PrivateKey) ([]byte, error) {
	hash := MessageHash(fp)
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign fingerprint: %v", err)
	}
	sig[64] += 27
	return sig, nil
}

// NewAttestation signs fp and bundles the signature with the signer's
// uncompressed public key.
func NewAttestation(fp commitment.Fingerprint, key *ecdsa.PrivateKey) (*shared.SignatureAttestation, error) {
	sig, err := SignFingerprint(fp, key)
	if err != nil {
		return nil, err
	}
	return &shared.SignatureAttestation{
		Signature: sig,
		PublicKey: crypto.FromECDSAPub(&key.PublicKey),
	}, nil
}

// ParseHexAttestation decodes 0x-optional hex strings. Malformed hex is a
// validation error; a signature of the wrong length is accepted here and
// rejected by Verify.
func ParseHexAttestation(sigHex, pubHex string) (*shared.SignatureAttestation, error) {
	return shared.HexSignatureData{Signature: sigHex, PublicKey: pubHex}.Decode()
}
