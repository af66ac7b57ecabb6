package shared

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningKeyPair is the secp256k1 key a proof host uses to attest the public
// values it committed to
type SigningKeyPair struct {
	PrivateKey *ecdsa.PrivateKey `json:"-"`
	PublicKey  *ecdsa.PublicKey  `json:"-"`
}

// GenerateSigningKeyPair generates a new ECDSA signing key pair using secp256k1 curve (ETH compatible)
func GenerateSigningKeyPair() (*SigningKeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key pair: %v", err)
	}

	return &SigningKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// SigningKeyPairFromHex loads a raw 32-byte private key given as (0x-)hex
func SigningKeyPairFromHex(keyHex string) (*SigningKeyPair, error) {
	raw, err := DecodeHex("private_key", keyHex)
	if err != nil {
		return nil, err
	}
	return SigningKeyPairFromBytes(raw)
}

// SigningKeyPairFromBytes loads a raw 32-byte private key
func SigningKeyPairFromBytes(raw []byte) (*SigningKeyPair, error) {
	privateKey, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 private key: %v", err)
	}
	return &SigningKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PrivateKeyBytes returns the raw 32-byte private scalar
func (kp *SigningKeyPair) PrivateKeyBytes() []byte {
	return crypto.FromECDSA(kp.PrivateKey)
}

// SignData signs the given data using Ethereum-style signatures
func (kp *SigningKeyPair) SignData(data []byte) ([]byte, error) {
	// Use standard Ethereum message signing (includes prefix)
	hash := accounts.TextHash(data)

	// Sign the hash - this returns a 65-byte signature with recovery ID
	signature, err := crypto.Sign(hash, kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign data with ETH style: %v", err)
	}

	return signature, nil
}

// GetEthAddress returns the Ethereum address for this key pair
func (kp *SigningKeyPair) GetEthAddress() common.Address {
	return crypto.PubkeyToAddress(*kp.PublicKey)
}

// RecoverEthSigner returns the address that produced an Ethereum-style signature over data
func RecoverEthSigner(data []byte, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("invalid ETH signature length: expected 65 bytes, got %d", len(signature))
	}
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(data), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key from signature: %v", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
