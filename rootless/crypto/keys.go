package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

const (
	PublicKeySize  = ed25519.PublicKeySize // 32
	PrivateKeySize = ed25519.SeedSize      // 32, the seed form
	SignatureSize  = ed25519.SignatureSize // 64
)

// KeyPair holds an Ed25519 signing keypair.
// PrivateKey is the 32-byte seed, not Go's 64-byte expanded form.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// GenerateKeyPair creates a fresh keypair from crypto/rand.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{PublicKey: pub, PrivateKey: priv.Seed()}, nil
}

// KeyPairFromPrivateKey rebuilds the keypair belonging to a 32-byte seed.
func KeyPairFromPrivateKey(privateKey []byte) (KeyPair, error) {
	if len(privateKey) != PrivateKeySize {
		return KeyPair{}, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, PrivateKeySize, len(privateKey))
	}
	priv := ed25519.NewKeyFromSeed(privateKey)
	seed := make([]byte, PrivateKeySize)
	copy(seed, privateKey)
	return KeyPair{PublicKey: priv.Public().(ed25519.PublicKey), PrivateKey: seed}, nil
}

// Sign signs message with the keypair's private key.
func (kp KeyPair) Sign(message []byte) ([]byte, error) {
	return Sign(kp.PrivateKey, message)
}

// Sign produces a 64-byte Ed25519 signature. Signatures are deterministic for
// a given key and message.
func Sign(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, PrivateKeySize, len(privateKey))
	}
	return ed25519.Sign(ed25519.NewKeyFromSeed(privateKey), message), nil
}

// Verify checks signature over message. Length problems are reported as
// ErrInvalidKey, a bad signature as ErrVerificationFailed.
func Verify(publicKey, message, signature []byte) error {
	if len(publicKey) != PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKey, PublicKeySize, len(publicKey))
	}
	if len(signature) != SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidKey, SignatureSize, len(signature))
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), message, signature) {
		return ErrVerificationFailed
	}
	return nil
}
