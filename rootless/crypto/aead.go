package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize   = chacha20poly1305.KeySize    // 32
	NonceSize = chacha20poly1305.NonceSizeX // 24
	TagSize   = chacha20poly1305.Overhead   // 16
)

// AEAD wraps XChaCha20-Poly1305 with per-message random nonces.
// A 192-bit random nonce makes collisions under one key negligible, so no
// counter state is kept and the value is safe for concurrent use.
type AEAD struct {
	aead cipher.AEAD
}

// NewAEAD creates a new AEAD cipher from a 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AEAD key must be %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &AEAD{aead: aead}, nil
}

// Seal encrypts and authenticates plaintext.
// Returns: nonce (24 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Seal(plaintext, additionalData []byte) ([]byte, error) {
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, fmt.Errorf("%w: nonce generation: %v", ErrEncryptionFailed, err)
	}
	return a.aead.Seal(out, out[:NonceSize], plaintext, additionalData), nil
}

// Open decrypts and verifies ciphertext.
// Input format: nonce (24 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := a.aead.Open(nil, ciphertext[:NonceSize], ciphertext[NonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Overhead returns the bytes added to every sealed message.
func (a *AEAD) Overhead() int { return NonceSize + TagSize }

// Encrypt seals plaintext under key with no associated data.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	a, err := NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return a.Seal(plaintext, nil)
}

// Decrypt opens a nonce||ciphertext blob produced by Encrypt.
// Inputs shorter than the nonce fail with ErrCiphertextTooShort before the
// key is looked at.
func Decrypt(key, input []byte) ([]byte, error) {
	if len(input) < NonceSize {
		return nil, ErrCiphertextTooShort
	}
	a, err := NewAEAD(key)
	if err != nil {
		return nil, err
	}
	return a.Open(input, nil)
}
