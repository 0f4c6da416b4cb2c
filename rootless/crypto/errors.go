package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned for malformed or wrong-length key material.
	ErrInvalidKey = errors.New("crypto: invalid key")

	// ErrVerificationFailed is returned when a signature does not match its payload.
	ErrVerificationFailed = errors.New("crypto: signature verification failed")

	// ErrEncryptionFailed covers AEAD and ephemeral key failures while sealing.
	ErrEncryptionFailed = errors.New("crypto: encryption failed")

	// ErrDecryptionFailed is the parent of every failure to open a ciphertext.
	ErrDecryptionFailed = errors.New("crypto: decryption failed")

	// ErrCiphertextTooShort means the input cannot even hold a nonce.
	ErrCiphertextTooShort = fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)

	// ErrAuthenticationFailed means the AEAD tag did not verify.
	ErrAuthenticationFailed = fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)

	// ErrKeyDerivationFailed is returned when HKDF cannot produce the requested length.
	ErrKeyDerivationFailed = errors.New("crypto: key derivation failed")
)
