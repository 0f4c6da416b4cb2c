package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"
)

// X25519KeyPair represents an ECDH keypair.
type X25519KeyPair struct {
	PublicKey  [32]byte
	PrivateKey [32]byte
}

var (
	ErrInvalidPublicKey = errors.New("crypto: invalid X25519 public key")
)

// GenerateX25519 generates a new ephemeral X25519 keypair.
func GenerateX25519() (X25519KeyPair, error) {
	var kp X25519KeyPair
	if _, err := io.ReadFull(rand.Reader, kp.PrivateKey[:]); err != nil {
		return X25519KeyPair{}, err
	}
	clamp(&kp.PrivateKey)

	pub, err := X25519PublicKey(kp.PrivateKey)
	if err != nil {
		return X25519KeyPair{}, err
	}
	kp.PublicKey = pub
	return kp, nil
}

// X25519PublicKey returns privateKey·G.
func X25519PublicKey(privateKey [32]byte) ([32]byte, error) {
	var pub [32]byte
	out, err := curve25519.X25519(privateKey[:], curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	copy(pub[:], out)
	return pub, nil
}

// ECDH computes the shared secret using X25519.
// Returns 32 bytes of raw shared secret (should be passed to HKDF).
func ECDH(privateKey, peerPublicKey [32]byte) ([]byte, error) {
	// Check for low-order points (all zeros is invalid)
	var zero [32]byte
	if peerPublicKey == zero {
		return nil, ErrInvalidPublicKey
	}
	shared, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return shared, nil
}

// EdPublicToX25519 maps an Ed25519 public key to its X25519 counterpart
// using the birational map u = (1 + y) / (1 - y) (RFC 7748).
func EdPublicToX25519(edPublicKey []byte) ([32]byte, error) {
	var out [32]byte
	if len(edPublicKey) != ed25519.PublicKeySize {
		return out, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKey, ed25519.PublicKeySize, len(edPublicKey))
	}
	point, err := new(edwards25519.Point).SetBytes(edPublicKey)
	if err != nil {
		return out, fmt.Errorf("%w: not a curve point: %v", ErrInvalidKey, err)
	}
	copy(out[:], point.BytesMontgomery())
	return out, nil
}

// EdPrivateToX25519 derives the X25519 scalar matching EdPublicToX25519:
// the clamped first half of SHA-512(seed), as in RFC 8032.
func EdPrivateToX25519(seed []byte) ([32]byte, error) {
	var out [32]byte
	if len(seed) != ed25519.SeedSize {
		return out, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	h := sha512.Sum512(seed)
	copy(out[:], h[:32])
	clamp(&out)
	return out, nil
}

// clamp per RFC 7748.
func clamp(k *[32]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
