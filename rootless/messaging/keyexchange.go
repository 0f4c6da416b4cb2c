package messaging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

// Scheme selects how a recipient's Ed25519 identity key becomes an X25519
// exchange key.
type Scheme int

const (
	SchemeEdwards Scheme = iota
	// SchemeLegacyHKDF derives the exchange scalar from the public key.
	// It provides no confidentiality against anyone who knows that key.
	SchemeLegacyHKDF
)

// ErrUnknownScheme is returned by ParseScheme.
var ErrUnknownScheme = errors.New("messaging: unknown key exchange scheme")

const (
	legacySalt = "rootlessnet-key-conversion"
	legacyInfo = "ed25519-to-x25519"

	messageKeySalt   = "rootlessnet-messaging-v2"
	messageKeyPrefix = "rootlessnet:messaging:"
)

func (s Scheme) String() string {
	switch s {
	case SchemeEdwards:
		return "edwards"
	case SchemeLegacyHKDF:
		return "legacy-hkdf"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// ParseScheme accepts the names returned by Scheme.String.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edwards":
		return SchemeEdwards, nil
	case "legacy-hkdf", "legacy":
		return SchemeLegacyHKDF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// exchangePublicKey is the X25519 key a sender encrypts to.
func (s Scheme) exchangePublicKey(edPublicKey []byte) ([32]byte, error) {
	switch s {
	case SchemeEdwards:
		return crypto.EdPublicToX25519(edPublicKey)
	case SchemeLegacyHKDF:
		r, err := legacyScalar(edPublicKey)
		if err != nil {
			return [32]byte{}, err
		}
		return crypto.X25519PublicKey(r)
	default:
		return [32]byte{}, fmt.Errorf("%w: %d", ErrUnknownScheme, int(s))
	}
}

// exchangePrivateKey is the scalar a recipient decrypts with.
func (s Scheme) exchangePrivateKey(r Recipient) ([32]byte, error) {
	switch s {
	case SchemeEdwards:
		return r.ExchangePrivateKey()
	case SchemeLegacyHKDF:
		return legacyScalar(r.PublicKey())
	default:
		return [32]byte{}, fmt.Errorf("%w: %d", ErrUnknownScheme, int(s))
	}
}

func legacyScalar(edPublicKey []byte) ([32]byte, error) {
	var r [32]byte
	if len(edPublicKey) != crypto.PublicKeySize {
		return r, fmt.Errorf("%w: public key must be %d bytes, got %d", crypto.ErrInvalidKey, crypto.PublicKeySize, len(edPublicKey))
	}
	k, err := crypto.DeriveKey(edPublicKey, []byte(legacySalt), []byte(legacyInfo), 32)
	if err != nil {
		return r, err
	}
	copy(r[:], k)
	return r, nil
}

// messageKey binds the symmetric key to the sender's DID.
func messageKey(shared []byte, senderDID string) ([]byte, error) {
	return crypto.DeriveKey(shared, []byte(messageKeySalt), []byte(messageKeyPrefix+senderDID), crypto.KeySize)
}
