package identity

import (
	"fmt"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

// Public is the shareable view of an identity: everything but the private key.
type Public struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name,omitempty"`
	PublicKey   string `json:"public_key"`
	CreatedAt   uint64 `json:"created_at"`
}

// PublicKeyBytes decodes the hex public key.
func (p Public) PublicKeyBytes() ([]byte, error) {
	return crypto.DecodeKey(p.PublicKey, crypto.PublicKeySize)
}

// Verify checks that the identifier is the DID of the public key.
func (p Public) Verify() error {
	pub, err := p.PublicKeyBytes()
	if err != nil {
		return fmt.Errorf("identity: public_key: %w", err)
	}
	return MatchesPublicKey(p.Identifier, pub)
}
