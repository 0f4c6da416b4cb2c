package rootless

import (
	"errors"

	"github.com/RootlessNet/protocol/rootless/content"
	"github.com/RootlessNet/protocol/rootless/crypto"
	"github.com/RootlessNet/protocol/rootless/identity"
	"github.com/RootlessNet/protocol/rootless/messaging"
)

// GenerateKeypair returns a fresh Ed25519 keypair as hex (public, private).
func GenerateKeypair() (publicKeyHex, privateKeyHex string, err error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return "", "", err
	}
	return crypto.EncodeHex(kp.PublicKey), crypto.EncodeHex(kp.PrivateKey), nil
}

// CreateIdentity generates an identity under the default namespace.
func CreateIdentity(displayName string) (*identity.Identity, error) {
	return identity.New(displayName)
}

// CreateContent signs body as Text content authored by id.
func CreateContent(body string, id *identity.Identity) (*content.Content, error) {
	return content.New(body, id)
}

// VerifyContent returns true only when c verifies. A record that fails
// verification yields false together with the reason.
func VerifyContent(c *content.Content) (bool, error) {
	if err := c.Verify(); err != nil {
		return false, err
	}
	return true, nil
}

// EncryptMessage seals plaintext from sender to the holder of
// recipientPublicKeyHex and returns the JSON envelope.
func EncryptMessage(plaintext string, sender *identity.Identity, recipientPublicKeyHex string) (string, error) {
	return messaging.Encrypt(plaintext, sender, recipientPublicKeyHex)
}

// DecryptMessage opens a JSON envelope addressed to recipient.
func DecryptMessage(envelope string, recipient *identity.Identity, senderPublicKeyHex string) (string, error) {
	return messaging.Decrypt(envelope, recipient, senderPublicKeyHex)
}

// IsVerificationFailure reports whether err means a signature or binding
// did not verify, as opposed to malformed input.
func IsVerificationFailure(err error) bool {
	return errors.Is(err, crypto.ErrVerificationFailed)
}
