package messaging

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/RootlessNet/protocol/rootless/crypto"
	"github.com/RootlessNet/protocol/rootless/identity"
)

// ErrSenderMismatch means the envelope names a different sender than the
// caller expected.
var ErrSenderMismatch = fmt.Errorf("%w: sender public key mismatch", crypto.ErrDecryptionFailed)

// Sender is what encryption needs from the sending identity.
type Sender interface {
	PublicKey() []byte
}

// Recipient is what decryption needs from the receiving identity.
type Recipient interface {
	PublicKey() []byte
	ExchangePrivateKey() ([32]byte, error)
}

// Messenger seals and opens envelopes under one key exchange scheme.
// A Messenger holds no mutable state and is safe for concurrent use.
type Messenger struct {
	scheme    Scheme
	namespace string
	now       func() time.Time
}

// Option configures a Messenger.
type Option func(*Messenger)

// WithScheme selects the key exchange. The default is SchemeEdwards.
func WithScheme(s Scheme) Option {
	return func(m *Messenger) { m.scheme = s }
}

// WithNamespace sets the DID namespace used to bind message keys to the
// sender. The key context is DeriveDID(ns, sender_public_key), computed from
// the envelope, not the sender's own identifier: a sender created in another
// namespace is still bound under ns. Both ends must use the same ns.
func WithNamespace(ns string) Option {
	return func(m *Messenger) { m.namespace = ns }
}

// WithClock replaces time.Now for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Messenger) { m.now = now }
}

// NewMessenger returns a Messenger using SchemeEdwards in the default
// namespace unless opts say otherwise.
func NewMessenger(opts ...Option) *Messenger {
	m := &Messenger{scheme: SchemeEdwards, namespace: identity.DefaultNamespace, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Messenger) Scheme() Scheme { return m.scheme }

// Seal encrypts plaintext from sender to the holder of recipientPublicKey.
func (m *Messenger) Seal(plaintext string, sender Sender, recipientPublicKey []byte) (*Envelope, error) {
	senderPub := sender.PublicKey()
	if len(senderPub) != crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: sender public key must be %d bytes, got %d", crypto.ErrInvalidKey, crypto.PublicKeySize, len(senderPub))
	}
	recipientX, err := m.scheme.exchangePublicKey(recipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("messaging: recipient key: %w", err)
	}

	eph, err := crypto.GenerateX25519()
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", crypto.ErrEncryptionFailed, err)
	}
	shared, err := crypto.ECDH(eph.PrivateKey, recipientX)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrEncryptionFailed, err)
	}
	key, err := messageKey(shared, identity.DeriveDID(m.namespace, senderPub))
	if err != nil {
		return nil, err
	}
	ct, err := crypto.Encrypt(key, []byte(plaintext))
	if err != nil {
		return nil, err
	}

	ts := uint64(m.now().Unix())
	return &Envelope{
		SenderPublicKey:    crypto.EncodeHex(senderPub),
		EphemeralPublicKey: crypto.EncodeHex(eph.PublicKey[:]),
		Ciphertext:         crypto.EncodeHex(ct),
		Timestamp:          ts,
		MessageID:          MessageID(plaintext, ts),
	}, nil
}

// Open decrypts env for recipient. If expectedSender is non-nil the
// envelope's sender key must equal it.
func (m *Messenger) Open(env *Envelope, recipient Recipient, expectedSender []byte) (string, error) {
	sender, err := decodeEnvelopeKey("sender_public_key", env.SenderPublicKey)
	if err != nil {
		return "", err
	}
	senderPub := sender[:]
	if expectedSender != nil && !bytes.Equal(senderPub, expectedSender) {
		return "", ErrSenderMismatch
	}
	ephPub, err := decodeEnvelopeKey("ephemeral_public_key", env.EphemeralPublicKey)
	if err != nil {
		return "", err
	}
	ct, err := crypto.DecodeHex(env.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: envelope ciphertext is not hex", crypto.ErrDecryptionFailed)
	}

	secret, err := m.scheme.exchangePrivateKey(recipient)
	if err != nil {
		return "", fmt.Errorf("messaging: recipient key: %w", err)
	}
	shared, err := crypto.ECDH(secret, ephPub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", crypto.ErrDecryptionFailed, err)
	}
	key, err := messageKey(shared, identity.DeriveDID(m.namespace, senderPub))
	if err != nil {
		return "", err
	}
	pt, err := crypto.Decrypt(key, ct)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(pt) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", crypto.ErrDecryptionFailed)
	}
	return string(pt), nil
}

// Encrypt seals plaintext and returns the envelope as JSON.
func (m *Messenger) Encrypt(plaintext string, sender Sender, recipientPublicKeyHex string) (string, error) {
	recipientPub, err := crypto.DecodeKey(recipientPublicKeyHex, crypto.PublicKeySize)
	if err != nil {
		return "", fmt.Errorf("messaging: recipient public key: %w", err)
	}
	env, err := m.Seal(plaintext, sender, recipientPub)
	if err != nil {
		return "", err
	}
	return env.Encode()
}

// Decrypt parses a JSON envelope and opens it. senderPublicKeyHex must name
// the sender recorded in the envelope.
func (m *Messenger) Decrypt(envelope string, recipient Recipient, senderPublicKeyHex string) (string, error) {
	senderPub, err := crypto.DecodeKey(senderPublicKeyHex, crypto.PublicKeySize)
	if err != nil {
		return "", fmt.Errorf("messaging: sender public key: %w", err)
	}
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return "", err
	}
	return m.Open(env, recipient, senderPub)
}

var defaultMessenger = NewMessenger()

// Encrypt uses the default messenger (SchemeEdwards, "rootless" namespace).
func Encrypt(plaintext string, sender Sender, recipientPublicKeyHex string) (string, error) {
	return defaultMessenger.Encrypt(plaintext, sender, recipientPublicKeyHex)
}

// Decrypt uses the default messenger.
func Decrypt(envelope string, recipient Recipient, senderPublicKeyHex string) (string, error) {
	return defaultMessenger.Decrypt(envelope, recipient, senderPublicKeyHex)
}

// IsAuthFailure reports whether err means the envelope did not authenticate
// for this recipient, as opposed to being malformed.
func IsAuthFailure(err error) bool {
	return errors.Is(err, crypto.ErrAuthenticationFailed)
}
