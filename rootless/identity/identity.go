package identity

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

// ErrInvalidNamespace rejects empty namespaces and namespaces containing ':'.
var ErrInvalidNamespace = errors.New("identity: invalid namespace")

// Identity is a signing keypair plus its derived DID.
// Values are immutable after construction and safe for concurrent reads.
type Identity struct {
	namespace   string
	displayName string
	publicKey   []byte
	privateKey  []byte
	createdAt   uint64
}

type options struct {
	namespace string
	now       func() time.Time
}

// Option configures New.
type Option func(*options)

// WithNamespace sets the DID method segment (default "rootless").
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) (options, error) {
	o := options{namespace: DefaultNamespace, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.namespace == "" || strings.Contains(o.namespace, ":") {
		return o, fmt.Errorf("%w: %q", ErrInvalidNamespace, o.namespace)
	}
	return o, nil
}

// New generates a fresh identity. displayName may be empty.
func New(displayName string, opts ...Option) (*Identity, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Identity{
		namespace:   o.namespace,
		displayName: displayName,
		publicKey:   kp.PublicKey,
		privateKey:  kp.PrivateKey,
		createdAt:   uint64(o.now().Unix()),
	}, nil
}

// FromKeyPair wraps existing key material.
func FromKeyPair(kp crypto.KeyPair, displayName string, createdAt uint64, opts ...Option) (*Identity, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	rebuilt, err := crypto.KeyPairFromPrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(rebuilt.PublicKey, kp.PublicKey) {
		return nil, fmt.Errorf("%w: public key does not belong to private key", crypto.ErrInvalidKey)
	}
	return &Identity{
		namespace:   o.namespace,
		displayName: displayName,
		publicKey:   rebuilt.PublicKey,
		privateKey:  rebuilt.PrivateKey,
		createdAt:   createdAt,
	}, nil
}

// Identifier is recomputed from the public key on every call.
func (id *Identity) Identifier() string { return DeriveDID(id.namespace, id.publicKey) }

func (id *Identity) Namespace() string   { return id.namespace }
func (id *Identity) DisplayName() string { return id.displayName }
func (id *Identity) CreatedAt() uint64   { return id.createdAt }

// PublicKey returns a copy of the raw 32-byte public key.
func (id *Identity) PublicKey() []byte { return append([]byte(nil), id.publicKey...) }

func (id *Identity) PublicKeyHex() string { return crypto.EncodeHex(id.publicKey) }

// Sign signs data with the identity's private key. Malformed key material
// yields crypto.ErrInvalidKey.
func (id *Identity) Sign(data []byte) ([]byte, error) {
	return crypto.Sign(id.privateKey, data)
}

// ExchangePrivateKey returns the X25519 scalar paired with this identity's
// Ed25519 key.
func (id *Identity) ExchangePrivateKey() ([32]byte, error) {
	return crypto.EdPrivateToX25519(id.privateKey)
}

// Public returns the shareable part of the identity.
func (id *Identity) Public() Public {
	return Public{
		Identifier:  id.Identifier(),
		DisplayName: id.displayName,
		PublicKey:   id.PublicKeyHex(),
		CreatedAt:   id.createdAt,
	}
}

// exportedIdentity is the canonical export layout. Field order is stable.
type exportedIdentity struct {
	Identifier  string  `json:"identifier"`
	DisplayName *string `json:"display_name"`
	PublicKey   string  `json:"public_key"`
	PrivateKey  string  `json:"private_key"`
	CreatedAt   uint64  `json:"created_at"`
}

// Export serializes every field, including the private key in hex. An empty
// display name is written as null, so empty and absent names are the same
// after Import.
// WARNING: the result is secret key material. Callers own its storage and
// transmission; nothing here encrypts it.
func (id *Identity) Export() (string, error) {
	rec := exportedIdentity{
		Identifier: id.Identifier(),
		PublicKey:  id.PublicKeyHex(),
		PrivateKey: crypto.EncodeHex(id.privateKey),
		CreatedAt:  id.createdAt,
	}
	if id.displayName != "" {
		name := id.displayName
		rec.DisplayName = &name
	}
	return marshalPretty(rec)
}

// Import restores an identity produced by Export. The key pair must be
// consistent and the stored identifier must match the public key.
func Import(data string) (*Identity, error) {
	var rec exportedIdentity
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("identity: decode export: %w", err)
	}
	pub, err := crypto.DecodeKey(rec.PublicKey, crypto.PublicKeySize)
	if err != nil {
		return nil, fmt.Errorf("identity: public_key: %w", err)
	}
	priv, err := crypto.DecodeKey(rec.PrivateKey, crypto.PrivateKeySize)
	if err != nil {
		return nil, fmt.Errorf("identity: private_key: %w", err)
	}
	ns, _, err := ParseDID(rec.Identifier)
	if err != nil {
		return nil, err
	}
	if err := MatchesPublicKey(rec.Identifier, pub); err != nil {
		return nil, err
	}
	name := ""
	if rec.DisplayName != nil {
		name = *rec.DisplayName
	}
	return FromKeyPair(crypto.KeyPair{PublicKey: pub, PrivateKey: priv}, name, rec.CreatedAt, WithNamespace(ns))
}

// Equal reports whether two identities hold the same key material and metadata.
func (id *Identity) Equal(other *Identity) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.namespace == other.namespace &&
		id.displayName == other.displayName &&
		id.createdAt == other.createdAt &&
		bytes.Equal(id.publicKey, other.publicKey) &&
		subtle.ConstantTimeCompare(id.privateKey, other.privateKey) == 1
}

func (id *Identity) String() string {
	if id.displayName == "" {
		return fmt.Sprintf("Identity(%s)", id.Identifier())
	}
	return fmt.Sprintf("Identity(%s, name=%q)", id.Identifier(), id.displayName)
}

// GoString keeps %#v from dumping the private key.
func (id *Identity) GoString() string { return id.String() }

// LogValue keeps the private key out of structured logs.
func (id *Identity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("identifier", id.Identifier()),
		slog.String("display_name", id.displayName),
		slog.String("public_key", id.PublicKeyHex()),
	)
}

func marshalPretty(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
