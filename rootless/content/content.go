package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RootlessNet/protocol/rootless/crypto"
	"github.com/RootlessNet/protocol/rootless/identity"
)

// Verification failures wrap crypto.ErrVerificationFailed.
var (
	ErrCIDMismatch        = fmt.Errorf("%w: cid does not match content", crypto.ErrVerificationFailed)
	ErrAuthorMismatch     = fmt.Errorf("%w: author does not match public key", crypto.ErrVerificationFailed)
	ErrUnknownContentType = errors.New("content: unknown content type")
)

// Signer is the part of an identity needed to author content.
type Signer interface {
	Identifier() string
	PublicKey() []byte
	Sign(data []byte) ([]byte, error)
}

// Content is a signed, content-addressed record.
//
// Fields are exported so records can be decoded and inspected. Changing any
// of CID, Author, AuthorPublicKey, Body or CreatedAt after signing makes
// Verify fail. ContentType is metadata and is not covered by the signature.
type Content struct {
	CID             string      `json:"cid"`
	Author          string      `json:"author"`
	AuthorPublicKey string      `json:"author_public_key"`
	ContentType     ContentType `json:"content_type"`
	Body            string      `json:"body"`
	CreatedAt       uint64      `json:"created_at"`
	Signature       string      `json:"signature"`
}

// Option configures New and NewTyped.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the created_at time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates signed Text content authored by author.
func New(body string, author Signer, opts ...Option) (*Content, error) {
	return create(body, author, Text, opts)
}

// NewTyped creates signed content of the given type.
func NewTyped(body string, author Signer, ct ContentType, opts ...Option) (*Content, error) {
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, string(ct))
	}
	return create(body, author, ct, opts)
}

func create(body string, author Signer, ct ContentType, opts []Option) (*Content, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	did := author.Identifier()
	createdAt := uint64(o.now().Unix())
	cid := ComputeCID(did, body, createdAt)

	sig, err := author.Sign(SigningPayload(cid, did, body, createdAt))
	if err != nil {
		return nil, fmt.Errorf("content: sign: %w", err)
	}
	return &Content{
		CID:             cid,
		Author:          did,
		AuthorPublicKey: crypto.EncodeHex(author.PublicKey()),
		ContentType:     ct,
		Body:            body,
		CreatedAt:       createdAt,
		Signature:       crypto.EncodeHex(sig),
	}, nil
}

// Verify rebuilds the signing payload from the stored fields and checks the
// signature under AuthorPublicKey. It also checks that Author is the DID of
// AuthorPublicKey and that CID addresses the record. A nil return is the only
// success; every failure wraps crypto.ErrVerificationFailed or
// crypto.ErrInvalidKey.
func (c *Content) Verify() error {
	pub, err := crypto.DecodeKey(c.AuthorPublicKey, crypto.PublicKeySize)
	if err != nil {
		return fmt.Errorf("content: author_public_key: %w", err)
	}
	if err := identity.MatchesPublicKey(c.Author, pub); err != nil {
		return fmt.Errorf("%w (%v)", ErrAuthorMismatch, err)
	}
	if ComputeCID(c.Author, c.Body, c.CreatedAt) != c.CID {
		return ErrCIDMismatch
	}
	sig, err := crypto.DecodeHex(c.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", crypto.ErrVerificationFailed)
	}
	if err := crypto.Verify(pub, c.SigningPayload(), sig); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	return nil
}

// SigningPayload returns the exact bytes the author signed.
func (c *Content) SigningPayload() []byte {
	return SigningPayload(c.CID, c.Author, c.Body, c.CreatedAt)
}

// Export returns the record as indented JSON with a stable field order.
func (c *Content) Export() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Import parses an exported record. It does not verify it.
func Import(data string) (*Content, error) {
	var c Content
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("content: decode: %w", err)
	}
	if c.CID == "" || c.Author == "" {
		return nil, fmt.Errorf("content: decode: missing cid or author")
	}
	if c.ContentType == "" {
		c.ContentType = Text
	}
	return &c, nil
}
