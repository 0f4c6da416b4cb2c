package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RootlessNet/protocol/rootless/content"
	"github.com/RootlessNet/protocol/rootless/identity"
	"github.com/RootlessNet/protocol/rootless/protocol"
	"github.com/RootlessNet/protocol/rootless/transport/quic"
)

// Client issues requests over a single control stream. Calls are serialized.
type Client struct {
	conn   quic.Conn
	stream quic.Stream
	codec  protocol.Codec
	token  string

	mu sync.Mutex
}

// ClientOption configures Dial.
type ClientOption func(*Client)

// WithToken attaches the daemon's auth token to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// Dial connects to the daemon at addr and opens the control stream.
func Dial(ctx context.Context, addr string, codec protocol.Codec, opts ...ClientOption) (*Client, error) {
	conn, err := quic.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	str, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(quic.CodeProtocol, "open stream")
		return nil, err
	}
	c := &Client{conn: conn, stream: str, codec: codec}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call sends method with params and decodes the result into result, which
// may be nil. Remote failures are returned as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	req, err := protocol.NewRequest(method, params)
	if err != nil {
		return err
	}
	req.Token = c.token

	c.mu.Lock()
	defer c.mu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		_ = c.stream.SetDeadline(dl)
		defer c.stream.SetDeadline(time.Time{})
	}
	if err := c.codec.WriteRequest(c.stream, req); err != nil {
		return fmt.Errorf("service: send %s: %w", method, err)
	}
	resp, err := c.codec.ReadResponse(c.stream)
	if err != nil {
		return fmt.Errorf("service: receive %s: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("service: response id %q does not match request %q", resp.ID, req.ID)
	}
	return resp.Decode(result)
}

// Close ends the control stream and the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.codec.Write(c.stream, protocol.MessageTypeClose, nil)
	_ = c.stream.Close()
	return c.conn.CloseWithError(quic.CodeNoError, "")
}

// CreateIdentity generates an identity in the daemon's keyring.
func (c *Client) CreateIdentity(ctx context.Context, displayName string) (identity.Public, error) {
	var out identity.Public
	err := c.Call(ctx, protocol.MethodIdentityCreate, protocol.CreateIdentityParams{DisplayName: displayName}, &out)
	return out, err
}

// ExportIdentity returns the full export, private key included. The client
// must hold the auth token.
func (c *Client) ExportIdentity(ctx context.Context, identifier string) (string, error) {
	var out protocol.ExportIdentityResult
	err := c.Call(ctx, protocol.MethodIdentityExport, protocol.IdentifierParams{Identifier: identifier}, &out)
	return out.Export, err
}

// ImportIdentity adds an exported identity to the keyring. The client
// must hold the auth token.
func (c *Client) ImportIdentity(ctx context.Context, export string) (identity.Public, error) {
	var out identity.Public
	err := c.Call(ctx, protocol.MethodIdentityImport, protocol.ImportIdentityParams{Export: export}, &out)
	return out, err
}

// CreateContent signs body as author inside the daemon.
func (c *Client) CreateContent(ctx context.Context, author, body string, ct content.ContentType) (*content.Content, error) {
	var out content.Content
	err := c.Call(ctx, protocol.MethodContentCreate, protocol.CreateContentParams{Author: author, Body: body, ContentType: ct}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyContent(ctx context.Context, ct *content.Content) (protocol.VerifyContentResult, error) {
	var out protocol.VerifyContentResult
	err := c.Call(ctx, protocol.MethodContentVerify, protocol.VerifyContentParams{Content: *ct}, &out)
	return out, err
}

// EncryptTo seals plaintext from sender to the identity named by recipient,
// resolving its key through the daemon's directory.
func (c *Client) EncryptTo(ctx context.Context, sender, recipient, plaintext string) (string, error) {
	var out protocol.EncryptResult
	err := c.Call(ctx, protocol.MethodMessageEncrypt, protocol.EncryptParams{Sender: sender, Recipient: recipient, Plaintext: plaintext}, &out)
	return out.Envelope, err
}

// Decrypt opens envelope with recipient's key from the keyring.
func (c *Client) Decrypt(ctx context.Context, recipient, senderPublicKey, envelope string) (string, error) {
	var out protocol.DecryptResult
	err := c.Call(ctx, protocol.MethodMessageDecrypt, protocol.DecryptParams{Recipient: recipient, SenderPublicKey: senderPublicKey, Envelope: envelope}, &out)
	return out.Plaintext, err
}
