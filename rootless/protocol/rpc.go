package protocol

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/RootlessNet/protocol/rootless/content"
	"github.com/RootlessNet/protocol/rootless/identity"
)

// Methods served over the control stream.
const (
	MethodKeypairGenerate  = "keypair.generate"
	MethodIdentityCreate   = "identity.create"
	MethodIdentityImport   = "identity.import"
	MethodIdentityExport   = "identity.export"
	MethodIdentityPublic   = "identity.public"
	MethodContentCreate    = "content.create"
	MethodContentVerify    = "content.verify"
	MethodMessageEncrypt   = "message.encrypt"
	MethodMessageDecrypt   = "message.decrypt"
	MethodDirectoryPublish = "directory.publish"
	MethodDirectoryResolve = "directory.resolve"
	MethodDirectoryList    = "directory.list"
)

// Error codes carried in Error.Code.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeMethodNotFound      = "method_not_found"
	CodeInvalidParams       = "invalid_params"
	CodeInvalidKey          = "invalid_key"
	CodeVerificationFailed  = "verification_failed"
	CodeEncryptionFailed    = "encryption_failed"
	CodeDecryptionFailed    = "decryption_failed"
	CodeKeyDerivationFailed = "key_derivation_failed"
	CodeNotFound            = "not_found"
	CodeUnauthorized        = "unauthorized"
	CodeInternal            = "internal"
)

// Request is one call on the control stream. Token is only checked by
// methods that carry private keys.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Token  string          `json:"token,omitempty"`
}

// Response answers the Request with the same ID. Exactly one of Result and
// Error is set.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is a failed call as seen by the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// NewRequest assigns a fresh UUIDv4 id.
func NewRequest(method string, params any) (Request, error) {
	req := Request{ID: uuid.NewString(), Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("protocol: encode params: %w", err)
		}
		req.Params = b
	}
	return req, nil
}

// NewResult encodes result as the answer to request id.
func NewResult(id string, result any) (Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("protocol: encode result: %w", err)
	}
	return Response{ID: id, Result: b}, nil
}

// NewErrorResponse answers request id with a failure.
func NewErrorResponse(id, code, message string) Response {
	return Response{ID: id, Error: &Error{Code: code, Message: message}}
}

// Decode unmarshals the result into v, or returns the remote error.
func (r Response) Decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

// WriteRequest sends req as a Request frame.
func (c Codec) WriteRequest(w io.Writer, req Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.Write(w, MessageTypeRequest, b)
}

func (c Codec) WriteResponse(w io.Writer, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.Write(w, MessageTypeResponse, b)
}

// ReadRequest reads the next request frame. A Close frame yields io.EOF.
func (c Codec) ReadRequest(r io.Reader) (Request, error) {
	t, payload, err := c.Read(r)
	if err != nil {
		return Request{}, err
	}
	switch t {
	case MessageTypeRequest:
	case MessageTypeClose:
		return Request{}, io.EOF
	default:
		return Request{}, fmt.Errorf("%w: expected %s, got %s", ErrInvalidType, MessageTypeRequest, t)
	}
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, fmt.Errorf("protocol: decode request: %w", err)
	}
	return req, nil
}

// ReadResponse reads the next frame, which must be a Response.
func (c Codec) ReadResponse(r io.Reader) (Response, error) {
	t, payload, err := c.Read(r)
	if err != nil {
		return Response{}, err
	}
	if t != MessageTypeResponse {
		return Response{}, fmt.Errorf("%w: expected %s, got %s", ErrInvalidType, MessageTypeResponse, t)
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, fmt.Errorf("protocol: decode response: %w", err)
	}
	return resp, nil
}

// Parameter and result shapes.

// KeypairResult carries both keys in hex.
type KeypairResult struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

type CreateIdentityParams struct {
	DisplayName string `json:"display_name,omitempty"`
}

type ImportIdentityParams struct {
	Export string `json:"export"`
}

// IdentifierParams names an identity by DID.
type IdentifierParams struct {
	Identifier string `json:"identifier"`
}

// ExportIdentityResult holds identity.Export output, private key included.
type ExportIdentityResult struct {
	Export string `json:"export"`
}

// CreateContentParams signs Body as Author. ContentType defaults to text.
type CreateContentParams struct {
	Author      string              `json:"author"`
	Body        string              `json:"body"`
	ContentType content.ContentType `json:"content_type,omitempty"`
}

type VerifyContentParams struct {
	Content content.Content `json:"content"`
}

// VerifyContentResult reports a bad signature as Valid=false, not an error.
type VerifyContentResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// EncryptParams names the recipient by public key, or by identifier to be
// resolved through the directory.
type EncryptParams struct {
	Sender             string `json:"sender"`
	Recipient          string `json:"recipient,omitempty"`
	RecipientPublicKey string `json:"recipient_public_key,omitempty"`
	Plaintext          string `json:"plaintext"`
}

type EncryptResult struct {
	Envelope string `json:"envelope"`
}

// DecryptParams opens Envelope as Recipient from SenderPublicKey.
type DecryptParams struct {
	Recipient       string `json:"recipient"`
	SenderPublicKey string `json:"sender_public_key"`
	Envelope        string `json:"envelope"`
}

type DecryptResult struct {
	Plaintext string `json:"plaintext"`
}

type PublishParams struct {
	Record identity.Public `json:"record"`
}

// ListResult is ordered by identifier.
type ListResult struct {
	Records []identity.Public `json:"records"`
}
