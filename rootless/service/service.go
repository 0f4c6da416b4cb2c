// Package service exposes the protocol core to local clients over a QUIC
// control stream. Private keys stay in the daemon's keyring and clients refer
// to identities by DID. Methods that return or accept private keys are only
// served to requests carrying the configured auth token.
package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RootlessNet/protocol/rootless/content"
	"github.com/RootlessNet/protocol/rootless/crypto"
	"github.com/RootlessNet/protocol/rootless/directory"
	"github.com/RootlessNet/protocol/rootless/identity"
	"github.com/RootlessNet/protocol/rootless/messaging"
	"github.com/RootlessNet/protocol/rootless/protocol"
)

var errInvalidParams = errors.New("service: invalid params")

// keyMethods move private key material across the control stream.
var keyMethods = map[string]bool{
	protocol.MethodKeypairGenerate: true,
	protocol.MethodIdentityImport:  true,
	protocol.MethodIdentityExport:  true,
}

// Options configures a Service. Directory is required.
type Options struct {
	Namespace string
	Messenger *messaging.Messenger
	Directory directory.Resolver
	Logger    *slog.Logger
	// AuthToken must accompany keypair.generate, identity.import and
	// identity.export. When empty those methods are refused.
	AuthToken string
}

// Service dispatches requests to the protocol packages.
type Service struct {
	namespace string
	keyring   *Keyring
	messenger *messaging.Messenger
	directory directory.Resolver
	logger    *slog.Logger
	authToken []byte
	handlers  map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// New builds a Service with an empty keyring.
func New(opts Options) (*Service, error) {
	if opts.Directory == nil {
		return nil, errors.New("service: directory is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = identity.DefaultNamespace
	}
	if opts.Messenger == nil {
		opts.Messenger = messaging.NewMessenger(messaging.WithNamespace(opts.Namespace))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{
		namespace: opts.Namespace,
		keyring:   NewKeyring(),
		messenger: opts.Messenger,
		directory: opts.Directory,
		logger:    opts.Logger,
		authToken: []byte(opts.AuthToken),
	}
	s.handlers = map[string]handlerFunc{
		protocol.MethodKeypairGenerate:  s.keypairGenerate,
		protocol.MethodIdentityCreate:   s.identityCreate,
		protocol.MethodIdentityImport:   s.identityImport,
		protocol.MethodIdentityExport:   s.identityExport,
		protocol.MethodIdentityPublic:   s.identityPublic,
		protocol.MethodContentCreate:    s.contentCreate,
		protocol.MethodContentVerify:    s.contentVerify,
		protocol.MethodMessageEncrypt:   s.messageEncrypt,
		protocol.MethodMessageDecrypt:   s.messageDecrypt,
		protocol.MethodDirectoryPublish: s.directoryPublish,
		protocol.MethodDirectoryResolve: s.directoryResolve,
		protocol.MethodDirectoryList:    s.directoryList,
	}
	return s, nil
}

// Keyring exposes the identities held by the service.
func (s *Service) Keyring() *Keyring { return s.keyring }

// Handle runs one request. It never returns a nil response.
func (s *Service) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	log := s.logger.With("request_id", req.ID, "method", req.Method)
	if req.ID == "" || req.Method == "" {
		return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidRequest, "id and method are required")
	}
	h, ok := s.handlers[req.Method]
	if !ok {
		log.Debug("unknown method")
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound, req.Method)
	}
	if keyMethods[req.Method] && !s.authorized(req.Token) {
		log.Warn("unauthorized request")
		return protocol.NewErrorResponse(req.ID, protocol.CodeUnauthorized, "method requires a valid auth token")
	}
	result, err := h(ctx, req.Params)
	if err != nil {
		code := errorCode(err)
		log.Warn("request failed", "code", code, "err", err)
		return protocol.NewErrorResponse(req.ID, code, err.Error())
	}
	resp, err := protocol.NewResult(req.ID, result)
	if err != nil {
		log.Error("encode result", "err", err)
		return protocol.NewErrorResponse(req.ID, protocol.CodeInternal, "encode result")
	}
	log.Debug("request served")
	return resp
}

func (s *Service) authorized(token string) bool {
	if len(s.authToken) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), s.authToken) == 1
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errInvalidParams), errors.Is(err, content.ErrUnknownContentType):
		return protocol.CodeInvalidParams
	case errors.Is(err, ErrUnknownIdentity), errors.Is(err, directory.ErrNotFound):
		return protocol.CodeNotFound
	case errors.Is(err, crypto.ErrInvalidKey),
		errors.Is(err, identity.ErrInvalidDID),
		errors.Is(err, identity.ErrIdentifierMismatch):
		return protocol.CodeInvalidKey
	case errors.Is(err, crypto.ErrVerificationFailed):
		return protocol.CodeVerificationFailed
	case errors.Is(err, crypto.ErrEncryptionFailed):
		return protocol.CodeEncryptionFailed
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return protocol.CodeDecryptionFailed
	case errors.Is(err, crypto.ErrKeyDerivationFailed):
		return protocol.CodeKeyDerivationFailed
	default:
		return protocol.CodeInternal
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Service) keypairGenerate(_ context.Context, _ json.RawMessage) (any, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return protocol.KeypairResult{
		PublicKey:  crypto.EncodeHex(kp.PublicKey),
		PrivateKey: crypto.EncodeHex(kp.PrivateKey),
	}, nil
}

func (s *Service) identityCreate(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.CreateIdentityParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	id, err := identity.New(p.DisplayName, identity.WithNamespace(s.namespace))
	if err != nil {
		return nil, err
	}
	return s.adopt(id)
}

func (s *Service) identityImport(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.ImportIdentityParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	id, err := identity.Import(p.Export)
	if err != nil {
		return nil, err
	}
	return s.adopt(id)
}

// adopt stores id in the keyring and publishes its public record.
func (s *Service) adopt(id *identity.Identity) (identity.Public, error) {
	pub := id.Public()
	if err := s.directory.Publish(pub); err != nil {
		return identity.Public{}, err
	}
	s.keyring.Add(id)
	s.logger.Info("identity added", "identifier", pub.Identifier)
	return pub, nil
}

func (s *Service) identityExport(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.IdentifierParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	id, err := s.keyring.Get(p.Identifier)
	if err != nil {
		return nil, err
	}
	export, err := id.Export()
	if err != nil {
		return nil, err
	}
	s.logger.Warn("identity exported", "identifier", p.Identifier)
	return protocol.ExportIdentityResult{Export: export}, nil
}

func (s *Service) identityPublic(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.IdentifierParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if id, err := s.keyring.Get(p.Identifier); err == nil {
		return id.Public(), nil
	}
	return s.directory.Resolve(p.Identifier)
}

func (s *Service) contentCreate(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.CreateContentParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	author, err := s.keyring.Get(p.Author)
	if err != nil {
		return nil, err
	}
	ct := p.ContentType
	if ct == "" {
		ct = content.Text
	}
	return content.NewTyped(p.Body, author, ct)
}

func (s *Service) contentVerify(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.VerifyContentParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	err := p.Content.Verify()
	switch {
	case err == nil:
		return protocol.VerifyContentResult{Valid: true}, nil
	case errors.Is(err, crypto.ErrVerificationFailed):
		return protocol.VerifyContentResult{Valid: false, Reason: err.Error()}, nil
	default:
		return nil, err
	}
}

func (s *Service) messageEncrypt(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.EncryptParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	sender, err := s.keyring.Get(p.Sender)
	if err != nil {
		return nil, err
	}
	recipientKey := p.RecipientPublicKey
	if recipientKey == "" {
		if p.Recipient == "" {
			return nil, fmt.Errorf("%w: recipient or recipient_public_key is required", errInvalidParams)
		}
		rec, err := s.directory.Resolve(p.Recipient)
		if err != nil {
			return nil, err
		}
		recipientKey = rec.PublicKey
	}
	pub, err := crypto.DecodeKey(recipientKey, crypto.PublicKeySize)
	if err != nil {
		return nil, fmt.Errorf("service: recipient public key: %w", err)
	}
	env, err := s.messenger.Seal(p.Plaintext, sender, pub)
	if err != nil {
		return nil, err
	}
	encoded, err := env.Encode()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("message sealed", "message_id", env.MessageID, "sender", p.Sender)
	return protocol.EncryptResult{Envelope: encoded}, nil
}

func (s *Service) messageDecrypt(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.DecryptParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	recipient, err := s.keyring.Get(p.Recipient)
	if err != nil {
		return nil, err
	}
	pt, err := s.messenger.Decrypt(p.Envelope, recipient, p.SenderPublicKey)
	if err != nil {
		if messaging.IsAuthFailure(err) {
			s.logger.Info("envelope did not authenticate", "recipient", p.Recipient)
		}
		return nil, err
	}
	return protocol.DecryptResult{Plaintext: pt}, nil
}

func (s *Service) directoryPublish(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.PublishParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	if err := s.directory.Publish(p.Record); err != nil {
		return nil, err
	}
	return p.Record, nil
}

func (s *Service) directoryResolve(_ context.Context, raw json.RawMessage) (any, error) {
	var p protocol.IdentifierParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return s.directory.Resolve(p.Identifier)
}

func (s *Service) directoryList(_ context.Context, _ json.RawMessage) (any, error) {
	recs, err := s.directory.List()
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []identity.Public{}
	}
	return protocol.ListResult{Records: recs}, nil
}
