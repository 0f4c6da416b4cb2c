package rootless

import (
	"context"
	"errors"

	"github.com/RootlessNet/protocol/rootless/protocol"
	"github.com/RootlessNet/protocol/rootless/service"
	"github.com/RootlessNet/protocol/rootless/transport/quic"
)

// ErrNotListening is returned by Serve before Listen succeeds.
var ErrNotListening = errors.New("node is not listening")

// Node is a high-level helper that combines the service with a QUIC listener.
type Node struct {
	svc      *service.Service
	codec    protocol.Codec
	listener *quic.Listener
}

// NewNode wraps svc. Call Listen before Serve.
func NewNode(svc *service.Service, codec protocol.Codec) *Node {
	return &Node{svc: svc, codec: codec}
}

// Listen binds the QUIC listener.
func (n *Node) Listen(addr string) error {
	ln, err := quic.Listen(addr)
	if err != nil {
		return err
	}
	n.listener = ln
	return nil
}

// ListenAddr is empty until Listen succeeds.
func (n *Node) ListenAddr() string {
	if n.listener == nil {
		return ""
	}
	return n.listener.AddrString()
}

// Serve handles clients until ctx is done. The listener is closed on return.
func (n *Node) Serve(ctx context.Context) error {
	if n.listener == nil {
		return ErrNotListening
	}
	return service.NewServer(n.svc, n.codec).Serve(ctx, n.listener)
}

// Dial connects a client to a node at addr using the node's codec.
func (n *Node) Dial(ctx context.Context, addr string, opts ...service.ClientOption) (*service.Client, error) {
	return service.Dial(ctx, addr, n.codec, opts...)
}
