// Package quic carries the daemon's control streams over QUIC.
package quic

import (
	"context"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

type (
	Conn   = q.Connection
	Stream = q.Stream
)

// Application error codes used when closing connections.
const (
	CodeNoError  q.ApplicationErrorCode = 0
	CodeProtocol q.ApplicationErrorCode = 1
)

func config() *q.Config {
	return &q.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}
}

// Listener accepts QUIC connections speaking the rootless ALPN.
type Listener struct {
	inner *q.Listener
}

// Listen binds addr with a self-signed certificate.
func Listen(addr string) (*Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, config())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

func (l *Listener) Accept(ctx context.Context) (Conn, error) {
	return l.inner.Accept(ctx)
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) AddrString() string {
	if l.inner == nil {
		return ""
	}
	return l.inner.Addr().String()
}

func (l *Listener) Close() error { return l.inner.Close() }

// Dial connects to a Listener at addr.
func Dial(ctx context.Context, addr string) (Conn, error) {
	tlsConf, err := NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	return q.DialAddr(ctx, addr, tlsConf, config())
}
