package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RootlessNet/protocol/rootless/protocol"
	"github.com/RootlessNet/protocol/rootless/transport/quic"
)

// Server accepts QUIC connections and serves one request loop per stream.
type Server struct {
	svc    *Service
	codec  protocol.Codec
	logger *slog.Logger
}

// NewServer logs through the service logger.
func NewServer(svc *Service, codec protocol.Codec) *Server {
	return &Server{svc: svc, codec: codec, logger: svc.logger}
}

// Serve blocks until ctx is cancelled or the listener fails. It closes ln.
func (srv *Server) Serve(ctx context.Context, ln *quic.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("service: accept: %w", err)
			}
			g.Go(func() error {
				srv.serveConn(ctx, conn)
				return nil
			})
		}
	})
	err := g.Wait()
	srv.logger.Info("server stopped", "identities", srv.svc.keyring.Len())
	return err
}

func (srv *Server) serveConn(ctx context.Context, conn quic.Conn) {
	log := srv.logger.With("remote", conn.RemoteAddr().String())
	log.Debug("connection accepted")

	var wg sync.WaitGroup
	defer func() {
		_ = conn.CloseWithError(quic.CodeNoError, "")
		wg.Wait()
	}()
	for {
		str, err := conn.AcceptStream(ctx)
		if err != nil {
			log.Debug("connection closed", "err", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.serveStream(ctx, str, log)
		}()
	}
}

func (srv *Server) serveStream(ctx context.Context, str quic.Stream, log *slog.Logger) {
	defer str.Close()
	for {
		req, err := srv.codec.ReadRequest(str)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("stream read failed", "err", err)
			}
			return
		}
		resp := srv.svc.Handle(ctx, req)
		if err := srv.codec.WriteResponse(str, resp); err != nil {
			log.Debug("stream write failed", "err", err)
			return
		}
	}
}
