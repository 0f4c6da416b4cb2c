package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RootlessNet/protocol/internal/config"
	"github.com/RootlessNet/protocol/internal/logging"
	"github.com/RootlessNet/protocol/rootless"
	"github.com/RootlessNet/protocol/rootless/directory/memory"
	"github.com/RootlessNet/protocol/rootless/messaging"
	"github.com/RootlessNet/protocol/rootless/protocol"
	"github.com/RootlessNet/protocol/rootless/service"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rootlessd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config")
	listen := flag.String("listen", "", "override listen address")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("rootlessd", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	dir, err := memory.New(cfg.DirectoryCapacity)
	if err != nil {
		return err
	}
	svc, err := service.New(service.Options{
		Namespace: cfg.Namespace,
		Messenger: messaging.NewMessenger(
			messaging.WithScheme(cfg.KeyExchange),
			messaging.WithNamespace(cfg.Namespace),
		),
		Directory: dir,
		Logger:    logger,
		AuthToken: cfg.AuthToken,
	})
	if err != nil {
		return err
	}
	if cfg.KeyExchange == messaging.SchemeLegacyHKDF {
		logger.Warn("legacy key exchange enabled: messages are decryptable by anyone holding the recipient public key")
	}

	if cfg.AuthToken == "" {
		logger.Warn("no auth token configured: keypair.generate, identity.import and identity.export are disabled")
	}

	node := rootless.NewNode(svc, protocol.Codec{CompressThreshold: cfg.CompressThreshold})
	if err := node.Listen(cfg.Listen); err != nil {
		return err
	}
	logger.Info("rootlessd listening",
		"addr", node.ListenAddr(),
		"namespace", cfg.Namespace,
		"key_exchange", cfg.KeyExchange.String(),
		"version", version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return node.Serve(ctx)
}
