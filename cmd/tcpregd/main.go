package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omochice/tcp-registry/internal/config"
	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/observability"
	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to tcpregd.yaml (default: search ., ./configs, ~/.tcpreg)")
	listen := flag.String("listen", "", "Gateway listen address, overrides gateway.listen (e.g., :7070)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcpregd: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Gateway.Listen = *listen
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcpregd: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("tcpregd stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("tcpregd stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := event.NewHub()
	manager := registry.NewManager(registry.New(), hub,
		registry.WithLogger(logger.Named("registry")),
		registry.WithGracePeriod(cfg.Registry.GracePeriod),
		registry.WithReadBufferSize(cfg.Registry.ReadBufferSize),
	)
	defer manager.Close()

	srv := server.New(cfg.Gateway.Listen, manager, hub, logger.Named("gateway"))
	if err := srv.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.Stop()
		return nil
	})
	return g.Wait()
}
