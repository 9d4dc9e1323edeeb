// Package main implements the HTTP service for the inventory ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/stockledger/internal/ledger/app"
	"github.com/abgdnv/stockledger/internal/ledger/config"
	"github.com/abgdnv/stockledger/pkg/bootstrap"
	"github.com/abgdnv/stockledger/pkg/config/configloader"
	"github.com/abgdnv/stockledger/pkg/messaging"
	pubnats "github.com/abgdnv/stockledger/pkg/nats"
	"golang.org/x/sync/errgroup"
)

const serviceName = "ledger"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, opens the persistence backend, and starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps, err := app.SetupDependencies(ctx, cfg, publisher, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}
	defer func() {
		if err := deps.Store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()
	logger.Info("Ledger store ready", "driver", cfg.Store.Driver)

	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newPublisher connects to JetStream when NATS is enabled, ensures the event
// stream exists, and falls back to a no-op publisher otherwise.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS is disabled, events will not be published")
		return messaging.NoopPublisher{}, nil
	}
	natsConn, err := pubnats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS connection: %w", err)
	}
	js, err := pubnats.NewJetStreamContext(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}
	if err := pubnats.EnsureLedgerStream(ctx, js); err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	logger.Info("Connected to NATS", "url", cfg.Nats.Url)
	return pubnats.NewNatsPublisher(js), nil
}
