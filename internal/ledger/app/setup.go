// Package app contains the application setup for the ledger service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/stockledger/internal/ledger/config"
	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/internal/ledger/store"
	"github.com/abgdnv/stockledger/internal/ledger/transport/rest"
	"github.com/abgdnv/stockledger/pkg/bootstrap"
	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/abgdnv/stockledger/pkg/server"

	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	LedgerService service.LedgerService
	Store         store.LedgerStore
	Logger        *slog.Logger
}

// SetupDependencies wires the persistence backend selected by the store
// driver into the ledger service. The returned store must be closed by the
// caller on shutdown.
func SetupDependencies(ctx context.Context, cfg *config.Config, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := service.NewService(ctx, st, publisher, logger)
	if err != nil {
		closeErr := st.Close()
		if closeErr != nil {
			logger.Error("failed to close store", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize ledger service: %w", err)
	}

	return &Dependencies{
		LedgerService: svc,
		Store:         st,
		Logger:        logger,
	}, nil
}

// newStore creates the persistence backend named by the store driver.
func newStore(cfg *config.Config) (store.LedgerStore, error) {
	switch cfg.Store.Driver {
	case "bolt":
		db, err := bootstrap.NewBoltDB(cfg.Store.Bolt.Path, cfg.Store.Bolt.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt database: %w", err)
		}
		return store.NewBoltStore(db), nil
	case "postgres":
		if err := store.Migrate(cfg.Store.Database.URL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		dbPool, err := bootstrap.NewDbPool(context.Background(), cfg.Store.Database.URL, cfg.Store.Database.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		return store.NewPgStore(dbPool), nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}

// SetupHttpHandler initializes the HTTP server and routes for the ledger application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the ledger application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	ledgerHandler := rest.NewHandler(deps.LedgerService, deps.Logger)
	ledgerHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the ledger application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
