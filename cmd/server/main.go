package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sumire/issuetracker/internal/clock"
	"github.com/sumire/issuetracker/internal/config"
	"github.com/sumire/issuetracker/internal/handler"
	"github.com/sumire/issuetracker/internal/logging"
	"github.com/sumire/issuetracker/internal/repository"
	"github.com/sumire/issuetracker/internal/service"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(cfg.LogLevel)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	slog.Info("store connected", "driver", cfg.StoreDriver)

	clk := clock.Real()
	deps := handler.Deps{
		Issues:      service.NewIssueService(store, clk),
		CORSOrigins: cfg.CORSOrigins,
	}

	if cfg.AuthEnabled() {
		deps.Auth = service.NewAuthService(clk, service.AuthConfig{
			GoogleClientID:     cfg.GoogleClientID,
			GoogleClientSecret: cfg.GoogleClientSecret,
			GitHubClientID:     cfg.GitHubClientID,
			GitHubClientSecret: cfg.GitHubClientSecret,
			JWTSecret:          cfg.JWTSecret,
			BaseURL:            cfg.BaseURL,
		})
		slog.Info("authentication enabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore connects the configured backend and applies migrations for SQL
// stores. The returned func releases the connection.
func openStore(cfg config.Config) (service.IssueStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := repository.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("disconnect mongo", "error", err)
			}
		}
		return repository.NewMongoIssueRepository(client.Database(cfg.MongoDatabase)), closeFn, nil

	case config.DriverPostgres, config.DriverSQLite:
		open := repository.OpenSQLite
		dsn := cfg.SQLitePath
		if cfg.StoreDriver == config.DriverPostgres {
			open = repository.OpenPostgres
			dsn = cfg.DatabaseURL
		}

		db, err := open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		repo := repository.NewSQLIssueRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
