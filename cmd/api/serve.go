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

	"github.com/spf13/cobra"

	"github.com/sudeengin/DnDbug-sub002/internal/app"
	"github.com/sudeengin/DnDbug-sub002/internal/config"
	"github.com/sudeengin/DnDbug-sub002/internal/generator"
	"github.com/sudeengin/DnDbug-sub002/internal/history"
	"github.com/sudeengin/DnDbug-sub002/internal/store"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}

	service := app.New(cfg, backend, backend, history.New(cfg.HistoryDir), gen, logger)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.Addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

// storeBackend holds sessions and projects in one place.
type storeBackend interface {
	app.SessionStore
	app.ProjectStore
}

// openStore selects the backend. The postgres backend applies pending
// migrations before serving.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storeBackend, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		applied, err := store.ApplyMigrations(ctx, db, os.DirFS(cfg.MigrationsDir))
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations failed: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "versions", applied)
		}
		pg := store.NewPostgresStore(db)
		return pg, func() { _ = pg.Close() }, nil
	default:
		rs, err := store.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return rs, func() { _ = rs.Close() }, nil
	}
}

func newGenerator(cfg config.Config, logger *slog.Logger) (generator.Generator, error) {
	if !cfg.GeneratorEnabled() {
		logger.Warn("OPENAI_API_KEY not set, using the built-in mock generator")
		return generator.New(generator.MockLLM{}), nil
	}
	llm, err := generator.NewOpenAILLM(generator.LLMSettings{
		Model:   cfg.OpenAIModel,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure generator: %w", err)
	}
	return generator.New(llm), nil
}
