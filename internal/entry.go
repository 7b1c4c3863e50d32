// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ebullient/obsidian-journal-reflect/internal/api"
	"github.com/ebullient/obsidian-journal-reflect/internal/convo"
	"github.com/ebullient/obsidian-journal-reflect/internal/expand"
	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
	"github.com/ebullient/obsidian-journal-reflect/internal/index"
	"github.com/ebullient/obsidian-journal-reflect/internal/mcpserver"
	"github.com/ebullient/obsidian-journal-reflect/internal/ollama"
	"github.com/ebullient/obsidian-journal-reflect/internal/pattern"
	"github.com/ebullient/obsidian-journal-reflect/internal/prompt"
	"github.com/ebullient/obsidian-journal-reflect/internal/sse"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

// components holds everything shared between the HTTP and MCP modes.
type components struct {
	store  *storage.FS
	db     *index.DB
	svc    *generate.Service
	convo  *convo.Store
	logger *slog.Logger
}

// buildComponents initializes storage, the catalog, and the generation
// service. notify may be nil (MCP mode has no event stream).
func buildComponents(cfg *Config, notify generate.Notifier) (*components, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	slots := cfg.Reflect.Slots()
	globalPatterns := pattern.Compile(cfg.Reflect.ExcludePatterns)

	var promptNotify prompt.Notifier
	if notify != nil {
		promptNotify = notify
	}

	convoStore := convo.NewStore()
	svc := generate.NewService(
		store,
		slots,
		prompt.NewResolver(store, slots, promptNotify),
		expand.New(store, db, globalPatterns),
		convoStore,
		ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.KeepAlive),
		generate.Settings{ServerURL: cfg.Ollama.URL, DefaultModel: cfg.Ollama.Model},
		notify,
	)

	return &components{
		store:  store,
		db:     db,
		svc:    svc,
		convo:  convoStore,
		logger: logger,
	}, nil
}

// Run starts the HTTP server, vault watcher, and conversation reaper.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := buildComponents(cfg, broker)
	if err != nil {
		return err
	}
	defer c.db.Close()
	logger := c.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("ollama_url", cfg.Ollama.URL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	apiRouter := api.NewRouter(c.svc, c.db, c.store, broker,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, c.db, c.store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		})
	})

	// Reap expired conversation state.
	g.Go(func() error {
		c.convo.Reap(gCtx, logger)
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout. Logging goes to stderr so
// it cannot corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	c, err := buildComponents(app.config, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	c.logger.Info("Starting MCP server on stdio",
		slog.String("vault_path", app.config.Vault.Path))

	srv := mcpserver.New(c.svc, c.store)
	return srv.ServeStdio()
}
