// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/markgraph/internal/api"
	"github.com/starford/markgraph/internal/graph"
	"github.com/starford/markgraph/internal/index"
	"github.com/starford/markgraph/internal/mcpserver"
	"github.com/starford/markgraph/internal/metrics"
	"github.com/starford/markgraph/internal/siteservice"
	"github.com/starford/markgraph/internal/sse"
	"github.com/starford/markgraph/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger. Commands that own stdout
// (build, mcp) log to stderr.
func (a *application) newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newService wires storage, the search index and the site service. idx may
// be nil when search is not needed.
func (a *application) newService(logger *slog.Logger, idx index.SearchIndex, extra ...siteservice.Option) (*siteservice.Service, *storage.FS, error) {
	cfg := a.config
	store, err := storage.NewFS(cfg.Content.Path, cfg.Content.Extension)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	opts := append([]siteservice.Option{
		siteservice.WithLogger(logger),
		siteservice.WithWorkers(cfg.Content.Workers),
		siteservice.WithNeighborhoodCache(cfg.Cache.Neighborhoods),
	}, extra...)
	svc, err := siteservice.NewService(store, idx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("init service: %w", err)
	}
	return svc, store, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("extension", cfg.Content.Extension),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize SQLite search index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rec := metrics.New()
	svc, store, err := app.newService(logger, db,
		siteservice.WithMetrics(rec),
		siteservice.WithOnRebuild(func(g *graph.Graph) {
			st := g.Stats()
			broker.PublishRebuild(sse.Rebuild{
				Version:   g.Version(),
				Documents: st.Documents,
				Links:     st.Links,
				Dangling:  st.Dangling,
			})
		}))
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", rec.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Initial build, then the opt-in watcher. A failed first build is fatal.
	g.Go(func() error {
		if _, err := svc.Rebuild(gCtx); err != nil {
			return fmt.Errorf("initial build: %w", err)
		}
		if !cfg.Watch.Enabled {
			return nil
		}
		return svc.Watch(gCtx, store.Root(), cfg.Watch.Debounce)
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Streaming SSE clients would otherwise hold Shutdown open.
		broker.Close()

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

// Build builds the graph once and writes it as JSON, or only the
// neighborhood of the focus document when one is set.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	svc, _, err := app.newService(logger, nil)
	if err != nil {
		return err
	}
	g, err := svc.Rebuild(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	if app.focus != "" {
		n, err := svc.Neighborhood(ctx, graph.CanonicalID(app.focus))
		if err != nil {
			return err
		}
		return enc.Encode(n)
	}
	return enc.Encode(api.ContentGraphResponse{Graph: g.Documents()})
}

// ServeMCP builds the graph and serves the MCP tools over stdio until stdin
// closes. With watching enabled the graph keeps rebuilding in the background.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(os.Stderr)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc, store, err := app.newService(logger, db)
	if err != nil {
		return err
	}
	if _, err := svc.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	if cfg.Watch.Enabled {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := svc.Watch(watchCtx, store.Root(), cfg.Watch.Debounce); err != nil {
				logger.Error("watcher: failed", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}
