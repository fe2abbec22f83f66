// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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

	"github.com/starford/enexmd/internal/api"
	"github.com/starford/enexmd/internal/apperr"
	"github.com/starford/enexmd/internal/catalog"
	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/enex"
	"github.com/starford/enexmd/internal/inbox"
	"github.com/starford/enexmd/internal/markdown"
	"github.com/starford/enexmd/internal/mcpserver"
	"github.com/starford/enexmd/internal/models"
	"github.com/starford/enexmd/internal/noteservice"
	"github.com/starford/enexmd/internal/render"
	"github.com/starford/enexmd/internal/sse"
	"github.com/starford/enexmd/internal/storage"
)

func setupLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openCatalog returns a nil DB when the catalog is disabled.
func openCatalog(cfg CatalogConfig) (*catalog.DB, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	db, err := catalog.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	return db, nil
}

// catalogOf keeps a nil *catalog.DB from becoming a non-nil interface.
func catalogOf(db *catalog.DB) catalog.Catalog {
	if db == nil {
		return nil
	}
	return db
}

func (a *application) converterOptions(cat catalog.Catalog) []converter.Option {
	opts := []converter.Option{
		converter.WithRenderer(render.New(a.config.Renderer)),
		converter.WithClock(a.clock),
		converter.WithTimestampFormat(a.config.Output.TimestampFormat),
		converter.WithFormat(markdown.Options{Frontmatter: a.config.Output.Frontmatter}),
	}
	if cat != nil {
		opts = append(opts, converter.WithCatalog(cat))
	}
	return opts
}

// Convert converts every input archive according to the configured output mode.
// A missing input aborts the run with an error wrapping apperr.ErrInputNotFound.
func Convert(ctx context.Context, inputs []string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input file given: %w", apperr.ErrInputNotFound)
	}
	cfg := app.config

	if cfg.Output.Mode == OutputModeStdout {
		// The Markdown stream owns stdout.
		logger := setupLogger(cfg, os.Stderr)
		conv := converter.New(nil, logger, converter.WithRenderer(render.New(cfg.Renderer)))
		for _, input := range inputs {
			logger.Info("Processing input file", slog.String("input", input))
			notes, err := enex.ReadFile(input)
			if err != nil {
				return err
			}
			if err := conv.ConvertToStdout(ctx, notes, app.stdout); err != nil {
				return err
			}
		}
		return nil
	}

	logger := setupLogger(cfg, os.Stdout)
	logger.Info("Configuration loaded",
		slog.String("output_root", cfg.Output.Root),
		slog.Bool("catalog", cfg.Catalog.Enabled),
		slog.Bool("frontmatter", cfg.Output.Frontmatter),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Output.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	conv := converter.New(store, logger, app.converterOptions(catalogOf(db))...)
	for _, input := range inputs {
		stats, err := conv.ConvertFile(ctx, input)
		if err != nil {
			return fmt.Errorf("convert %s: %w", input, err)
		}
		if stats.FailedAttachments > 0 {
			logger.Warn("Some attachments could not be written",
				slog.String("input", input),
				slog.Int("failed_attachments", stats.FailedAttachments))
		}
	}
	return nil
}

// Search prints catalog matches for query, one "path<TAB>title" line each.
func Search(ctx context.Context, query string, limit int, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	setupLogger(cfg, os.Stderr)

	if !cfg.Catalog.Enabled {
		return apperr.ErrCatalogDisabled
	}
	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	results, err := db.Search(query, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(app.stdout, "%s\t%s\n", r.Path, r.Title); err != nil {
			return err
		}
	}
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// stdout carries the protocol.
	logger := setupLogger(cfg, os.Stderr)

	store, err := storage.NewFS(cfg.Output.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := catalog.Sync(db, store, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	cat := catalogOf(db)
	conv := converter.New(store, logger, app.converterOptions(cat)...)
	svc := noteservice.NewService(store, cat, conv)

	logger.Info("MCP server starting", slog.String("output_root", store.Root()))
	return mcpserver.New(store, svc).ServeStdio()
}

// Run starts the HTTP server and, when configured, the inbox watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := setupLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("output_root", cfg.Output.Root),
		slog.Bool("catalog", cfg.Catalog.Enabled),
		slog.String("inbox", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Output.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := catalog.Sync(db, store, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}
	cat := catalogOf(db)

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	convOpts := append(app.converterOptions(cat), converter.WithNoteHook(func(n models.WrittenNote) {
		broker.PublishNote(n.Path, n.Title)
	}))
	conv := converter.New(store, logger, convOpts...)

	svc := noteservice.NewService(store, cat, conv)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, store.Root())

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// A shutdown signal cancels every goroutine of the group, the inbox
	// watcher included.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Inbox.Path != "" {
		inboxStore, err := storage.NewFS(cfg.Inbox.Path)
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		watcher := inbox.New(inboxStore, cfg.Inbox.Debounce, conv, broker, logger)
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
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
