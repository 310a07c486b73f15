// Package web serves the HTTP JSON API and the WebSocket keystroke stream.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hpungsan/spark/internal/ops"
)

// bodyOverhead allows for JSON framing around an import payload.
const bodyOverhead = 64 << 10

// NewRouter builds the API routes for engine, serving the configured owner.
func NewRouter(engine *ops.Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := engine.Config()
	h := &Handlers{
		engine:    engine,
		owner:     cfg.Owner,
		logger:    logger,
		bodyLimit: int64(cfg.ImportMaxBytes)*2 + bodyOverhead,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(securityHeaders)

	r.Route("/api", func(r chi.Router) {
		r.Get("/folders", h.HandleListFolders)
		r.Post("/folders", h.HandleCreateFolder)
		r.Patch("/folders/{id}", h.HandleUpdateFolder)
		r.Delete("/folders/{id}", h.HandleDeleteFolder)

		r.Get("/snippets", h.HandleListSnippets)
		r.Post("/snippets", h.HandleCreateSnippet)
		r.Patch("/snippets/{id}", h.HandleUpdateSnippet)
		r.Delete("/snippets/{id}", h.HandleDeleteSnippet)
		r.Get("/snippets/{id}/preview", h.HandlePreview)

		r.Post("/import", h.HandleImport)
		r.Get("/export", h.HandleExportInline)
		r.Post("/export", h.HandleExportFile)

		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings", h.HandleUpdateSettings)

		r.Post("/keystrokes", h.HandleKeystroke)
		r.Post("/expand", h.HandleExpand)
		r.Get("/stream", h.HandleStream)
	})

	return r
}

// NewServer creates the HTTP server listening on the configured address.
func NewServer(engine *ops.Engine, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              engine.Config().ListenAddr,
		Handler:           NewRouter(engine, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("spark API listening", slog.String("addr", "http://"+srv.Addr))

	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "[::]") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
