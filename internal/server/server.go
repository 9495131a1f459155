// Package server exposes the interpreter over HTTP and a websocket stream.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"vaultrunner/internal/history"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/render"
)

// Config configures a Server.
type Config struct {
	Addr string
	// MaxSteps caps the step limit a request may ask for.
	MaxSteps int
	// History, when set, receives every finished run.
	History *history.Store
	Logger  *slog.Logger
}

// Server serves the run API.
type Server struct {
	addr     string
	maxSteps int
	history  *history.Store
	logger   *slog.Logger
	plain    *render.Renderer
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = interpreter.DefaultMaxSteps
	}
	return &Server{
		addr:     cfg.Addr,
		maxSteps: maxSteps,
		history:  cfg.History,
		logger:   logger,
		plain:    render.NewRendererWithTTY(io.Discard, io.Discard, false, render.ModeText, render.ColorNever),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/examples", s.handleExamples)
		r.Get("/maps", s.handleMaps)
		r.Post("/run", s.handleRun)
		r.Get("/run/stream", s.handleStream)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
