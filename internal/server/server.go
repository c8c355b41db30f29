// Package server exposes mudra's live feed over HTTP: health, the latest
// hand state, an MJPEG stream of annotated frames and a WebSocket of
// per-frame results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/app"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Hub       *Hub
	// Stats, when set, is reported by /api/health.
	Stats  func() app.Stats
	Logger *slog.Logger
}

// Server is the HTTP front of a running frame loop.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a Server. A nil Hub gets an empty one.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Hub == nil {
		config.Hub = NewHub(config.Logger)
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: config.Logger.With("component", "server"),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Hub returns the hub clients are fed from.
func (s *Server) Hub() *Hub {
	return s.config.Hub
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/api/stream", NewStreamHandler(s.config.Hub, s.logger).ServeHTTP)
	r.Get("/api/hand", NewHandHandler(s.config.Hub, s.logger).ServeHTTP)

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	hands, frames := s.config.Hub.Clients()
	response := map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.start).String(),
		"hand_clients":   hands,
		"stream_clients": frames,
		"dropped":        s.config.Hub.Dropped(),
	}
	if last := s.config.Hub.LastFrame(); !last.IsZero() {
		response["last_frame"] = last
	}
	if s.config.Stats != nil {
		response["stats"] = s.config.Stats()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(s.config.Hub.State())
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "err", err)
	}
}
