// Package server provides the HTTP server: the REST API, the annotated
// camera stream and the live event websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/padam/internal/plugin"
	"github.com/ayusman/padam/internal/server/api"
	"github.com/ayusman/padam/internal/store"
)

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Plugins    *plugin.Manager
	Controller api.Controller
	Frames     FrameSource
	Hub        *Hub
	Visibility float64
	Log        *zap.Logger
}

// Server represents the HTTP server for the application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    *zap.Logger
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.Named("http"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		var plugins api.PluginLookup
		if s.config.Plugins != nil {
			plugins = s.config.Plugins
		}
		bindings := api.NewBindingHandler(s.config.Store, plugins)
		sessions := api.NewSessionHandler(s.config.Store)
		profiles := api.NewProfileHandler(s.config.Store)

		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)
	}

	if s.config.Controller != nil {
		s.mux.Handle("/api/status", api.NewStatusHandler(s.config.Controller))
		s.mux.Handle("/api/enabled", api.NewEnabledHandler(s.config.Controller))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.config.Visibility))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/ws/events", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
