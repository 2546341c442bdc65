// Package api serves the chat orchestrator over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/chartchat/chartchat/internal/agent"
	"github.com/chartchat/chartchat/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownGrace = 10 * time.Second

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PlotsDir     string
}

// Server is the HTTP front end.
type Server struct {
	opts         Options
	orchestrator *agent.Orchestrator
	recorder     *metrics.Recorder
	router       *mux.Router
}

// NewServer builds a Server and registers its routes. recorder may be nil,
// in which case /metrics is not served.
func NewServer(opts Options, orchestrator *agent.Orchestrator, recorder *metrics.Recorder) *Server {
	s := &Server{
		opts:         opts,
		orchestrator: orchestrator,
		recorder:     recorder,
		router:       mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/chat", s.handleChat).Methods("POST")
	s.router.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	s.router.HandleFunc("/sessions/{id}/messages", s.handleSessionMessages).Methods("GET")
	s.router.HandleFunc("/sessions/{id}", s.handleClearSession).Methods("DELETE")
	s.router.HandleFunc("/plots/{name}", s.handlePlot).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	if s.recorder != nil {
		s.router.Handle("/metrics", s.recorder.Handler()).Methods("GET")
	}
	s.router.Use(logRequests)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("HTTP server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}
