// Package server exposes the table read model over HTTP and pushes every
// detection update to connected WebSocket clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/omahareader/internal/readmodel"
	"github.com/lox/omahareader/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Options configures the HTTP surface.
type Options struct {
	Addr     string
	Interval time.Duration
	Display  readmodel.Display
}

// Server serves the REST endpoints and the WebSocket push channel.
type Server struct {
	opts        Options
	store       *store.Store
	clock       quartz.Clock
	logger      *log.Logger
	upgrader    websocket.Upgrader
	router      chi.Router
	mu          sync.RWMutex
	connections map[string]*Connection
}

// New creates a server reading from st.
func New(opts Options, st *store.Store, clock quartz.Clock, logger *log.Logger) *Server {
	if clock == nil {
		clock = quartz.NewReal()
	}
	s := &Server{
		opts:   opts,
		store:  st,
		clock:  clock,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			// Dashboards are served from other origins during development.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		connections: make(map[string]*Connection),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then
// closes every WebSocket and shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	case <-ctx.Done():
	}

	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Broadcast sends a detection update to every connected client. It is
// meant to be registered with the change notifier.
func (s *Server) Broadcast(p readmodel.Payload) error {
	msg, err := NewMessage(MessageTypeDetectionUpdate, p, s.clock.Now())
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var failed int
	for _, conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			failed++
		}
	}

	s.logger.Debug("Broadcast detection update", "tables", len(p.Tables), "recipients", len(s.connections)-failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d clients did not accept the update", failed, len(s.connections))
	}
	return nil
}

// ConnectionCount returns the number of connected WebSocket clients.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c.id] = c
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "conn", c.id, "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	_, ok := s.connections[c.id]
	delete(s.connections, c.id)
	total := len(s.connections)
	s.mu.Unlock()
	if ok {
		s.logger.Info("Client disconnected", "conn", c.id, "total", total)
	}
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conn := range s.connections {
		_ = conn.Close()
	}
}

// pushState sends the current read model to one client. Unless force is
// set nothing is sent while no tables are tracked.
func (s *Server) pushState(c *Connection, force bool) {
	if !force && s.store.Len() == 0 {
		return
	}
	msg, err := NewMessage(MessageTypeDetectionUpdate, s.store.NotificationPayload(), s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to encode state", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, s)
	s.register(conn)
	conn.Start()
	s.pushState(conn, false)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleTables)
		r.Get("/config", s.handleConfig)
		r.Post("/streets", s.handleStreets)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.clock.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", s.clock.Now().Sub(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
