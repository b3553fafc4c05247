// Package server exposes equity sessions over WebSocket and range tools
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/narrow"
)

// Settings are the limits applied to every session and narrowing request.
type Settings struct {
	Seats          int
	Workers        int
	BatchSize      int
	Seed           int64
	TrialsPerCombo int
	NarrowWorkers  int
	Thresholds     narrow.Thresholds
}

// DefaultSettings returns settings for a ten seat table.
func DefaultSettings() Settings {
	return Settings{
		Seats:          engine.MaxSeats,
		BatchSize:      10000,
		TrialsPerCombo: narrow.DefaultTrialsPerCombo,
		Thresholds:     narrow.DefaultThresholds(),
	}
}

// Server represents the WebSocket server
type Server struct {
	addr        string
	settings    Settings
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	clock       quartz.Clock
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	runOnce     sync.Once
	started     time.Time
	httpServer  *http.Server

	engine   atomic.Pointer[engine.Engine]
	narrower atomic.Pointer[narrow.Narrower]
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for timestamps, pings and batch timing.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates a new server. Requests needing the engine fail with
// engine_unavailable until SetEngine is called.
func NewServer(addr string, settings Settings, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr:     addr,
		settings: settings,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.clock.Now()
	return s
}

// SetEngine makes the engine available to new sessions.
func (s *Server) SetEngine(eng *engine.Engine) {
	n := narrow.New(eng,
		narrow.WithLogger(s.logger),
		narrow.WithWorkers(s.settings.NarrowWorkers),
		narrow.WithTrialsPerCombo(s.settings.TrialsPerCombo),
		narrow.WithThresholds(s.settings.Thresholds),
	)
	s.narrower.Store(n)
	s.engine.Store(eng)
	s.logger.Info("Engine ready", "after", s.clock.Since(s.started))
}

// BuildEngine constructs the engine in the background. Until it is ready
// requests fail with engine_unavailable.
func (s *Server) BuildEngine() {
	go func() {
		eng, err := engine.New(s.logger)
		if err != nil {
			s.logger.Error("Engine failed to build", "error", err)
			return
		}
		s.SetEngine(eng)
	}()
}

// Engine returns the engine or ErrEngineUnavailable.
func (s *Server) Engine() (*engine.Engine, error) {
	eng := s.engine.Load()
	if eng == nil {
		return nil, engine.ErrEngineUnavailable
	}
	return eng, nil
}

// Narrower returns the shared narrower or ErrEngineUnavailable.
func (s *Server) Narrower() (*narrow.Narrower, error) {
	n := s.narrower.Load()
	if n == nil {
		return nil, engine.ErrEngineUnavailable
	}
	return n, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	s.runOnce.Do(func() { go s.run() })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Get("/ranges", s.handleRange)
	r.Route("/narrow", func(r chi.Router) {
		r.Post("/equity", s.handleNarrowEquity)
		r.Post("/preference", s.handleNarrowPreference)
	})
	return r
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every connection and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// ConnectionCount returns the number of open WebSocket connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth reports whether the engine is ready.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Engine(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "STARTING")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
