// Package webui serves the viewer page, the /video stream, the stats API and
// the runtime control endpoints.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"edgecam/bridge"
	"edgecam/metrics"
	"edgecam/pipeline"
	"edgecam/stream"
	"edgecam/webui/static"
)

// BridgeInfo exposes bridge counters to /api/stats. *bridge.Bridge
// implements it.
type BridgeInfo interface {
	FilterName() string
	Stats() bridge.Stats
}

// Middleware wraps a handler, e.g. (*auth.BasicAuth).Middleware.
type Middleware func(http.Handler) http.Handler

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is host:port to listen on (default ":8080")
	Addr string

	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// RecentFrames is how many frame records /api/stats returns (default 20)
	RecentFrames int
}

// DefaultServerConfig returns the default timeouts. There is no write
// timeout: /video connections are long-lived and manage their own deadlines.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RecentFrames:    20,
	}
}

// Deps are the components the server exposes. Metrics and Controls are
// required.
type Deps struct {
	Hub      *stream.Hub
	Controls *pipeline.Controls
	Metrics  metrics.Collector
	Bridge   BridgeInfo

	// Auth guards the control endpoints when non-nil
	Auth Middleware

	Logger *zap.Logger
}

// Server is the HTTP organism. It owns the http.Server and the route table.
type Server struct {
	config   ServerConfig
	hub      *stream.Hub
	controls *pipeline.Controls
	metrics  metrics.Collector
	bridge   BridgeInfo
	auth     Middleware
	logger   *zap.Logger

	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer wires the routes.
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	if deps.Metrics == nil || deps.Controls == nil {
		return nil, errors.New("webui: metrics and controls are required")
	}
	def := DefaultServerConfig()
	if config.Addr == "" {
		config.Addr = def.Addr
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = def.ShutdownTimeout
	}
	if config.RecentFrames <= 0 {
		config.RecentFrames = def.RecentFrames
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		config:   config,
		hub:      deps.Hub,
		controls: deps.Controls,
		metrics:  deps.Metrics,
		bridge:   deps.Bridge,
		auth:     deps.Auth,
		logger:   deps.Logger,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        config.Addr,
		Handler:     s.Handler(),
		ReadTimeout: config.ReadTimeout,
		IdleTimeout: config.IdleTimeout,
	}

	s.logger.Info("web server created",
		zap.String("addr", config.Addr),
		zap.Bool("auth_enabled", deps.Auth != nil))
	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /api/stats", gzhttp.GzipHandler(http.HandlerFunc(s.handleStats)))
	s.mux.Handle("POST /api/processing", s.protect(http.HandlerFunc(s.handleProcessing)))
	s.mux.Handle("POST /api/effect", s.protect(http.HandlerFunc(s.handleEffect)))
	if s.hub != nil {
		s.mux.Handle("GET /video", s.hub)
	}
}

func (s *Server) protect(h http.Handler) http.Handler {
	if s.auth == nil {
		return h
	}
	return s.auth(h)
}

// Handler returns the route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return NewLoggingMiddleware(s.logger, "/health", "/api/stats").Handler(s.mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("index.html")
	if err != nil {
		http.Error(w, "viewer not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("web server listening", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. Hijacked
// /video connections are not waited for; close the hub for those.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}

// HTTPServer returns the underlying server for shutdown registration.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}
