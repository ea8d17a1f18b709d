// Package stream fans encoded video frames out to WebSocket viewers.
//
// The Hub keeps latest-frame semantics: every client owns a one-slot
// mailbox, and publishing a frame replaces whatever the client has not yet
// sent. A slow viewer therefore sees a lower frame rate, never a growing
// backlog, and the publisher never blocks.
package stream

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrHubClosed is reported to viewers that connect after Close.
var ErrHubClosed = errors.New("stream: hub is closed")

// Config tunes connection keepalive. Zero values take defaults.
type Config struct {
	// PingInterval is how often the server pings each client (default 30s)
	PingInterval time.Duration

	// PongWait is how long a client may stay silent (default 60s)
	PongWait time.Duration

	// WriteWait bounds a single frame write (default 10s)
	WriteWait time.Duration

	// MaxMessageSize caps messages read from clients (default 512 bytes)
	MaxMessageSize int64
}

// DefaultConfig returns the default keepalive settings.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 512,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// Stats counts hub activity since start.
type Stats struct {
	Clients   int   `json:"clients"`
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

// Hub is the /video endpoint. It implements http.Handler.
type Hub struct {
	cfg      Config
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates a Hub. A nil logger discards output.
func NewHub(cfg Config, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// Viewers are served from the same host; LAN clients differ in origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and streams frames until the client leaves
// or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	c := newClient(h, conn)
	if !h.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

// Publish offers an encoded frame to every client without blocking. A frame
// still waiting in a client's mailbox is replaced and counted as dropped.
// The hub keeps frame; callers must not modify it afterwards.
func (h *Hub) Publish(frame []byte) {
	h.published.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = frame
	for c := range h.clients {
		if c.frames.offer(frame) {
			h.dropped.Add(1)
		}
	}
}

// Broadcast sends a text message to every client, replacing any unsent one.
func (h *Hub) Broadcast(msg Message) error {
	data, err := msg.encode()
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.texts.offer(data)
	}
	return nil
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of the counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients:   h.ClientCount(),
		Published: h.published.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Close disconnects every client with a going-away close frame and rejects
// later connections. It is safe to call more than once.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown(websocket.CloseGoingAway, "server shutting down")
	}
	h.logger.Info("stream hub closed", zap.Int("clients", len(clients)))
	return nil
}

// add registers c and primes it with the latest frame so a new viewer does
// not wait for the next tick.
func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.frames.offer(h.latest)
	}
	h.logger.Info("viewer connected",
		zap.String("remote_addr", c.remoteAddr),
		zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("viewer disconnected",
			zap.String("remote_addr", c.remoteAddr),
			zap.Duration("connected_for", time.Since(c.connectedAt)),
			zap.Int("clients", n))
	}
}
