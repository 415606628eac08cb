// Package gateway exposes the bridge's event stream over a loopback
// WebSocket so a local UI can watch the same wire the host sees. It is a
// read-mostly feed: clients receive every emitted event and may send the
// same commands the host sends on stdin.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/host"
	"github.com/ybarkan/wagate/internal/logging"
)

// Server is the loopback WebSocket event feed.
type Server struct {
	cfg    config.GatewayConfig
	log    *logging.Logger
	handle func(host.Command)

	mu      sync.RWMutex
	clients map[string]*client

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server. Commands received from clients are passed
// to handle, the same callback the stdin reader uses.
func New(cfg config.GatewayConfig, handle func(host.Command), log *logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		handle:  handle,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkLoopbackOrigin,
		},
	}
}

// checkLoopbackOrigin admits non-browser clients (no Origin header) and
// browsers served from localhost. The server only binds loopback, so
// anything else is a cross-site request.
func checkLoopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

// Start begins listening. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"clients":%d}`, s.ClientCount())
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	// Reflect the resolved address so Addr() works with port 0 in tests.
	s.httpServer.Addr = ln.Addr().String()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("event feed listening")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down event feed")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Emit broadcasts one event to all connected clients, satisfying
// host.Emitter so the server can be teed with the stdout sink. A client
// whose send queue is full has the event dropped; the feed never blocks
// a polling loop.
func (s *Server) Emit(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize event")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.enqueue(data)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1 << 20)

	c := newClient(conn, s.log.Sub("ws"))
	s.addClient(c)
	defer s.removeClient(c)

	go c.writeLoop()
	c.readLoop(s.handle)
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	s.log.Info().Str("connId", c.id).Int("clients", len(s.clients)).Msg("client connected")
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	c.close()
	s.log.Info().Str("connId", c.id).Int("clients", len(s.clients)).Msg("client disconnected")
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
}
