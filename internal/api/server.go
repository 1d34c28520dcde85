package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"cube-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// ServerConfig configures the public server.
type ServerConfig struct {
	Hub       HubConfig
	RateLimit RateLimitConfig
}

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer wires the hub into engine as its notifier and builds the
// router. No listener is opened until Start.
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, cfg.Hub),
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
	}
	engine.SetNotifier(s.wsHub)

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.Hub.AllowedOrigins,
	})
	s.setupWebSocketRoutes()
	return s
}

// setupWebSocketRoutes adds routes that need the hub instance.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/socket.io/", s.handleSocketIO)
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
}

// Start listens on addr and blocks until the server stops. It returns nil
// after a clean Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🔌 WebSocket: ws://localhost%s/ws (add ?codec=msgpack for binary frames)", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown closes every session, then stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.CloseAll()
	if s.httpServer == nil {
		return nil
	}
	return errors.Wrap(s.httpServer.Shutdown(ctx), "shutdown api server")
}

// handleSocketIO serves the Socket.IO-compatible path. Only the websocket
// transport is supported.
func (s *Server) handleSocketIO(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Upgrade") == "websocket" {
		s.wsHub.HandleWebSocket(w, r)
		return
	}
	writeError(w, "use websocket", http.StatusNotFound)
}
