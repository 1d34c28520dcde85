package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"cube-arena/internal/game"
	"cube-arena/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingPeriod    = 30 * time.Second
	wsMaxFrameSize  = 4096
	wsSendQueueSize = 256
)

// SessionEngine is the part of the game engine a websocket session drives.
type SessionEngine interface {
	Connect(id string) (game.InitPayload, error)
	Disconnect(id string)
	Move(id string, in game.MoveInput)
	Shoot(id string)
}

// HubConfig tunes websocket admission and inbound limits.
type HubConfig struct {
	MaxMessagesPerSec float64
	MaxConnsPerIP     int
	AllowedOrigins    []string
}

// DefaultHubConfig returns production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxMessagesPerSec: 120,
		MaxConnsPerIP:     8,
		AllowedOrigins:    []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// wsClient is one websocket session. The writer goroutine owns all data
// frame writes; done tells it to stop.
type wsClient struct {
	id    string
	ip    string
	conn  *websocket.Conn
	codec protocol.Codec
	send  chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketHub connects websocket sessions to the engine. It implements
// game.Notifier: every method only encodes and enqueues, so it is safe to
// call with the engine lock held. The hub never calls into the engine while
// holding its own lock.
type WebSocketHub struct {
	engine   SessionEngine
	cfg      HubConfig
	upgrader websocket.Upgrader
	conns    *ConnLimiter

	mu sync.RWMutex
	// Sessions join clients when their init frame is queued, so no event
	// reaches a session before its snapshot.
	pending map[string]*wsClient
	clients map[string]*wsClient
}

// NewWebSocketHub creates a hub driving engine. Call engine.SetNotifier(hub)
// to route events back.
func NewWebSocketHub(engine SessionEngine, cfg HubConfig) *WebSocketHub {
	if cfg.MaxMessagesPerSec <= 0 {
		cfg.MaxMessagesPerSec = DefaultHubConfig().MaxMessagesPerSec
	}
	if cfg.MaxConnsPerIP <= 0 {
		cfg.MaxConnsPerIP = DefaultHubConfig().MaxConnsPerIP
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = DefaultHubConfig().AllowedOrigins
	}

	origins := NewOriginMatcher(cfg.AllowedOrigins)
	h := &WebSocketHub{
		engine:  engine,
		cfg:     cfg,
		conns:   NewConnLimiter(cfg.MaxConnsPerIP),
		pending: make(map[string]*wsClient),
		clients: make(map[string]*wsClient),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Broadcast implements game.Notifier.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	h.fanout("", event, data)
}

// BroadcastExcept implements game.Notifier.
func (h *WebSocketHub) BroadcastExcept(sessionID, event string, data interface{}) {
	h.fanout(sessionID, event, data)
}

// Send implements game.Notifier.
func (h *WebSocketHub) Send(sessionID, event string, data interface{}) {
	h.mu.Lock()
	c, ok := h.clients[sessionID]
	if !ok {
		c, ok = h.pending[sessionID]
		if ok && event == game.EventInit {
			delete(h.pending, sessionID)
			h.clients[sessionID] = c
		}
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	frame, err := c.codec.Encode(event, data)
	if err != nil {
		log.Printf("❌ Encode %s for %s: %v", event, sessionID, err)
		return
	}
	h.enqueue(c, frame)
}

// fanout encodes once per codec and queues the frame for every joined
// session except skip.
func (h *WebSocketHub) fanout(skip, event string, data interface{}) {
	frames := make(map[string][]byte, 2)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == skip {
			continue
		}
		frame, ok := frames[c.codec.Name()]
		if !ok {
			var err error
			frame, err = c.codec.Encode(event, data)
			if err != nil {
				log.Printf("❌ Encode %s: %v", event, err)
				return
			}
			frames[c.codec.Name()] = frame
		}
		h.enqueue(c, frame)
	}
}

// enqueue never blocks. A session that cannot keep up is closed; its read
// loop then runs the normal disconnect path.
func (h *WebSocketHub) enqueue(c *wsClient, frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	default:
		log.Printf("🐢 Dropping slow client %s (queue full)", c.id)
		wsSlowClients.Inc()
		c.close()
	}
}

func (h *WebSocketHub) register(c *wsClient) {
	h.mu.Lock()
	h.pending[c.id] = c
	count := len(h.clients) + len(h.pending)
	h.mu.Unlock()

	log.Printf("📱 Client %s connected from %s (%s, %d total)", c.id, c.ip, c.codec.Name(), count)
	UpdateWSConnections(count)
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	_, joined := h.clients[c.id]
	_, waiting := h.pending[c.id]
	delete(h.clients, c.id)
	delete(h.pending, c.id)
	count := len(h.clients) + len(h.pending)
	h.mu.Unlock()

	if !joined && !waiting {
		return
	}
	h.conns.Release(c.ip)
	log.Printf("📱 Client %s disconnected (%d remaining)", c.id, count)
	UpdateWSConnections(count)
}

// ClientCount returns the number of connected sessions
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) + len(h.pending)
}

// CloseAll sends a going-away close to every session. Their read loops
// then leave the match.
func (h *WebSocketHub) CloseAll() {
	h.mu.RLock()
	all := make([]*wsClient, 0, len(h.clients)+len(h.pending))
	for _, c := range h.clients {
		all = append(all, c)
	}
	for _, c := range h.pending {
		all = append(all, c)
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range all {
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.close()
		c.conn.Close()
	}
}

// HandleWebSocket upgrades the request and joins the session to the match.
// The codec is picked with ?codec=msgpack; JSON is the default.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.conns.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.conns.Release(ip)
		return
	}

	c := &wsClient{
		id:    uuid.NewString(),
		ip:    ip,
		conn:  conn,
		codec: protocol.ByName(r.URL.Query().Get("codec")),
		send:  make(chan []byte, wsSendQueueSize),
		done:  make(chan struct{}),
	}
	h.register(c)
	go h.writePump(c)

	if _, err := h.engine.Connect(c.id); err != nil {
		h.reject(c, err)
		return
	}

	go h.readPump(c)
}

// reject closes a session the engine refused to admit.
func (h *WebSocketHub) reject(c *wsClient, err error) {
	reason, code := "connect_failed", websocket.CloseInternalServerErr
	switch errors.Cause(err) {
	case game.ErrMatchFull:
		reason, code = "match_full", websocket.CloseTryAgainLater
	case game.ErrDuplicateSession:
		reason, code = "duplicate", websocket.ClosePolicyViolation
	}
	log.Printf("⚠️ Session %s rejected: %v", c.id, err)
	RecordConnectionRejected(reason)

	h.unregister(c)
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, errors.Cause(err).Error()),
		time.Now().Add(time.Second))
	c.close()
	c.conn.Close()
}

// readPump decodes inbound frames into engine calls until the socket
// closes, then leaves the match.
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		h.engine.Disconnect(c.id)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	burst := int(h.cfg.MaxMessagesPerSec)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(h.cfg.MaxMessagesPerSec), burst)

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("📱 Read error from %s: %v", c.id, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		recordInbound()

		if !limiter.Allow() {
			RecordMessageRejected("rate_limit")
			continue
		}

		msg, err := c.codec.Decode(frame)
		if err != nil {
			if errors.Cause(err) == protocol.ErrUnknownEvent {
				RecordMessageRejected("unknown_event")
			} else {
				RecordMessageRejected("malformed")
			}
			continue
		}

		switch msg.Event {
		case protocol.EventMove:
			h.engine.Move(c.id, msg.Move)
		case protocol.EventShoot:
			h.engine.Shoot(c.id)
		}
	}
}

// writePump owns data writes for one session and keeps it alive with pings.
func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(msgType, frame); err != nil {
				return
			}
			recordOutbound()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
