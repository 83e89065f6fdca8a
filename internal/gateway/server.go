// Package gateway serves live explainer sessions over WebSocket. Each
// connection owns one session controller; its events are pushed back to the
// same connection only.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/bus"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

// Backend is what sessions need from the service layer. *app.App satisfies it.
type Backend interface {
	session.Explainer
	session.StyleFetcher
	GenerateSpeech(ctx context.Context, req tts.SpeechRequest) *tts.SpeechResult
}

// Options configures a Server.
type Options struct {
	Token            string
	AllowedOrigins   []string // empty allows same-host origins only
	RateLimitRPM     int
	AutoAdvanceDelay time.Duration
}

// Server accepts WebSocket clients and dispatches their requests.
type Server struct {
	backend  Backend
	opts     Options
	upgrader websocket.Upgrader
	router   *MethodRouter
	limiter  *RateLimiter
	events   *bus.EventBus
	dedupe   *bus.DedupeCache

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewServer creates a gateway server.
func NewServer(backend Backend, opts Options) *Server {
	if opts.AutoAdvanceDelay <= 0 {
		opts.AutoAdvanceDelay = session.DefaultAutoAdvanceDelay
	}
	s := &Server{
		backend: backend,
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimitRPM, 10),
		events:  bus.New(),
		dedupe:  bus.NewDedupeCache(3*time.Second, 1024),
		clients: make(map[string]*Client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = NewMethodRouter(s)
	s.events.Subscribe("gateway", s.deliver)
	return s
}

// Router exposes the method router so method groups can register.
func (s *Server) Router() *MethodRouter { return s.router }

// Backend returns the service layer.
func (s *Server) Backend() Backend { return s.backend }

// RateLimiter returns the per-client limiter, shared with the HTTP API.
func (s *Server) RateLimiter() *RateLimiter { return s.limiter }

// IsDuplicateUtterance reports whether the client sent the same utterance
// within the last few seconds.
func (s *Server) IsDuplicateUtterance(clientID, text string) bool {
	return s.dedupe.IsDuplicate(clientID + "\x00" + strings.ToLower(strings.TrimSpace(text)))
}

// RegisterRoutes mounts the WebSocket endpoint.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.HandleWebSocket)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	if len(s.opts.AllowedOrigins) == 0 {
		return strings.HasSuffix(origin, "://"+r.Host)
	}
	slog.Warn("security.origin_rejected", "origin", origin)
	return false
}

// HandleWebSocket upgrades the connection and runs the client until it closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s, clientKey(r))
	s.addClient(client)
	defer s.removeClient(client)

	client.Run(r.Context())
}

func (s *Server) newController(clientID string) *session.Controller {
	return session.NewController(s.backend,
		session.WithStyleFetcher(s.backend),
		session.WithEventSink(s.events.Scoped(clientID)),
		session.WithAutoAdvanceDelay(s.opts.AutoAdvanceDelay),
	)
}

// deliver routes a session event to the connection that owns it.
func (s *Server) deliver(ev bus.Event) {
	s.mu.RLock()
	c := s.clients[ev.Owner]
	s.mu.RUnlock()
	if c != nil {
		c.SendEvent(protocol.NewEvent(ev.Name, ev.Payload))
	}
}

func (s *Server) addClient(c *Client) {
	s.mu.Lock()
	s.clients[c.id] = c
	n := len(s.clients)
	s.mu.Unlock()
	slog.Info("client connected", "client", c.id, "clients", n)
}

func (s *Server) removeClient(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()
	c.session.Reset()
	c.Close()
	slog.Info("client disconnected", "client", c.id, "clients", n)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown tells every client the server is going away and resets their sessions.
func (s *Server) Shutdown() {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.SendEvent(protocol.NewEvent(protocol.EventShutdown, nil))
		c.session.Reset()
	}
}

// clientKey is the rate-limit key for a connection.
func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
