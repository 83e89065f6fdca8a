package gateway

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

const (
	// maxWSMessageSize bounds one inbound frame; pasted articles travel in session.start.
	maxWSMessageSize = 2 << 20
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
	writeWait        = 10 * time.Second
)

// Client is one WebSocket connection and the session it drives.
type Client struct {
	id            string
	key           string // rate-limit key (remote IP)
	conn          *websocket.Conn
	server        *Server
	session       *session.Controller
	authenticated bool

	send   chan []byte
	mu     sync.Mutex
	closed bool
	seq    atomic.Int64
}

func NewClient(conn *websocket.Conn, server *Server, key string) *Client {
	c := &Client{
		id:     uuid.NewString(),
		key:    key,
		conn:   conn,
		server: server,
		send:   make(chan []byte, 256),
	}
	c.session = server.newController(c.id)
	return c
}

// Run starts the read and write pumps for this client.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxWSMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(ctx, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame decodes one request. Requests run on their own goroutine so a
// slow explanation never blocks navigation or speech events.
func (c *Client) handleFrame(ctx context.Context, data []byte) {
	frameType, err := protocol.ParseFrameType(data)
	if err != nil {
		c.sendError("", protocol.ErrBadRequest, "invalid frame: "+err.Error())
		return
	}
	if frameType != protocol.FrameTypeRequest {
		c.sendError("", protocol.ErrBadRequest, "unexpected frame type: "+frameType)
		return
	}

	var req protocol.RequestFrame
	if err := sonic.Unmarshal(data, &req); err != nil {
		c.sendError("", protocol.ErrBadRequest, "malformed request: "+err.Error())
		return
	}
	if !c.authenticated && req.Method != protocol.MethodConnect {
		c.sendError(req.ID, protocol.ErrUnauthorized, "first request must be 'connect'")
		return
	}
	if req.Method == protocol.MethodConnect {
		c.server.router.Handle(ctx, c, &req)
		return
	}
	go c.server.router.Handle(ctx, c, &req)
}

// SendResponse queues a response frame.
func (c *Client) SendResponse(resp *protocol.ResponseFrame) {
	data, err := sonic.Marshal(resp)
	if err != nil {
		slog.Error("marshal response failed", "error", err)
		return
	}
	c.enqueue(data, "response")
}

// SendEvent queues an event frame, stamping the per-connection sequence.
func (c *Client) SendEvent(ev *protocol.EventFrame) {
	ev.Seq = c.seq.Add(1)
	data, err := sonic.Marshal(ev)
	if err != nil {
		slog.Error("marshal event failed", "event", ev.Event, "error", err)
		return
	}
	c.enqueue(data, "event")
}

func (c *Client) enqueue(data []byte, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping "+kind, "client", c.id)
	}
}

func (c *Client) sendError(id, code, message string) {
	c.SendResponse(protocol.NewErrorResponse(id, code, message))
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Session returns the controller owned by this connection.
func (c *Client) Session() *session.Controller { return c.session }

// Close stops the write pump. Later sends are dropped.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
