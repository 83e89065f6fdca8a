package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

// ServerVersion is reported in the connect response.
var ServerVersion = "dev"

// MethodHandler processes a single RPC method request.
type MethodHandler func(ctx context.Context, client *Client, req *protocol.RequestFrame)

// MethodRouter maps method names to handlers.
type MethodRouter struct {
	handlers map[string]MethodHandler
	server   *Server
}

func NewMethodRouter(server *Server) *MethodRouter {
	r := &MethodRouter{
		handlers: make(map[string]MethodHandler),
		server:   server,
	}
	r.Register(protocol.MethodConnect, r.handleConnect)
	r.Register(protocol.MethodPing, r.handlePing)
	return r
}

// Register adds a method handler.
func (r *MethodRouter) Register(method string, handler MethodHandler) {
	r.handlers[method] = handler
}

// Handle dispatches a request to the appropriate handler.
func (r *MethodRouter) Handle(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	handler, ok := r.handlers[req.Method]
	if !ok {
		slog.Warn("unknown method", "method", req.Method, "client", client.id)
		client.sendError(req.ID, protocol.ErrNotFound, "unknown method: "+req.Method)
		return
	}
	if req.Method != protocol.MethodConnect && !r.server.limiter.Allow(client.key) {
		client.sendError(req.ID, protocol.ErrResourceExhausted, "Too many requests. Please slow down.")
		return
	}

	slog.Debug("handling method", "method", req.Method, "client", client.id, "req_id", req.ID)
	handler(ctx, client, req)
}

func (r *MethodRouter) handleConnect(_ context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		Token    string `json:"token"`
		Protocol int    `json:"protocol"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}

	expected := r.server.opts.Token
	if expected != "" && subtle.ConstantTimeCompare([]byte(params.Token), []byte(expected)) != 1 {
		slog.Warn("security.unauthorized", "client", client.id, "key", client.key)
		client.sendError(req.ID, protocol.ErrUnauthorized, "invalid token")
		return
	}
	if params.Protocol != 0 && params.Protocol != protocol.ProtocolVersion {
		client.sendError(req.ID, protocol.ErrBadRequest, "unsupported protocol version")
		return
	}

	client.authenticated = true
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{
		"protocol":  protocol.ProtocolVersion,
		"client_id": client.id,
		"server": map[string]any{
			"name":    "explainer",
			"version": ServerVersion,
		},
	}))
}

func (r *MethodRouter) handlePing(_ context.Context, client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]string{"status": "ok"}))
}

// SendErr responds with the protocol code and user message for err.
func SendErr(client *Client, reqID string, err error) {
	if errors.Is(err, session.ErrNoSession) {
		client.sendError(reqID, protocol.ErrNoSession, "No article is loaded. Start a session first.")
		return
	}
	client.sendError(reqID, apperr.Code(err), apperr.UserMessage(err))
}

// SendOK responds with payload.
func SendOK(client *Client, reqID string, payload any) {
	client.SendResponse(protocol.NewOKResponse(reqID, payload))
}
