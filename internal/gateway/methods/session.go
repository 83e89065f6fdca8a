// Package methods holds the WebSocket RPC method groups.
package methods

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/gateway"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/session"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

// SessionMethods drives the connection's session controller.
type SessionMethods struct {
	server *gateway.Server
}

func NewSessionMethods(server *gateway.Server) *SessionMethods {
	return &SessionMethods{server: server}
}

// Register adds every session.* method to router.
func (m *SessionMethods) Register(router *gateway.MethodRouter) {
	router.Register(protocol.MethodSessionStart, m.handleStart)
	router.Register(protocol.MethodSessionGoTo, m.handleGoTo)
	router.Register(protocol.MethodSessionNext, m.handleNext)
	router.Register(protocol.MethodSessionPrevious, m.handlePrevious)
	router.Register(protocol.MethodSessionExplain, m.handleExplain)
	router.Register(protocol.MethodSessionAsk, m.handleAsk)
	router.Register(protocol.MethodSessionUtterance, m.handleUtterance)
	router.Register(protocol.MethodSessionSpeech, m.handleSpeech)
	router.Register(protocol.MethodSessionSpeechComplete, m.handleSpeechComplete)
	router.Register(protocol.MethodSessionSpeaking, m.handleSpeaking)
	router.Register(protocol.MethodSessionListening, m.handleListening)
	router.Register(protocol.MethodSessionSnapshot, m.handleSnapshot)
	router.Register(protocol.MethodSessionReset, m.handleReset)
}

var errBadParams = errors.New("invalid params")

func decode(req *protocol.RequestFrame, v any) bool {
	if len(req.Params) == 0 {
		return true
	}
	return json.Unmarshal(req.Params, v) == nil
}

func badParams(client *gateway.Client, req *protocol.RequestFrame, msg string) {
	client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrBadRequest, msg))
}

func (m *SessionMethods) handleStart(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params session.StartRequest
	if !decode(req, &params) {
		badParams(client, req, errBadParams.Error())
		return
	}
	s, err := client.Session().Start(ctx, params)
	if err != nil {
		gateway.SendErr(client, req.ID, err)
		return
	}
	gateway.SendOK(client, req.ID, s)
}

func (m *SessionMethods) handleGoTo(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Index *int `json:"index"`
	}
	if !decode(req, &params) || params.Index == nil {
		badParams(client, req, "index is required")
		return
	}
	m.respondSession(client, req)(client.Session().GoTo(*params.Index))
}

func (m *SessionMethods) handleNext(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.respondSession(client, req)(client.Session().Next())
}

func (m *SessionMethods) handlePrevious(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.respondSession(client, req)(client.Session().Previous())
}

func (m *SessionMethods) respondSession(client *gateway.Client, req *protocol.RequestFrame) func(*session.Session, error) {
	return func(s *session.Session, err error) {
		if err != nil {
			gateway.SendErr(client, req.ID, err)
			return
		}
		gateway.SendOK(client, req.ID, s)
	}
}

func (m *SessionMethods) handleExplain(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Regenerate bool `json:"regenerate"`
	}
	if !decode(req, &params) {
		badParams(client, req, errBadParams.Error())
		return
	}
	turn, err := client.Session().Explain(ctx, params.Regenerate)
	if err != nil {
		gateway.SendErr(client, req.ID, err)
		return
	}
	gateway.SendOK(client, req.ID, turn)
}

func (m *SessionMethods) handleAsk(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Question string `json:"question"`
	}
	if !decode(req, &params) || strings.TrimSpace(params.Question) == "" {
		badParams(client, req, "question is required")
		return
	}
	qa, err := client.Session().Ask(ctx, params.Question)
	if err != nil {
		gateway.SendErr(client, req.ID, err)
		return
	}
	gateway.SendOK(client, req.ID, qa)
}

func (m *SessionMethods) handleUtterance(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Text string `json:"text"`
	}
	if !decode(req, &params) || strings.TrimSpace(params.Text) == "" {
		badParams(client, req, "text is required")
		return
	}
	// Browsers often deliver the same final transcript twice.
	if m.server.IsDuplicateUtterance(client.ID(), params.Text) {
		gateway.SendOK(client, req.ID, map[string]bool{"duplicate": true})
		return
	}
	res, err := client.Session().HandleUtterance(ctx, params.Text)
	if err != nil {
		gateway.SendErr(client, req.ID, err)
		return
	}
	gateway.SendOK(client, req.ID, res)
}

// handleSpeech synthesizes text, or the current chunk's explanation when
// text is omitted. The client plays the audio and reports speechComplete.
func (m *SessionMethods) handleSpeech(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Text string `json:"text"`
	}
	if !decode(req, &params) {
		badParams(client, req, errBadParams.Error())
		return
	}
	snap := client.Session().Snapshot()
	if snap == nil {
		gateway.SendErr(client, req.ID, session.ErrNoSession)
		return
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		text = snap.Explanations[snap.CurrentIndex]
	}
	if text == "" {
		badParams(client, req, "nothing to speak: explain the chunk first")
		return
	}

	// Cloned voices only once the author's style is active.
	authorName := ""
	if snap.StyleProfile != nil {
		authorName = snap.AuthorName
	}
	res := m.server.Backend().GenerateSpeech(ctx, tts.SpeechRequest{
		Text:       text,
		Language:   snap.Language,
		AuthorName: authorName,
	})
	client.Session().SetSpeaking(true)
	gateway.SendOK(client, req.ID, res)
}

func (m *SessionMethods) handleSpeechComplete(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	client.Session().SpeechComplete()
	gateway.SendOK(client, req.ID, map[string]bool{"ok": true})
}

func (m *SessionMethods) handleSpeaking(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.setFlag(client, req, client.Session().SetSpeaking)
}

func (m *SessionMethods) handleListening(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.setFlag(client, req, client.Session().SetListening)
}

func (m *SessionMethods) setFlag(client *gateway.Client, req *protocol.RequestFrame, set func(bool)) {
	var params struct {
		Value *bool `json:"value"`
	}
	if !decode(req, &params) || params.Value == nil {
		badParams(client, req, "value is required")
		return
	}
	set(*params.Value)
	gateway.SendOK(client, req.ID, map[string]bool{"ok": true})
}

func (m *SessionMethods) handleSnapshot(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	gateway.SendOK(client, req.ID, map[string]any{"session": client.Session().Snapshot()})
}

func (m *SessionMethods) handleReset(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	client.Session().Reset()
	gateway.SendOK(client, req.ID, map[string]bool{"ok": true})
}
