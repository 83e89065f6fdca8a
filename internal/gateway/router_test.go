package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

type stubBackend struct{}

func (stubBackend) Explain(_ context.Context, req explain.Request) (*explain.Result, error) {
	return &explain.Result{Explanation: "ok", ChunkIndex: req.ChunkIndex}, nil
}

func (stubBackend) GetAuthorStyle(context.Context, string, bool) (*author.StyleResult, error) {
	return &author.StyleResult{}, nil
}

func (stubBackend) GenerateSpeech(context.Context, tts.SpeechRequest) *tts.SpeechResult {
	return &tts.SpeechResult{Fallback: tts.FallbackLocal}
}

type wireResponse struct {
	Type    string               `json:"type"`
	ID      string               `json:"id"`
	OK      bool                 `json:"ok"`
	Payload map[string]any       `json:"payload"`
	Error   *protocol.ErrorShape `json:"error"`
}

func startServer(t *testing.T, opts Options) (*Server, *websocket.Conn) {
	t.Helper()
	s := NewServer(stubBackend{}, opts)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

func call(t *testing.T, conn *websocket.Conn, id, method string, params any) wireResponse {
	t.Helper()
	raw, _ := json.Marshal(params)
	if err := conn.WriteJSON(protocol.NewRequest(id, method, raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var res wireResponse
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("read %s: %v", method, err)
		}
		if res.Type == protocol.FrameTypeResponse && res.ID == id {
			return res
		}
	}
}

func TestConnectRequiredFirst(t *testing.T) {
	_, conn := startServer(t, Options{})

	res := call(t, conn, "1", protocol.MethodPing, nil)
	if res.OK || res.Error == nil || res.Error.Code != protocol.ErrUnauthorized {
		t.Fatalf("ping before connect = %+v", res)
	}

	res = call(t, conn, "2", protocol.MethodConnect, map[string]any{})
	if !res.OK {
		t.Fatalf("connect failed: %+v", res.Error)
	}
	if res.Payload["client_id"] == "" {
		t.Error("connect response missing client_id")
	}

	res = call(t, conn, "3", protocol.MethodPing, nil)
	if !res.OK || res.Payload["status"] != "ok" {
		t.Errorf("ping = %+v", res)
	}
}

func TestConnectToken(t *testing.T) {
	_, conn := startServer(t, Options{Token: "s3cret"})

	res := call(t, conn, "1", protocol.MethodConnect, map[string]any{"token": "nope"})
	if res.OK || res.Error.Code != protocol.ErrUnauthorized {
		t.Fatalf("wrong token = %+v", res)
	}
	res = call(t, conn, "2", protocol.MethodConnect, map[string]any{"token": "s3cret"})
	if !res.OK {
		t.Fatalf("right token rejected: %+v", res.Error)
	}
}

func TestConnectProtocolMismatch(t *testing.T) {
	_, conn := startServer(t, Options{})
	res := call(t, conn, "1", protocol.MethodConnect, map[string]any{"protocol": protocol.ProtocolVersion + 1})
	if res.OK || res.Error.Code != protocol.ErrBadRequest {
		t.Fatalf("protocol mismatch = %+v", res)
	}
}

func TestUnknownMethod(t *testing.T) {
	_, conn := startServer(t, Options{})
	call(t, conn, "1", protocol.MethodConnect, nil)

	res := call(t, conn, "2", "session.fly", nil)
	if res.OK || res.Error.Code != protocol.ErrNotFound {
		t.Fatalf("unknown method = %+v", res)
	}
}

func TestMethodsRateLimited(t *testing.T) {
	_, conn := startServer(t, Options{RateLimitRPM: 1})
	call(t, conn, "c", protocol.MethodConnect, nil)

	for i := 0; i < 10; i++ {
		if res := call(t, conn, fmt.Sprint(i), protocol.MethodPing, nil); !res.OK {
			t.Fatalf("ping %d limited inside burst: %+v", i, res.Error)
		}
	}
	res := call(t, conn, "over", protocol.MethodPing, nil)
	if res.OK || res.Error.Code != protocol.ErrResourceExhausted {
		t.Fatalf("ping past burst = %+v", res)
	}
}

func TestDeliverRoutesToOwner(t *testing.T) {
	s, conn := startServer(t, Options{})
	call(t, conn, "1", protocol.MethodConnect, nil)

	var id string
	for i := 0; i < 50 && id == ""; i++ {
		s.mu.RLock()
		for k := range s.clients {
			id = k
		}
		s.mu.RUnlock()
		time.Sleep(10 * time.Millisecond)
	}
	if id == "" {
		t.Fatal("client not registered")
	}

	s.events.Scoped("someone-else").Emit(protocol.EventChunkChanged, map[string]int{"index": 9})
	s.events.Scoped(id).Emit(protocol.EventChunkChanged, map[string]int{"index": 1})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev struct {
		Type    string         `json:"type"`
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
		Seq     int64          `json:"seq"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Event != protocol.EventChunkChanged || ev.Payload["index"] != float64(1) {
		t.Errorf("event = %+v, want owner's chunk.changed", ev)
	}
	if ev.Seq != 1 {
		t.Errorf("seq = %d, want 1", ev.Seq)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Error("keys must not share a bucket")
	}

	off := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !off.Allow("a") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
	if off.Enabled() {
		t.Error("rpm 0 should disable limiting")
	}

	rl.SetRPM(0)
	if !rl.Allow("a") {
		t.Error("SetRPM(0) should disable limiting")
	}
	rl.SetRPM(60)
	if !rl.Enabled() || !rl.Allow("a") {
		t.Error("SetRPM should start with fresh buckets")
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin", nil, "", "example.com", true},
		{"same host", nil, "http://localhost:18790", "localhost:18790", true},
		{"other host", nil, "http://evil.test", "localhost:18790", false},
		{"allowlisted", []string{"https://app.test"}, "https://app.test", "localhost", true},
		{"not allowlisted", []string{"https://app.test"}, "https://evil.test", "localhost", false},
		{"wildcard", []string{"*"}, "https://any.test", "localhost", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(stubBackend{}, Options{AllowedOrigins: tt.allowed})
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := s.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.5:51234"
	if got := clientKey(r); got != "10.0.0.5" {
		t.Errorf("clientKey = %q", got)
	}
}
