package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

// DefaultAutoAdvanceDelay is the pause between finished speech and the next chunk.
const DefaultAutoAdvanceDelay = time.Second

// EventSink receives session events. *bus.Sink satisfies it.
type EventSink interface {
	Emit(name string, payload any)
}

// Explainer generates explanations. *explain.Generator satisfies it.
type Explainer interface {
	Explain(ctx context.Context, req explain.Request) (*explain.Result, error)
}

// StyleFetcher loads author profiles. *author.Service satisfies it.
type StyleFetcher interface {
	GetAuthorStyle(ctx context.Context, name string, useLLMKnowledge bool) (*author.StyleResult, error)
}

// Speaker plays explanations aloud. *voice.Output satisfies it.
type Speaker interface {
	Speak(ctx context.Context, text, language string, styleActive bool, onComplete func()) error
	Stop()
}

// StartRequest starts a session from chunks or raw text.
type StartRequest struct {
	Chunks     []string `json:"chunks,omitempty"`
	Text       string   `json:"text,omitempty"`
	Language   string   `json:"language,omitempty"`
	AuthorName string   `json:"authorName,omitempty"`
}

// Turn is the explanation shown for a chunk.
type Turn struct {
	ChunkIndex  int    `json:"chunkIndex"`
	Explanation string `json:"explanation"`
	Cached      bool   `json:"cached"`
}

// UtteranceResult reports what a spoken command did.
type UtteranceResult struct {
	Intent voice.Intent `json:"intent"`
	Turn   *Turn        `json:"turn,omitempty"`
	QA     *QA          `json:"qa,omitempty"`
}

// Controller owns one live session. All methods are safe for concurrent use.
type Controller struct {
	explainer Explainer
	styles    StyleFetcher
	speaker   Speaker
	sink      EventSink
	delay     time.Duration

	mu      sync.Mutex
	s       *Session
	advance *time.Timer
	flights singleflight.Group
}

// Option configures a Controller.
type Option func(*Controller)

// WithStyleFetcher enables author style profiles.
func WithStyleFetcher(f StyleFetcher) Option { return func(c *Controller) { c.styles = f } }

// WithSpeaker enables spoken explanations.
func WithSpeaker(s Speaker) Option { return func(c *Controller) { c.speaker = s } }

// WithEventSink receives every session event.
func WithEventSink(s EventSink) Option { return func(c *Controller) { c.sink = s } }

// WithAutoAdvanceDelay overrides DefaultAutoAdvanceDelay.
func WithAutoAdvanceDelay(d time.Duration) Option { return func(c *Controller) { c.delay = d } }

// NewController creates a Controller in the Empty state.
func NewController(e Explainer, opts ...Option) *Controller {
	c := &Controller{explainer: e, delay: DefaultAutoAdvanceDelay}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) emit(name string, payload any) {
	if c.sink != nil {
		c.sink.Emit(name, payload)
	}
}

// Start replaces any current session. The author's style profile, if any,
// is fetched in the background and attached when it arrives.
func (c *Controller) Start(ctx context.Context, req StartRequest) (*Session, error) {
	const op = "session.start"

	chunks, err := startChunks(req)
	if err != nil {
		return nil, apperr.BadRequest(op, err)
	}
	authorName := strings.TrimSpace(req.AuthorName)
	s, err := Start(chunks, req.Language, authorName)
	if err != nil {
		return nil, apperr.BadRequest(op, err)
	}

	c.mu.Lock()
	c.cancelAdvanceLocked()
	c.s = s
	snap := Snapshot(s)
	c.mu.Unlock()

	if c.speaker != nil {
		c.speaker.Stop()
	}
	slog.Info("session started", "session", s.ID, "chunks", len(s.Chunks), "language", s.Language, "author", authorName)
	c.emit(protocol.EventSessionStarted, snap)

	if authorName != "" && c.styles != nil {
		go c.fetchStyle(context.WithoutCancel(ctx), authorName)
	}
	return snap, nil
}

// startChunks returns trimmed chunks from req.Chunks, or chunks req.Text
// when no chunks are given.
func startChunks(req StartRequest) ([]string, error) {
	if len(req.Chunks) == 0 {
		if req.Text == "" {
			return nil, ErrNoChunks
		}
		return article.Chunk(req.Text)
	}
	chunks := make([]string, len(req.Chunks))
	for i, ch := range req.Chunks {
		chunks[i] = strings.TrimSpace(ch)
		if chunks[i] == "" {
			return nil, fmt.Errorf("chunk %d: %w", i, ErrBlankChunk)
		}
	}
	return chunks, nil
}

func (c *Controller) fetchStyle(ctx context.Context, name string) {
	res, err := c.styles.GetAuthorStyle(ctx, name, true)
	if err != nil {
		slog.Warn("author style fetch failed", "author", name, "error", err)
		return
	}
	c.mu.Lock()
	before := c.s != nil && c.s.StyleProfile != nil
	AttachStyleProfile(c.s, res.Profile)
	attached := !before && c.s != nil && c.s.StyleProfile != nil
	c.mu.Unlock()

	if attached {
		c.emit(protocol.EventStyleAttached, res.Profile)
	} else {
		slog.Debug("stale author style dropped", "author", name)
	}
}

// GoTo moves to index. Out-of-range indices leave the position unchanged.
func (c *Controller) GoTo(index int) (*Session, error) {
	c.mu.Lock()
	if c.s == nil {
		c.mu.Unlock()
		return nil, apperr.BadRequest("session.goto", ErrNoSession)
	}
	c.cancelAdvanceLocked()
	prev := c.s.CurrentIndex
	GoTo(c.s, index)
	cur := c.s.CurrentIndex
	snap := Snapshot(c.s)
	c.mu.Unlock()

	if cur != prev {
		c.emit(protocol.EventChunkChanged, map[string]int{"index": cur, "total": len(snap.Chunks)})
	}
	return snap, nil
}

// Next advances one chunk; a no-op on the last chunk.
func (c *Controller) Next() (*Session, error) { return c.step(1) }

// Previous goes back one chunk; a no-op on the first chunk.
func (c *Controller) Previous() (*Session, error) { return c.step(-1) }

func (c *Controller) step(delta int) (*Session, error) {
	c.mu.Lock()
	if c.s == nil {
		c.mu.Unlock()
		return nil, apperr.BadRequest("session.step", ErrNoSession)
	}
	target := c.s.CurrentIndex + delta
	c.mu.Unlock()
	return c.GoTo(target)
}

// Explain returns the explanation of the current chunk, generating it when
// missing or when regenerate is set. Generation is not cancelled by
// navigation; its result is stored under the index it was requested for as
// long as the same session is still live.
func (c *Controller) Explain(ctx context.Context, regenerate bool) (*Turn, error) {
	const op = "session.explain"

	c.mu.Lock()
	if c.s == nil {
		c.mu.Unlock()
		return nil, apperr.BadRequest(op, ErrNoSession)
	}
	s := c.s
	idx := s.CurrentIndex
	if text, ok := s.Explanations[idx]; ok && !regenerate {
		c.mu.Unlock()
		return &Turn{ChunkIndex: idx, Explanation: text, Cached: true}, nil
	}
	req := explain.Request{
		Chunk:                s.Chunks[idx],
		ChunkIndex:           idx,
		PreviousExplanations: PreviousExplanations(s, idx),
		Language:             s.Language,
		AuthorName:           s.AuthorName,
		AuthorStyleProfile:   s.StyleProfile.Clone(),
	}
	sessionID := s.ID
	c.mu.Unlock()

	// A regenerate must not join a plain request already in flight.
	key := fmt.Sprintf("%s:%d", sessionID, idx)
	if regenerate {
		key += ":regen"
	}
	v, err, _ := c.flights.Do(key, func() (any, error) {
		c.emit(protocol.EventExplanationGenerating, map[string]int{"index": idx})
		res, err := c.explainer.Explain(context.WithoutCancel(ctx), req)
		if err != nil {
			c.emit(protocol.EventExplanationFailed, map[string]any{
				"index":     idx,
				"message":   apperr.UserMessage(err),
				"retryable": true,
			})
			return nil, err
		}
		c.mu.Lock()
		live := c.s != nil && c.s.ID == sessionID
		if live {
			RecordExplanation(c.s, idx, res.Explanation)
		}
		c.mu.Unlock()
		if !live {
			slog.Debug("explanation for ended session dropped", "session", sessionID, "index", idx)
			return res.Explanation, nil
		}
		c.emit(protocol.EventExplanationReady, &Turn{ChunkIndex: idx, Explanation: res.Explanation})
		return res.Explanation, nil
	})
	if err != nil {
		return nil, err
	}
	return &Turn{ChunkIndex: idx, Explanation: v.(string)}, nil
}

// Ask answers a question about the current chunk. The answer is kept in the
// question log, never in the explanations.
func (c *Controller) Ask(ctx context.Context, question string) (*QA, error) {
	const op = "session.ask"
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.BadRequest(op, errors.New("question is required"))
	}

	c.mu.Lock()
	if c.s == nil {
		c.mu.Unlock()
		return nil, apperr.BadRequest(op, ErrNoSession)
	}
	s := c.s
	idx := s.CurrentIndex
	req := explain.Request{
		Chunk:                s.Chunks[idx],
		ChunkIndex:           idx,
		PreviousExplanations: PreviousExplanations(s, idx),
		Language:             s.Language,
		UserQuestion:         question,
		AuthorName:           s.AuthorName,
		AuthorStyleProfile:   s.StyleProfile.Clone(),
	}
	sessionID := s.ID
	c.mu.Unlock()

	res, err := c.explainer.Explain(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var qa *QA
	if c.s != nil && c.s.ID == sessionID {
		RecordQuestion(c.s, idx, question, res.Explanation)
		last := c.s.Questions[len(c.s.Questions)-1]
		qa = &last
	} else {
		qa = &QA{ChunkIndex: idx, Question: question, Answer: res.Explanation, AskedAt: time.Now()}
	}
	c.mu.Unlock()

	c.emit(protocol.EventQuestionAnswered, qa)
	return qa, nil
}

// HandleUtterance classifies a spoken utterance and applies it.
func (c *Controller) HandleUtterance(ctx context.Context, utterance string) (*UtteranceResult, error) {
	intent := voice.Classify(utterance)
	out := &UtteranceResult{Intent: intent}

	var err error
	switch intent.Kind {
	case voice.IntentContinue:
		if _, err = c.Next(); err == nil {
			out.Turn, err = c.Explain(ctx, false)
		}
	case voice.IntentRepeat:
		out.Turn, err = c.Explain(ctx, false)
	case voice.IntentPrevious:
		if _, err = c.Previous(); err == nil {
			out.Turn, err = c.Explain(ctx, false)
		}
	case voice.IntentStop:
		c.StopSpeaking()
	case voice.IntentQuestion:
		out.QA, err = c.Ask(ctx, intent.Text)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Speak reads text aloud through the configured speaker and schedules the
// auto-advance when it finishes.
func (c *Controller) Speak(ctx context.Context, text string) error {
	if c.speaker == nil {
		return apperr.Missing("session.speak", voice.ErrNoBackend)
	}
	c.mu.Lock()
	if c.s == nil {
		c.mu.Unlock()
		return apperr.BadRequest("session.speak", ErrNoSession)
	}
	language := c.s.Language
	styleActive := c.s.StyleProfile != nil
	c.mu.Unlock()

	c.SetSpeaking(true)
	err := c.speaker.Speak(context.WithoutCancel(ctx), text, language, styleActive, c.SpeechComplete)
	if err != nil {
		c.SetSpeaking(false)
	}
	return err
}

// StopSpeaking halts playback without advancing.
func (c *Controller) StopSpeaking() {
	c.mu.Lock()
	c.cancelAdvanceLocked()
	c.mu.Unlock()
	if c.speaker != nil {
		c.speaker.Stop()
	}
	c.SetSpeaking(false)
}

// SetSpeaking records the speaking flag.
func (c *Controller) SetSpeaking(v bool) { c.setFlag(func(s *Session) *bool { return &s.IsSpeaking }, v) }

// SetListening records the listening flag.
func (c *Controller) SetListening(v bool) {
	c.setFlag(func(s *Session) *bool { return &s.IsListening }, v)
}

func (c *Controller) setFlag(field func(*Session) *bool, v bool) {
	c.mu.Lock()
	if c.s == nil || *field(c.s) == v {
		c.mu.Unlock()
		return
	}
	*field(c.s) = v
	payload := map[string]bool{"isSpeaking": c.s.IsSpeaking, "isListening": c.s.IsListening}
	c.mu.Unlock()
	c.emit(protocol.EventVoiceState, payload)
}

// SpeechComplete marks speech as finished and, unless on the last chunk,
// advances after the auto-advance delay. Navigation or Reset before then
// cancels the advance.
func (c *Controller) SpeechComplete() {
	c.SetSpeaking(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s == nil || IsLast(c.s) {
		return
	}
	c.cancelAdvanceLocked()
	sessionID, idx := c.s.ID, c.s.CurrentIndex
	c.advance = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		ok := c.s != nil && c.s.ID == sessionID && c.s.CurrentIndex == idx
		c.mu.Unlock()
		if ok {
			_, _ = c.GoTo(idx + 1)
		}
	})
}

func (c *Controller) cancelAdvanceLocked() {
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
}

// Reset ends the session.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelAdvanceLocked()
	had := c.s != nil
	c.s = Reset()
	c.mu.Unlock()

	if c.speaker != nil {
		c.speaker.Stop()
	}
	if had {
		c.emit(protocol.EventSessionReset, nil)
	}
}

// Snapshot returns a copy of the live session, or nil when Empty.
func (c *Controller) Snapshot() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot(c.s)
}

// AuthorName returns the live session's author, or "".
func (c *Controller) AuthorName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s == nil {
		return ""
	}
	return c.s.AuthorName
}
