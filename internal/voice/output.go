package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
)

// State is the playback state of an Output.
type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
	StatePaused   State = "paused"
)

// ErrNoBackend is returned when no speech backend is configured.
var ErrNoBackend = errors.New("no speech backend available")

// Backend starts speaking text. The returned Playback is already running.
type Backend interface {
	Name() string
	Start(ctx context.Context, text, language string) (Playback, error)
}

// Playback controls one running utterance. Done yields exactly one value
// when playback ends: nil on natural completion.
type Playback interface {
	Pause() error
	Resume() error
	Stop() error
	Done() <-chan error
}

// Output speaks text through a cloned-voice backend when a style is active,
// falling back to the local backend on any failure. Callers only see the
// three states, never which backend is playing.
type Output struct {
	local  Backend
	cloned Backend

	mu       sync.Mutex
	state    State
	current  Playback
	gen      uint64
	onChange func(State)
}

// OutputOption configures an Output.
type OutputOption func(*Output)

// WithClonedBackend sets the backend tried first when a style is active.
func WithClonedBackend(b Backend) OutputOption {
	return func(o *Output) { o.cloned = b }
}

// WithStateListener is called after every state transition, outside the lock.
func WithStateListener(fn func(State)) OutputOption {
	return func(o *Output) { o.onChange = fn }
}

// NewOutput creates an Output. local may be nil when only cloned speech is
// available.
func NewOutput(local Backend, opts ...OutputOption) *Output {
	o := &Output{local: local, state: StateIdle}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Output) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Speak stops anything already playing and starts text. onComplete runs at
// most once, when the utterance finishes on its own; it does not run after
// Stop or when a later Speak replaces this one.
func (o *Output) Speak(ctx context.Context, text, language string, styleActive bool, onComplete func()) error {
	const op = "voice.speak"

	o.mu.Lock()
	o.gen++
	gen := o.gen
	prev := o.current
	o.current = nil
	o.mu.Unlock()
	if prev != nil {
		_ = prev.Stop()
	}

	backends := o.backends(styleActive)
	if len(backends) == 0 {
		o.setState(gen, StateIdle)
		return apperr.Missing(op, ErrNoBackend)
	}

	pb, idx, err := o.start(ctx, backends, text, language)
	if err != nil {
		o.setState(gen, StateIdle)
		return apperr.Missing(op, err)
	}
	if !o.attach(gen, pb) {
		_ = pb.Stop()
		return nil
	}
	go o.watch(ctx, gen, pb, backends[idx+1:], text, language, onComplete)
	return nil
}

func (o *Output) backends(styleActive bool) []Backend {
	var out []Backend
	if styleActive && o.cloned != nil {
		out = append(out, o.cloned)
	}
	if o.local != nil {
		out = append(out, o.local)
	}
	return out
}

// start tries backends in order and returns the first that starts.
func (o *Output) start(ctx context.Context, backends []Backend, text, language string) (Playback, int, error) {
	var lastErr error
	for i, b := range backends {
		pb, err := b.Start(ctx, text, language)
		if err == nil {
			return pb, i, nil
		}
		if i < len(backends)-1 {
			slog.Warn("voice.fallback", "backend", b.Name(), "error", err)
		}
		lastErr = err
	}
	return nil, -1, lastErr
}

// attach installs pb as the current playback unless the request was
// superseded while the backend was starting.
func (o *Output) attach(gen uint64, pb Playback) bool {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return false
	}
	o.current = pb
	changed := o.state != StateSpeaking
	o.state = StateSpeaking
	fn := o.onChange
	o.mu.Unlock()
	if changed && fn != nil {
		fn(StateSpeaking)
	}
	return true
}

// watch waits for playback to end. A playback error moves on to the
// remaining backends with the same text.
func (o *Output) watch(ctx context.Context, gen uint64, pb Playback, rest []Backend, text, language string, onComplete func()) {
	for {
		err := <-pb.Done()
		if !o.isCurrent(gen) {
			return
		}
		if err == nil {
			o.setState(gen, StateIdle)
			if onComplete != nil {
				onComplete()
			}
			return
		}
		if len(rest) == 0 {
			slog.Warn("voice.playback_failed", "error", err)
			o.setState(gen, StateIdle)
			return
		}
		slog.Warn("voice.fallback", "reason", "playback", "error", err)

		next, idx, startErr := o.start(ctx, rest, text, language)
		if startErr != nil {
			slog.Warn("voice.playback_failed", "error", startErr)
			o.setState(gen, StateIdle)
			return
		}
		if !o.attach(gen, next) {
			_ = next.Stop()
			return
		}
		pb, rest = next, rest[idx+1:]
	}
}

func (o *Output) isCurrent(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen == gen
}

func (o *Output) setState(gen uint64, s State) {
	o.mu.Lock()
	if o.gen != gen || o.state == s {
		o.mu.Unlock()
		return
	}
	o.state = s
	if s == StateIdle {
		o.current = nil
	}
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Pause suspends playback. It is a no-op unless speaking.
func (o *Output) Pause() error {
	o.mu.Lock()
	if o.state != StateSpeaking || o.current == nil {
		o.mu.Unlock()
		return nil
	}
	pb, gen := o.current, o.gen
	o.mu.Unlock()

	if err := pb.Pause(); err != nil {
		return apperr.Missing("voice.pause", err)
	}
	o.setState(gen, StatePaused)
	return nil
}

// Resume continues paused playback. It is a no-op unless paused.
func (o *Output) Resume() error {
	o.mu.Lock()
	if o.state != StatePaused || o.current == nil {
		o.mu.Unlock()
		return nil
	}
	pb, gen := o.current, o.gen
	o.mu.Unlock()

	if err := pb.Resume(); err != nil {
		return apperr.Missing("voice.resume", err)
	}
	o.setState(gen, StateSpeaking)
	return nil
}

// Stop ends playback and returns to Idle without firing onComplete.
func (o *Output) Stop() {
	o.mu.Lock()
	o.gen++
	pb := o.current
	o.current = nil
	changed := o.state != StateIdle
	o.state = StateIdle
	fn := o.onChange
	o.mu.Unlock()

	if pb != nil {
		_ = pb.Stop()
	}
	if changed && fn != nil {
		fn(StateIdle)
	}
}
