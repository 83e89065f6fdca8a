// Package browser renders script-heavy pages in headless Chrome so their
// article text can be extracted.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultRenderTimeout = 30 * time.Second
	stableWindow         = 500 * time.Millisecond
)

// ErrNotRunning is returned when rendering after Stop.
var ErrNotRunning = errors.New("browser not running")

// Manager owns one Chrome process. Chrome is launched lazily on the first
// Render call and reused until Stop.
type Manager struct {
	mu       sync.Mutex
	browser  *rod.Browser
	stopped  bool
	headless bool
	bin      string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeadless sets headless mode (default true).
func WithHeadless(h bool) Option {
	return func(m *Manager) { m.headless = h }
}

// WithBinary uses a specific Chrome/Chromium executable instead of the
// auto-downloaded one.
func WithBinary(path string) Option {
	return func(m *Manager) { m.bin = path }
}

// WithTimeout bounds a single page render.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a Manager with options.
func New(opts ...Option) *Manager {
	m := &Manager{
		headless: true,
		timeout:  defaultRenderTimeout,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// start launches Chrome. Caller holds m.mu.
func (m *Manager) start() error {
	l := launcher.New().
		Headless(m.headless).
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check")
	if m.bin != "" {
		l = l.Bin(m.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch Chrome: %w", err)
	}
	m.logger.Info("Chrome launched", "cdp", controlURL, "headless", m.headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to Chrome: %w", err)
	}
	m.browser = b
	return nil
}

// Render opens url in a new tab, waits for the DOM to settle and returns the
// page HTML. The tab is closed afterwards.
func (m *Manager) Render(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return "", ErrNotRunning
	}
	if m.browser == nil {
		if err := m.start(); err != nil {
			m.mu.Unlock()
			return "", err
		}
	}
	b := m.browser
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	if err := page.WaitStable(stableWindow); err != nil {
		m.logger.Debug("page never settled, using current DOM", "url", url, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// Stop closes Chrome. Later Render calls fail with ErrNotRunning.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	return err
}

// Close shuts down the browser if running.
func (m *Manager) Close() error {
	return m.Stop(context.Background())
}
