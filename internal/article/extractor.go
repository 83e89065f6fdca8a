// Package article turns pasted text or a URL into ordered paragraph chunks.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
)

const (
	defaultCacheTTL  = 15 * time.Minute
	defaultCacheSize = 100
)

// Config controls URL fetching.
type Config struct {
	MaxBytes          int64
	MaxRedirects      int
	Timeout           time.Duration
	UserAgent         string
	AllowPrivateHosts bool // disables the SSRF guard; tests and trusted LANs only
	CacheTTL          time.Duration
	CacheSize         int
}

func (c *Config) applyDefaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultFetchMaxBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultFetchMaxRedirect
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultFetchTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = fetchUserAgent
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
}

// Renderer loads a page in a real browser and returns the rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ParseRequest carries exactly one of URL or Text.
type ParseRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// ParseResult is the chunked article.
type ParseResult struct {
	Chunks      []string `json:"chunks"`
	TotalChunks int      `json:"totalChunks"`
	Title       string   `json:"title,omitempty"`
	Source      string   `json:"source"` // "text" or "url"
}

// Extractor parses articles. It is safe for concurrent use.
type Extractor struct {
	cfg      Config
	client   *http.Client
	renderer Renderer
	cache    *expirable.LRU[string, *Document]
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRenderer enables the rendered-page fallback for script-heavy sites.
func WithRenderer(r Renderer) Option {
	return func(e *Extractor) { e.renderer = r }
}

// WithHTTPClient replaces the default fetch client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// NewExtractor creates an Extractor.
func NewExtractor(cfg Config, opts ...Option) *Extractor {
	cfg.applyDefaults()
	e := &Extractor{
		cfg:   cfg,
		cache: expirable.NewLRU[string, *Document](cfg.CacheSize, nil, cfg.CacheTTL),
	}
	e.client = e.newHTTPClient()
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse extracts and chunks an article. Every failure is a bad request.
func (e *Extractor) Parse(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	const op = "article.parse"

	// Whitespace-only text still counts as supplied so the chunker can
	// report it as empty content.
	hasURL := strings.TrimSpace(req.URL) != ""
	switch {
	case hasURL && strings.TrimSpace(req.Text) != "":
		return nil, apperr.BadRequest(op, errors.New("provide either url or text, not both"))
	case !hasURL && req.Text == "":
		return nil, apperr.BadRequest(op, errors.New("either url or text is required"))
	}

	result := &ParseResult{Source: "text"}
	text := req.Text
	if hasURL {
		doc, err := e.Fetch(ctx, req.URL)
		if err != nil {
			return nil, apperr.BadRequest(op, err)
		}
		text = doc.Text
		result.Title = doc.Title
		result.Source = "url"
	}

	chunks, err := Chunk(text)
	if err != nil {
		return nil, apperr.BadRequest(op, err)
	}
	result.Chunks = chunks
	result.TotalChunks = len(chunks)
	return result, nil
}

// Fetch returns the readable text of rawURL. The plain HTTP fetch is tried
// first; the browser renderer, when configured, is the second candidate.
// The first candidate producing non-empty text wins.
func (e *Extractor) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	parsed, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := parsed.String()

	if doc, ok := e.cache.Get(key); ok {
		slog.Debug("article cache hit", "url", key)
		return doc, nil
	}

	if !e.cfg.AllowPrivateHosts {
		if err := checkSSRF(ctx, key); err != nil {
			return nil, fmt.Errorf("SSRF protection: %w", err)
		}
	}

	type candidate struct {
		name  string
		fetch func(context.Context, string) (*Document, error)
	}
	candidates := []candidate{{"http", e.fetchPlain}}
	if e.renderer != nil {
		candidates = append(candidates, candidate{"rendered", e.fetchRendered})
	}

	var lastErr error
	for _, c := range candidates {
		span := tracing.Start(ctx, tracing.KindFetch, "article.fetch."+c.name)
		span.SetInput(key)

		doc, err := c.fetch(ctx, key)
		if err == nil && strings.TrimSpace(doc.Text) == "" {
			err = ErrEmptyContent
		}
		span.End(err)

		if err != nil {
			slog.Warn("article fetch candidate failed", "extractor", c.name, "url", key, "error", err)
			lastErr = err
			continue
		}
		e.cache.Add(key, doc)
		return doc, nil
	}
	return nil, lastErr
}
