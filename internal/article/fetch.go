package article

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultFetchMaxBytes    = 2 << 20
	defaultFetchMaxRedirect = 5
	defaultFetchTimeout     = 30 * time.Second

	// fetchUserAgent mimics a desktop browser; many publishers reject bare clients.
	fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Document is the readable text of a fetched page.
type Document struct {
	URL       string
	Title     string
	Text      string
	Extractor string
}

// validateURL accepts absolute http(s) URLs only.
func validateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("only http and https URLs are supported")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("missing hostname in URL")
	}
	return parsed, nil
}

func (e *Extractor) newHTTPClient() *http.Client {
	redirects := e.cfg.MaxRedirects
	return &http.Client{
		Timeout: e.cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 15 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > redirects {
				return fmt.Errorf("stopped after %d redirects", redirects)
			}
			if !e.cfg.AllowPrivateHosts {
				if err := checkSSRF(req.Context(), req.URL.String()); err != nil {
					return fmt.Errorf("redirect SSRF protection: %w", err)
				}
			}
			return nil
		},
	}
}

// fetchPlain downloads rawURL and extracts readable text according to the
// response content type.
func (e *Extractor) fetchPlain(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)

	doc := &Document{URL: resp.Request.URL.String()}
	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		r, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err != nil {
			return nil, fmt.Errorf("decode charset: %w", err)
		}
		readable, err := ExtractReadable(r)
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		doc.Title = readable.Title
		doc.Text = readable.Text
		doc.Extractor = "readability"

	case mediaType == "text/plain", mediaType == "text/markdown":
		doc.Text = string(body)
		doc.Extractor = "raw"

	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	slog.Debug("article fetched", "url", doc.URL, "bytes", len(body), "extractor", doc.Extractor)
	return doc, nil
}

// fetchRendered loads rawURL in a headless browser and extracts the rendered DOM.
func (e *Extractor) fetchRendered(ctx context.Context, rawURL string) (*Document, error) {
	page, err := e.renderer.Render(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	readable, err := ExtractReadable(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	return &Document{
		URL:       rawURL,
		Title:     readable.Title,
		Text:      readable.Text,
		Extractor: "rendered",
	}, nil
}
