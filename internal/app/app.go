// Package app builds the explainer services from a Config and rebuilds the
// config-dependent ones on hot reload.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/article"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/explain"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/providers"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tracing"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/tts"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/browser"
)

// App holds the live services. Accessors are safe for concurrent use and
// always return the services built from the latest config.
type App struct {
	mu         sync.RWMutex
	cfg        *config.Config
	chain      *providers.Chain
	explainer  *explain.Generator
	authors    *author.Service
	speech     *tts.Service
	recognizer voice.Recognizer

	extractor   *article.Extractor
	browser     *browser.Manager
	authorCache author.Cache
	audioStore  tts.AudioStore
	counter     explain.TokenCounter
	collector   *tracing.Collector
}

// New builds every service. Optional backends (Redis, S3, headless Chrome)
// that fail to initialise are logged and replaced by their local defaults.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{
		collector: tracing.NewCollector(cfg.Telemetry.Verbose),
		counter:   newCounter(cfg.Explain.Tokenizer),
	}

	var opts []article.Option
	if cfg.Article.Browser {
		bopts := []browser.Option{browser.WithTimeout(time.Duration(cfg.Article.TimeoutSec) * time.Second)}
		if cfg.Article.BrowserBinary != "" {
			bopts = append(bopts, browser.WithBinary(cfg.Article.BrowserBinary))
		}
		a.browser = browser.New(bopts...)
		opts = append(opts, article.WithRenderer(a.browser))
	}
	a.extractor = article.NewExtractor(article.Config{
		MaxBytes:          cfg.Article.MaxBytes,
		Timeout:           time.Duration(cfg.Article.TimeoutSec) * time.Second,
		AllowPrivateHosts: cfg.Article.AllowPrivateHosts,
	}, opts...)

	a.authorCache = newAuthorCache(ctx, cfg.Author)
	a.audioStore = newAudioStore(ctx, cfg.Tts.Storage)

	a.apply(cfg)
	return a, nil
}

func newCounter(kind string) explain.TokenCounter {
	if kind == "estimate" {
		return nil
	}
	return &explain.TiktokenCounter{}
}

func newAuthorCache(ctx context.Context, cfg config.AuthorConfig) author.Cache {
	if cfg.RedisURL != "" {
		rc, err := author.NewRedisCache(cfg.RedisURL, cfg.CacheTTL())
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = rc.Ping(pingCtx)
			cancel()
			if err == nil {
				slog.Info("author style cache: redis")
				return rc
			}
			rc.Close()
		}
		slog.Warn("redis unavailable, using in-memory author cache", "error", err)
	}
	return author.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL())
}

func newAudioStore(ctx context.Context, cfg config.S3Config) tts.AudioStore {
	if cfg.Bucket == "" {
		return tts.DataURLStore{}
	}
	store, err := tts.NewS3Store(ctx, tts.S3Config{
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		URLExpiry:       time.Duration(cfg.URLExpiryMin) * time.Minute,
	})
	if err != nil {
		slog.Warn("s3 audio store unavailable, returning data URLs", "bucket", cfg.Bucket, "error", err)
		return tts.DataURLStore{}
	}
	slog.Info("speech audio store: s3", "bucket", cfg.Bucket)
	return store
}

// apply rebuilds the config-dependent services.
func (a *App) apply(cfg *config.Config) {
	p := cfg.Providers
	chain := providers.Resolve(
		providers.Credentials{APIKey: p.OpenRouter.APIKey, APIBase: p.OpenRouter.APIBase, Model: p.OpenRouter.Model},
		providers.Credentials{APIKey: p.OpenAI.APIKey, APIBase: p.OpenAI.APIBase, Model: p.OpenAI.Model},
	)
	if chain.Len() == 0 {
		slog.Warn("no LLM provider configured; set OPENROUTER_API_KEY or OPENAI_API_KEY")
	}

	model := ""
	if names := chain.Names(); len(names) > 0 {
		if first, ok := chain.Find(names[0]); ok {
			model = first.DefaultModel()
		}
	}

	var llm explain.Chatter
	var authorLLM author.Chatter
	if chain.Len() > 0 {
		llm, authorLLM = chain, chain
	}
	explainer := explain.NewGenerator(llm, explain.Config{
		Model:         model,
		Temperature:   cfg.Explain.Temperature,
		MaxTokens:     cfg.Explain.MaxTokens,
		ContextTokens: cfg.Explain.ContextTokens,
	}, a.counter)
	authors := author.NewService(authorLLM, a.authorCache, model)
	speech := tts.NewService(BuildTTSManager(cfg.Tts), a.audioStore)

	var transcriber voice.Transcriber
	if prov, ok := chain.Find("openai"); ok {
		transcriber, _ = prov.(voice.Transcriber)
	}
	rec := voice.NewWhisperRecognizer(transcriber)

	a.mu.Lock()
	a.cfg = cfg
	a.chain = chain
	a.explainer = explainer
	a.authors = authors
	a.speech = speech
	a.recognizer = rec
	a.mu.Unlock()

	slog.Info("services configured", "providers", chain.Names(), "tts", speech.Manager().Names())
}

// Reload swaps in services built from cfg. The article extractor, caches and
// audio store are kept.
func (a *App) Reload(cfg *config.Config) { a.apply(cfg) }

// BuildTTSManager registers the configured speech providers, cloned voices first.
func BuildTTSManager(cfg config.TTSConfig) *tts.Manager {
	m := tts.NewManager(tts.ManagerConfig{MaxLength: cfg.MaxLength})

	if cfg.SoVITS.Enabled {
		refs := make(map[string]tts.Reference, len(cfg.SoVITS.References))
		for name, r := range cfg.SoVITS.References {
			refs[config.NormalizeAuthorName(name)] = tts.Reference{AudioPath: r.AudioPath, PromptText: r.PromptText, PromptLang: r.PromptLang}
		}
		m.RegisterProvider(tts.NewSoVITSProvider(tts.SoVITSConfig{
			BaseURL:    cfg.SoVITS.BaseURL,
			References: refs,
			TimeoutMs:  cfg.SoVITS.TimeoutMs,
		}))
	}
	if cfg.ElevenLabs.APIKey != "" {
		voices := make(map[string]string, len(cfg.ElevenLabs.Voices))
		for name, id := range cfg.ElevenLabs.Voices {
			voices[config.NormalizeAuthorName(name)] = id
		}
		m.RegisterProvider(tts.NewElevenLabsProvider(tts.ElevenLabsConfig{
			APIKey:    cfg.ElevenLabs.APIKey,
			BaseURL:   cfg.ElevenLabs.BaseURL,
			Voices:    voices,
			ModelID:   cfg.ElevenLabs.ModelID,
			TimeoutMs: cfg.ElevenLabs.TimeoutMs,
		}))
	}
	if cfg.OpenAI.APIKey != "" {
		m.RegisterProvider(tts.NewOpenAIProvider(tts.OpenAIConfig{
			APIKey:    cfg.OpenAI.APIKey,
			APIBase:   cfg.OpenAI.APIBase,
			Model:     cfg.OpenAI.Model,
			Voice:     cfg.OpenAI.Voice,
			TimeoutMs: cfg.OpenAI.TimeoutMs,
		}))
	}
	if cfg.Edge.Enabled {
		edge, err := tts.NewEdgeProvider(tts.EdgeConfig{
			Binary:    cfg.Edge.Binary,
			ExtraArgs: cfg.Edge.ExtraArgs,
			Voice:     cfg.Edge.Voice,
			Rate:      cfg.Edge.Rate,
			TimeoutMs: cfg.Edge.TimeoutMs,
		})
		switch {
		case err != nil:
			slog.Warn("edge tts disabled", "error", err)
		case !edge.Available():
			slog.Debug("edge-tts binary not found, provider skipped", "binary", cfg.Edge.Binary)
		default:
			m.RegisterProvider(edge)
		}
	}
	return m
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) Chain() *providers.Chain {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chain
}

func (a *App) Explainer() *explain.Generator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.explainer
}

func (a *App) Authors() *author.Service {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authors
}

func (a *App) Speech() *tts.Service {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.speech
}

// Recognizer reports the capability as missing when no OpenAI key is configured.
func (a *App) Recognizer() voice.Recognizer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recognizer
}

func (a *App) Extractor() *article.Extractor { return a.extractor }

func (a *App) Tracing() *tracing.Collector { return a.collector }

// Close releases Chrome and the Redis connection.
func (a *App) Close() error {
	var errs []error
	if a.browser != nil {
		errs = append(errs, a.browser.Close())
	}
	if rc, ok := a.authorCache.(*author.RedisCache); ok {
		errs = append(errs, rc.Close())
	}
	return errors.Join(errs...)
}
