// Package config loads the explainer configuration from a JSON5 or YAML file,
// a .env file, environment variables and the OS keychain.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor EXPLAINER_CONFIG is set.
const DefaultPath = "~/.explainer/config.json5"

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `json:"log" yaml:"log"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Explain   ExplainConfig   `json:"explain" yaml:"explain"`
	Author    AuthorConfig    `json:"author" yaml:"author"`
	Article   ArticleConfig   `json:"article" yaml:"article"`
	Tts       TTSConfig       `json:"tts" yaml:"tts"`
	Voice     VoiceConfig     `json:"voice" yaml:"voice"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Tailscale TailscaleConfig `json:"tailscale" yaml:"tailscale"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

type GatewayConfig struct {
	Host            string   `json:"host" yaml:"host"`
	Port            int      `json:"port" yaml:"port"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	AllowedOrigins  []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	RateLimitRPM    int      `json:"rateLimitRpm" yaml:"rateLimitRpm"` // 0 disables
	MaxBodyBytes    int64    `json:"maxBodyBytes" yaml:"maxBodyBytes"`
	ShutdownTimeout int      `json:"shutdownTimeoutSec" yaml:"shutdownTimeoutSec"`
}

// Addr returns host:port.
func (g GatewayConfig) Addr() string {
	return g.Host + ":" + strconv.Itoa(g.Port)
}

type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
}

// HasAPIKey reports whether the provider can be used.
func (p ProviderConfig) HasAPIKey() bool { return p.APIKey != "" }

type ProvidersConfig struct {
	OpenRouter ProviderConfig `json:"openrouter" yaml:"openrouter"`
	OpenAI     ProviderConfig `json:"openai" yaml:"openai"`
}

type ExplainConfig struct {
	Temperature   float64 `json:"temperature" yaml:"temperature"`
	MaxTokens     int     `json:"maxTokens" yaml:"maxTokens"`
	ContextTokens int     `json:"contextTokens" yaml:"contextTokens"`
	Tokenizer     string  `json:"tokenizer" yaml:"tokenizer"` // "tiktoken" or "estimate"
}

type AuthorConfig struct {
	RedisURL    string `json:"redisUrl,omitempty" yaml:"redisUrl,omitempty"`
	CacheSize   int    `json:"cacheSize" yaml:"cacheSize"`
	CacheTTLMin int    `json:"cacheTtlMinutes" yaml:"cacheTtlMinutes"`
	Namespace   string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// CacheTTL returns the author cache TTL.
func (a AuthorConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLMin) * time.Minute
}

type ArticleConfig struct {
	MaxBytes          int64  `json:"maxBytes" yaml:"maxBytes"`
	TimeoutSec        int    `json:"timeoutSec" yaml:"timeoutSec"`
	AllowPrivateHosts bool   `json:"allowPrivateHosts,omitempty" yaml:"allowPrivateHosts,omitempty"`
	Browser           bool   `json:"browser,omitempty" yaml:"browser,omitempty"` // rendered fallback via headless Chrome
	BrowserBinary     string `json:"browserBinary,omitempty" yaml:"browserBinary,omitempty"`
}

type SoVITSReference struct {
	AudioPath  string `json:"audioPath" yaml:"audioPath"`
	PromptText string `json:"promptText,omitempty" yaml:"promptText,omitempty"`
	PromptLang string `json:"promptLang,omitempty" yaml:"promptLang,omitempty"`
}

type SoVITSConfig struct {
	Enabled    bool                       `json:"enabled" yaml:"enabled"`
	BaseURL    string                     `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	TimeoutMs  int                        `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
	References map[string]SoVITSReference `json:"references,omitempty" yaml:"references,omitempty"` // author name -> reference clip
}

type ElevenLabsConfig struct {
	APIKey    string            `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	BaseURL   string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	ModelID   string            `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	Voices    map[string]string `json:"voices,omitempty" yaml:"voices,omitempty"` // author name -> voice ID
	TimeoutMs int               `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
}

type TTSOpenAIConfig struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase   string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	Voice     string `json:"voice,omitempty" yaml:"voice,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
}

type EdgeConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Binary    string `json:"binary,omitempty" yaml:"binary,omitempty"`
	ExtraArgs string `json:"extraArgs,omitempty" yaml:"extraArgs,omitempty"`
	Voice     string `json:"voice,omitempty" yaml:"voice,omitempty"`
	Rate      string `json:"rate,omitempty" yaml:"rate,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
}

type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty" yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secret,omitempty" yaml:"secret,omitempty"`
	URLExpiryMin    int    `json:"urlExpiryMinutes,omitempty" yaml:"urlExpiryMinutes,omitempty"`
}

type TTSConfig struct {
	MaxLength  int              `json:"maxLength" yaml:"maxLength"`
	SoVITS     SoVITSConfig     `json:"sovits" yaml:"sovits"`
	ElevenLabs ElevenLabsConfig `json:"elevenlabs" yaml:"elevenlabs"`
	OpenAI     TTSOpenAIConfig  `json:"openai" yaml:"openai"`
	Edge       EdgeConfig       `json:"edge" yaml:"edge"`
	Storage    S3Config         `json:"storage" yaml:"storage"`
}

// VoiceConfig drives local playback for the terminal reader.
type VoiceConfig struct {
	Player string `json:"player,omitempty" yaml:"player,omitempty"` // e.g. "ffplay -nodisp -autoexit -loglevel quiet {file}"
	Speak  string `json:"speak,omitempty" yaml:"speak,omitempty"`   // e.g. "espeak-ng -v {lang} {text}"
}

type TelemetryConfig struct {
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Insecure    bool              `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ServiceName string            `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Verbose     bool              `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

type TailscaleConfig struct {
	Hostname  string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	AuthKey   string `json:"authKey,omitempty" yaml:"authKey,omitempty"`
	StateDir  string `json:"stateDir,omitempty" yaml:"stateDir,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty" yaml:"ephemeral,omitempty"`
	EnableTLS bool   `json:"enableTls,omitempty" yaml:"enableTls,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Gateway: GatewayConfig{
			Host:            "127.0.0.1",
			Port:            18790,
			RateLimitRPM:    120,
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10,
		},
		Providers: ProvidersConfig{
			OpenRouter: ProviderConfig{APIBase: "https://openrouter.ai/api/v1", Model: "openai/gpt-4o-mini"},
			OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		},
		Explain: ExplainConfig{Temperature: 0.7, MaxTokens: 500, ContextTokens: 3000, Tokenizer: "tiktoken"},
		Author:  AuthorConfig{CacheSize: 256, CacheTTLMin: 60},
		Article: ArticleConfig{MaxBytes: 2 << 20, TimeoutSec: 30},
		Tts: TTSConfig{
			MaxLength: 4096,
			SoVITS:    SoVITSConfig{BaseURL: "http://127.0.0.1:9880"},
			Edge:      EdgeConfig{Enabled: true, Binary: "edge-tts"},
			Storage:   S3Config{Prefix: "speech/", URLExpiryMin: 60},
		},
		Telemetry: TelemetryConfig{Protocol: "grpc", ServiceName: "explainer"},
	}
}

// Load reads path (JSON5 or YAML by extension), then applies .env, the
// environment and the keychain. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	path = ExpandHome(path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	loadDotEnv(filepath.Dir(path))
	cfg.applyEnv()
	cfg.applyKeyring()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json5.Unmarshal(data, cfg)
	}
}

// loadDotEnv loads .env from the working directory and the config directory.
// Existing environment variables win.
func loadDotEnv(configDir string) {
	for _, p := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) applyEnv() {
	envStr("OPENROUTER_API_KEY", &c.Providers.OpenRouter.APIKey)
	envStr("OPENROUTER_MODEL", &c.Providers.OpenRouter.Model)
	envStr("OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envStr("OPENAI_BASE_URL", &c.Providers.OpenAI.APIBase)
	envStr("OPENAI_MODEL", &c.Providers.OpenAI.Model)
	envStr("ELEVENLABS_API_KEY", &c.Tts.ElevenLabs.APIKey)
	envStr("GPT_SOVITS_URL", &c.Tts.SoVITS.BaseURL)
	envStr("EXPLAINER_GATEWAY_TOKEN", &c.Gateway.Token)
	envStr("EXPLAINER_HOST", &c.Gateway.Host)
	envInt("EXPLAINER_PORT", &c.Gateway.Port)
	envStr("EXPLAINER_REDIS_URL", &c.Author.RedisURL)
	envStr("EXPLAINER_LOG_LEVEL", &c.Log.Level)
	envStr("EXPLAINER_S3_BUCKET", &c.Tts.Storage.Bucket)
	envStr("EXPLAINER_OTEL_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("EXPLAINER_TSNET_HOSTNAME", &c.Tailscale.Hostname)
	envStr("EXPLAINER_TSNET_AUTH_KEY", &c.Tailscale.AuthKey)

	// The TTS OpenAI key falls back to the chat key.
	if c.Tts.OpenAI.APIKey == "" {
		c.Tts.OpenAI.APIKey = c.Providers.OpenAI.APIKey
	}
	if c.Tts.OpenAI.APIBase == "" {
		c.Tts.OpenAI.APIBase = c.Providers.OpenAI.APIBase
	}
}

func envStr(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port: %d out of range", c.Gateway.Port)
	}
	if c.Explain.Temperature < 0 || c.Explain.Temperature > 2 {
		return fmt.Errorf("explain.temperature: %v out of range", c.Explain.Temperature)
	}
	for author := range c.Tts.SoVITS.References {
		if strings.TrimSpace(author) == "" {
			return fmt.Errorf("tts.sovits.references: empty author name")
		}
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol: must be grpc or http")
	}
	return nil
}

// Save writes cfg to path as indented JSON (valid JSON5), creating the directory.
func Save(path string, cfg *Config) error {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ResolvePath picks flagPath, then EXPLAINER_CONFIG, then DefaultPath.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return ExpandHome(flagPath)
	}
	if v := os.Getenv("EXPLAINER_CONFIG"); v != "" {
		return ExpandHome(v)
	}
	return ExpandHome(DefaultPath)
}
