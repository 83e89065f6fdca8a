package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/lang"
)

// edgeVoices picks a neural voice per locale.
var edgeVoices = map[string]string{
	"en-US": "en-US-AriaNeural",
	"es-ES": "es-ES-ElviraNeural",
	"fr-FR": "fr-FR-DeniseNeural",
	"de-DE": "de-DE-KatjaNeural",
	"hi-IN": "hi-IN-SwaraNeural",
	"zh-CN": "zh-CN-XiaoxiaoNeural",
	"ja-JP": "ja-JP-NanamiNeural",
}

// EdgeProvider implements TTS via Microsoft Edge TTS (free, no API key).
// Requires the `edge-tts` CLI tool to be installed:
//
//	pip install edge-tts
type EdgeProvider struct {
	binary    string
	extraArgs []string
	voice     string // overrides the locale table when set
	rate      string
	timeout   time.Duration
}

// EdgeConfig configures the Edge TTS provider.
type EdgeConfig struct {
	Binary    string // default "edge-tts"
	ExtraArgs string // shell-quoted, e.g. `--proxy "http://proxy:3128"`
	Voice     string
	Rate      string
	TimeoutMs int
}

// NewEdgeProvider creates an Edge TTS provider.
func NewEdgeProvider(cfg EdgeConfig) (*EdgeProvider, error) {
	p := &EdgeProvider{
		binary:  cfg.Binary,
		voice:   cfg.Voice,
		rate:    cfg.Rate,
		timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	if p.binary == "" {
		p.binary = "edge-tts"
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	if cfg.ExtraArgs != "" {
		args, err := shellwords.Parse(cfg.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse edge-tts args: %w", err)
		}
		p.extraArgs = args
	}
	return p, nil
}

func (p *EdgeProvider) Name() string { return "edge" }

// Available reports whether the edge-tts binary is on PATH.
func (p *EdgeProvider) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// VoiceFor returns the voice used for an ISO language code.
func (p *EdgeProvider) VoiceFor(language string) string {
	if p.voice != "" {
		return p.voice
	}
	if v, ok := edgeVoices[lang.LocaleOf(language)]; ok {
		return v
	}
	return edgeVoices["en-US"]
}

// Args builds the command line for one synthesis.
func (p *EdgeProvider) Args(text, language, outPath string) []string {
	args := append([]string{}, p.extraArgs...)
	args = append(args, "--voice", p.VoiceFor(language), "--text", text, "--write-media", outPath)
	if p.rate != "" {
		args = append(args, "--rate", p.rate)
	}
	return args
}

// Synthesize runs the edge-tts CLI. Output is always MP3.
func (p *EdgeProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	out, err := os.CreateTemp("", "explainer-tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmdCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, p.binary, p.Args(text, opts.Language, outPath)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("edge-tts failed: %w (output: %s)", err, string(output))
	}

	audio, err := os.ReadFile(filepath.Clean(outPath))
	if err != nil {
		return nil, fmt.Errorf("read edge-tts output: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("edge-tts produced no audio")
	}
	return &SynthResult{Audio: audio, Extension: "mp3", MimeType: "audio/mpeg"}, nil
}
