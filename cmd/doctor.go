package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/app"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/author"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/voice"
	"github.com/shivaam-bhati/Conversational-Article-Explainer/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(cmd.Context(), online)
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "also verify API keys against the providers")
	return cmd
}

func runDoctor(ctx context.Context, online bool) {
	fmt.Println("explainer doctor")
	fmt.Printf("  Version:  %s (protocol %d)\n", Version, protocol.ProtocolVersion)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(config.ExpandHome(cfgPath)); err != nil {
		fmt.Println(" (not found, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Language models:")
	checkKey("OpenRouter", cfg.Providers.OpenRouter.APIKey)
	checkKey("OpenAI", cfg.Providers.OpenAI.APIKey)
	if !cfg.Providers.OpenRouter.HasAPIKey() && !cfg.Providers.OpenAI.HasAPIKey() {
		fmt.Println("    -> explanations will fail; run `explainer onboard` or set OPENROUTER_API_KEY")
	}
	if online {
		verifyAllProviders(cfg)
	}

	fmt.Println()
	fmt.Println("  Speech (in fallback order):")
	names := app.BuildTTSManager(cfg.Tts).Names()
	if len(names) == 0 {
		fmt.Println("    (none; clients fall back to local speech)")
	}
	for i, n := range names {
		fmt.Printf("    %d. %s\n", i+1, n)
	}
	if cfg.Tts.SoVITS.Enabled {
		fmt.Printf("    %-12s %s (%d reference voices)\n", "GPT-SoVITS:", cfg.Tts.SoVITS.BaseURL, len(cfg.Tts.SoVITS.References))
	}
	if cfg.Tts.Storage.Bucket != "" {
		fmt.Printf("    %-12s s3://%s/%s\n", "Storage:", cfg.Tts.Storage.Bucket, cfg.Tts.Storage.Prefix)
	} else {
		fmt.Printf("    %-12s inline data URLs\n", "Storage:")
	}

	fmt.Println()
	fmt.Println("  Author cache:")
	if cfg.Author.RedisURL != "" {
		checkRedis(ctx, cfg.Author)
	} else {
		fmt.Printf("    %-12s in-memory (%d entries)\n", "Cache:", cfg.Author.CacheSize)
	}

	fmt.Println()
	fmt.Println("  Terminal voice:")
	checkCommand("Player", cfg.Voice.Player)
	checkCommand("Speak", cfg.Voice.Speak)

	fmt.Println()
	fmt.Println("  External tools:")
	if cfg.Tts.Edge.Enabled {
		checkBinary(firstNonEmpty(cfg.Tts.Edge.Binary, "edge-tts"))
	}
	if cfg.Article.Browser {
		checkBinary(firstNonEmpty(cfg.Article.BrowserBinary, "chromium"))
	}
	checkBinary("ffplay")

	fmt.Println()
	addr := gatewayDialAddr(cfg)
	if isGatewayRunning(addr) {
		fmt.Printf("  Server:   running at %s\n", addr)
	} else {
		fmt.Printf("  Server:   not running (%s)\n", addr)
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkKey(name, key string) {
	if key != "" {
		fmt.Printf("    %-12s %s\n", name+":", maskSecret(key))
	} else {
		fmt.Printf("    %-12s (not configured)\n", name+":")
	}
}

func checkRedis(ctx context.Context, ac config.AuthorConfig) {
	rc, err := author.NewRedisCache(ac.RedisURL, ac.CacheTTL())
	if err != nil {
		fmt.Printf("    %-12s invalid URL: %v\n", "Redis:", err)
		return
	}
	defer rc.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		fmt.Printf("    %-12s unreachable (%v), server falls back to memory\n", "Redis:", err)
		return
	}
	fmt.Printf("    %-12s OK\n", "Redis:")
}

func checkCommand(label, line string) {
	if strings.TrimSpace(line) == "" {
		fmt.Printf("    %-12s (not configured)\n", label+":")
		return
	}
	c, err := voice.ParseCommand(line)
	switch {
	case err != nil:
		fmt.Printf("    %-12s invalid: %v\n", label+":", err)
	case !c.Available():
		fmt.Printf("    %-12s NOT FOUND (%s)\n", label+":", line)
	default:
		fmt.Printf("    %-12s %s\n", label+":", line)
	}
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-12s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-12s %s\n", name+":", path)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
