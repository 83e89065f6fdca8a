package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

func onboardCmd() *cobra.Command {
	var noKeychain bool
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard: provider, model, server, speech",
		Run: func(cmd *cobra.Command, args []string) {
			runOnboard(noKeychain)
		},
	}
	cmd.Flags().BoolVar(&noKeychain, "no-keychain", false, "write secrets into the config file instead of the OS keychain")
	return cmd
}

var modelHints = map[string][]SelectOption[string]{
	"openrouter": {
		{"openai/gpt-4o-mini       (fast, cheap)", "openai/gpt-4o-mini"},
		{"openai/gpt-4o", "openai/gpt-4o"},
		{"anthropic/claude-3.5-haiku", "anthropic/claude-3.5-haiku"},
		{"google/gemini-2.0-flash-001", "google/gemini-2.0-flash-001"},
		{"meta-llama/llama-3.3-70b-instruct", "meta-llama/llama-3.3-70b-instruct"},
	},
	"openai": {
		{"gpt-4o-mini  (fast, cheap)", "gpt-4o-mini"},
		{"gpt-4o", "gpt-4o"},
		{"gpt-4.1-mini", "gpt-4.1-mini"},
	},
}

func runOnboard(noKeychain bool) {
	cfgPath := resolveConfigPath()

	if !stdinIsTerminal() {
		fmt.Println("No terminal detected. Writing a config from the environment...")
		runAutoOnboard(cfgPath, noKeychain)
		return
	}

	fmt.Println("explainer setup")
	fmt.Println()

	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Found existing config at %s\n", cfgPath)
		useExisting, err := promptConfirm("Use existing config as base?", true)
		if err != nil {
			fmt.Println("Cancelled.")
			return
		}
		if useExisting {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				fmt.Printf("Warning: could not load existing config: %v\n", err)
			} else {
				cfg = loaded
			}
		}
	}

	if err := runWizard(cfg); err != nil {
		fmt.Println("Cancelled.")
		return
	}

	if problems := onboardProblems(cfg); len(problems) > 0 {
		fmt.Println()
		fmt.Println("  Validation errors:")
		for _, p := range problems {
			fmt.Printf("    • %s\n", p)
		}
		fmt.Println()
		fmt.Println("  Please re-run: explainer onboard")
		return
	}

	fmt.Println()
	fmt.Println("  Checking API keys...")
	if fatal := verifyAllProviders(cfg); len(fatal) > 0 {
		keep, err := promptConfirm("A key was rejected. Save anyway?", false)
		if err != nil || !keep {
			fmt.Println("  Nothing saved. Re-run: explainer onboard")
			return
		}
	}

	saveOnboardConfig(cfgPath, cfg, noKeychain)
}

// runWizard walks the prompts and writes the answers into cfg.
func runWizard(cfg *config.Config) error {
	provider := "openrouter"
	if !cfg.Providers.OpenRouter.HasAPIKey() && cfg.Providers.OpenAI.HasAPIKey() {
		provider = "openai"
	}
	provider, err := promptSelect("Step 1 · Language model provider", []SelectOption[string]{
		{"OpenRouter  (recommended, many models behind one key)", "openrouter"},
		{"OpenAI      (GPT models directly, also enables Whisper)", "openai"},
	}, provider)
	if err != nil {
		return err
	}

	pc := &cfg.Providers.OpenRouter
	keyHint := "Get yours at https://openrouter.ai/keys"
	if provider == "openai" {
		pc = &cfg.Providers.OpenAI
		keyHint = "Get yours at https://platform.openai.com/api-keys"
	}
	if pc.APIKey, err = promptSecret("API Key", keyHint, pc.APIKey); err != nil {
		return err
	}

	options := append(modelHints[provider], SelectOption[string]{"Other (type a model ID)", ""})
	model, err := promptSelect("Model", options, pc.Model)
	if err != nil {
		return err
	}
	if model == "" {
		if model, err = promptString("Model ID", "As listed by the provider", pc.Model, nil); err != nil {
			return err
		}
	}
	pc.Model = model

	port, err := promptString("Step 2 · Server port", "HTTP and WebSocket listener", strconv.Itoa(cfg.Gateway.Port), validPort)
	if err != nil {
		return err
	}
	cfg.Gateway.Port, _ = strconv.Atoi(port)

	exposed, err := promptConfirm("Listen on all interfaces? (needed for phones on the LAN)", cfg.Gateway.Host == "0.0.0.0")
	if err != nil {
		return err
	}
	if exposed {
		cfg.Gateway.Host = "0.0.0.0"
		if cfg.Gateway.Token == "" {
			cfg.Gateway.Token = onboardGenerateToken(16)
			fmt.Printf("  Generated server token: %s\n", cfg.Gateway.Token)
		}
	} else {
		cfg.Gateway.Host = "127.0.0.1"
	}

	if err := promptSpeechConfig(&cfg.Tts); err != nil {
		return err
	}

	if cfg.Voice.Player, err = promptString("Step 4 · Terminal audio player", "Used by `explainer read`; {file} is replaced with the audio path",
		firstNonEmpty(cfg.Voice.Player, "ffplay -nodisp -autoexit -loglevel quiet {file}"), nil); err != nil {
		return err
	}
	if cfg.Voice.Speak, err = promptString("Local speech command", "Fallback voice; {text} and {lang} are replaced",
		firstNonEmpty(cfg.Voice.Speak, defaultSpeakCommand()), nil); err != nil {
		return err
	}

	cfg.Author.RedisURL, err = promptString("Step 5 · Redis URL for author profiles", "Leave empty to cache in memory", cfg.Author.RedisURL, validRedisURL)
	return err
}

func onboardProblems(cfg *config.Config) []string {
	var problems []string
	if !cfg.Providers.OpenRouter.HasAPIKey() && !cfg.Providers.OpenAI.HasAPIKey() {
		problems = append(problems, "an OpenRouter or OpenAI API key is required")
	}
	if err := cfg.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	return problems
}

// runAutoOnboard writes defaults plus whatever the environment provides.
func runAutoOnboard(cfgPath string, noKeychain bool) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if problems := onboardProblems(cfg); len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "Error: %s (set OPENROUTER_API_KEY or OPENAI_API_KEY)\n", strings.Join(problems, "; "))
		os.Exit(1)
	}
	saveOnboardConfig(cfgPath, cfg, noKeychain)
}

func saveOnboardConfig(cfgPath string, cfg *config.Config, noKeychain bool) {
	fmt.Println()
	fmt.Println("── Saving Config ──")

	toSave := *cfg
	if toSave.Tts.OpenAI.APIKey == toSave.Providers.OpenAI.APIKey {
		toSave.Tts.OpenAI.APIKey = ""
	}
	if !noKeychain {
		moved, err := toSave.MoveSecretsToKeyring()
		if len(moved) > 0 {
			fmt.Printf("  Stored in keychain: %s\n", strings.Join(moved, ", "))
		}
		if err != nil {
			fmt.Printf("  Warning: %v\n", err)
			fmt.Println("  Remaining secrets are written to the config file (mode 0600).")
		}
	}

	if err := config.Save(cfgPath, &toSave); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Config written to %s\n", cfgPath)

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  explainer doctor            check backends and binaries")
	fmt.Println("  explainer read -u <url>     read an article in the terminal")
	fmt.Println("  explainer serve             start the server for web clients")
	if cfg.Gateway.Host == "0.0.0.0" {
		fmt.Printf("  Open http://<this-host>:%d and connect with the server token.\n", cfg.Gateway.Port)
	}
	runDoctor(context.Background(), false)
}

func onboardGenerateToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// defaultSpeakCommand suggests the platform's built-in speech command.
func defaultSpeakCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "say"
	case "linux":
		return "espeak-ng -v {lang}"
	}
	return ""
}
