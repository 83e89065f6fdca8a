package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

// providerOrder matches the order the explainer tries providers in.
var providerOrder = []string{"openrouter", "openai"}

const openAIDefaultBase = "https://api.openai.com/v1"

type verifyResult struct {
	fatal   bool // bad credentials
	message string
}

func providerSettings(cfg *config.Config, name string) config.ProviderConfig {
	switch name {
	case "openrouter":
		return cfg.Providers.OpenRouter
	case "openai":
		p := cfg.Providers.OpenAI
		if p.APIBase == "" {
			p.APIBase = openAIDefaultBase
		}
		return p
	}
	return config.ProviderConfig{}
}

// verifyProvider posts an empty body to /chat/completions, which always
// requires auth. 401/403 means a bad key; 400/422 means auth passed.
func verifyProvider(ctx context.Context, p config.ProviderConfig, name string) *verifyResult {
	if p.APIKey == "" || p.APIBase == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(p.APIBase, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return &verifyResult{message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return &verifyResult{message: fmt.Sprintf("unreachable: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &verifyResult{fatal: true, message: fmt.Sprintf("%s returned %d, invalid API key", name, resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return &verifyResult{message: fmt.Sprintf("%s returned %d", name, resp.StatusCode)}
	}
}

// verifyAllProviders probes every provider with a key and returns the
// fatal failures.
func verifyAllProviders(cfg *config.Config) []string {
	var fatal []string
	for _, name := range providerOrder {
		p := providerSettings(cfg, name)
		if p.APIKey == "" {
			continue
		}
		res := verifyProvider(context.Background(), p, name)
		switch {
		case res == nil:
			fmt.Printf("    %-12s verified\n", name+":")
		case res.fatal:
			slog.Error("provider key invalid", "provider", name, "error", res.message)
			fmt.Printf("    %-12s FAILED (%s)\n", name+":", res.message)
			fatal = append(fatal, name+": "+res.message)
		default:
			slog.Warn("provider check inconclusive", "provider", name, "warning", res.message)
			fmt.Printf("    %-12s WARNING (%s)\n", name+":", res.message)
		}
	}
	return fatal
}
