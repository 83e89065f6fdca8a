package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/apperr"
)

// formatError renders an error as one line for the terminal. Raw provider
// payloads are never printed.
func formatError(err error) string {
	lower := strings.ToLower(err.Error())

	switch {
	case isContextOverflowError(lower):
		return "The article chunk is too large for this model. Try a model with a larger context window."
	case strings.Contains(lower, "overloaded"):
		return "The AI service is temporarily overloaded. Please try again in a moment."
	case containsAny(lower, "billing", "insufficient credits", "credit balance", "payment required", "402"):
		return "The API key may have run out of credits. Check your provider's billing dashboard."
	case containsAny(lower, "not a valid model", "model_not_found", "no such model"):
		return "The configured model was not found. Check providers.*.model in the config."
	}
	return apperr.UserMessage(err)
}

// exitWithError prints err for a human and exits with status 1.
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", formatError(err))
	os.Exit(1)
}

func isContextOverflowError(lower string) bool {
	return containsAny(lower,
		"context length exceeded",
		"maximum context length",
		"context_length_exceeded",
		"prompt is too long",
		"request_too_large",
	)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
