package apperr

import (
	"errors"
	"log/slog"
	"strings"
)

// UserMessage renders err as a single dismissible line. Raw provider
// payloads are never shown; unclassified errors are logged and replaced.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyContent) {
		return "No readable text was found in that article. Try pasting the text instead."
	}

	lower := strings.ToLower(err.Error())

	if containsAny(lower, "rate limit", "rate_limit", "too many requests", "429", "quota exceeded") {
		return "The AI service is rate limiting requests. Please try again shortly."
	}
	if containsAny(lower, "invalid api key", "invalid_api_key", "unauthorized", "401", "403") {
		return "Authentication with the AI service failed. Check your API key configuration."
	}
	if containsAny(lower, "timeout", "timed out", "deadline exceeded") {
		return "The request timed out. Please try again."
	}

	switch KindOf(err) {
	case KindBadRequest:
		var e *Error
		if errors.As(err, &e) {
			return capitalize(e.Err.Error())
		}
		return capitalize(err.Error())
	case KindUpstreamUnavailable:
		if containsAny(lower, "no provider", "not configured") {
			return "No language model is configured. Set OPENROUTER_API_KEY or OPENAI_API_KEY."
		}
		return "The AI service is unavailable right now. Please try again."
	case KindUpstreamMalformed:
		return "The AI service returned a response that could not be read. Please try again."
	case KindLocalCapabilityMissing:
		return "This device does not support that voice feature."
	}

	slog.Warn("unclassified error", "error", err)
	return "Sorry, something went wrong. Please try again."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
