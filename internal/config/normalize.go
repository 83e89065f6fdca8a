package config

import (
	"regexp"
	"strings"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/lang"
)

const DefaultNamespace = "default"

var (
	validNamespaceRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	invalidChars     = regexp.MustCompile(`[^a-z0-9_-]+`)
	leadingDash      = regexp.MustCompile(`^-+`)
	trailingDash     = regexp.MustCompile(`-+$`)
)

// NormalizeNamespace converts a user-provided name into a cache namespace:
// lowercase, at most 64 chars of [a-z0-9_-], with invalid runs collapsed to
// "-". Empty results become "default".
func NormalizeNamespace(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return DefaultNamespace
	}
	if validNamespaceRe.MatchString(lower) {
		return lower
	}

	result := invalidChars.ReplaceAllString(lower, "-")
	result = leadingDash.ReplaceAllString(result, "")
	result = trailingDash.ReplaceAllString(result, "")
	if len(result) > 64 {
		result = trailingDash.ReplaceAllString(result[:64], "")
	}
	if result == "" {
		return DefaultNamespace
	}
	return result
}

// NormalizeLanguage maps loose input ("EN", "en_US", "fr-CA") onto a
// supported language code. Unknown input yields the default with ok=false.
func NormalizeLanguage(input string) (code string, ok bool) {
	if strings.TrimSpace(input) == "" {
		return lang.Default, true
	}
	return lang.Normalize(input)
}

// NormalizeAuthorName trims and collapses inner whitespace so the same author
// typed twice maps to one cache entry.
func NormalizeAuthorName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
