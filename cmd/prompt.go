package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

func runForm(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).Run()
}

// promptString asks for a line of text. An empty answer returns defaultVal,
// which is shown as the placeholder. validate may be nil.
func promptString(title, description, defaultVal string, validate func(string) error) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if defaultVal != "" {
		inp = inp.Placeholder(defaultVal)
	}
	if validate != nil {
		inp = inp.Validate(func(s string) error {
			if s == "" {
				s = defaultVal
			}
			return validate(s)
		})
	}
	if err := runForm(inp); err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return defaultVal, nil
	}
	return strings.TrimSpace(value), nil
}

// promptPassword asks for a secret with hidden input. An empty answer keeps
// existing.
func promptPassword(title, description string) (string, error) {
	return promptSecret(title, description, "")
}

func promptSecret(title, description, existing string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&value)
	if existing != "" {
		description = strings.TrimSpace(description + " (Enter keeps " + maskSecret(existing) + ")")
	}
	if description != "" {
		inp = inp.Description(description)
	}
	if err := runForm(inp); err != nil {
		return "", err
	}
	if value == "" {
		return existing, nil
	}
	return value, nil
}

type SelectOption[T any] struct {
	Label string
	Value T
}

func promptSelect[T comparable](title string, options []SelectOption[T], current T) (T, error) {
	value := current
	opts := make([]huh.Option[T], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}
	sel := huh.NewSelect[T]().Title(title).Options(opts...).Value(&value)
	if err := runForm(sel); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func promptMultiSelect[T comparable](title, description string, options []SelectOption[T], selected []T) ([]T, error) {
	values := append([]T(nil), selected...)
	opts := make([]huh.Option[T], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}
	ms := huh.NewMultiSelect[T]().Title(title).Options(opts...).Value(&values)
	if description != "" {
		ms = ms.Description(description)
	}
	if err := runForm(ms); err != nil {
		return nil, err
	}
	return values, nil
}

func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	c := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value)
	if err := runForm(c); err != nil {
		return false, err
	}
	return value, nil
}

// Validators for promptString.

func validPort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("not a port: %q", s)
	}
	return nil
}

func validHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

func validRedisURL(s string) error {
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "redis://") && !strings.HasPrefix(s, "rediss://") {
		return errors.New("enter a redis:// URL or leave empty")
	}
	return nil
}
