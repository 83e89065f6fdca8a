package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keychain service name secrets are stored under.
const KeyringService = "explainer"

// secretFields maps keychain account names to the config fields they fill.
func (c *Config) secretFields() map[string]*string {
	return map[string]*string{
		"openrouter":    &c.Providers.OpenRouter.APIKey,
		"openai":        &c.Providers.OpenAI.APIKey,
		"elevenlabs":    &c.Tts.ElevenLabs.APIKey,
		"gateway-token": &c.Gateway.Token,
		"s3-secret":     &c.Tts.Storage.SecretAccessKey,
	}
}

// SecretNames lists the accepted keychain account names.
func SecretNames() []string {
	names := make([]string, 0, 5)
	for k := range (&Config{}).secretFields() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Swapped in tests.
var (
	keyringGet = keyring.Get
	keyringSet = keyring.Set
)

// applyKeyring fills empty secret fields from the OS keychain. A missing
// keychain (headless servers, CI) is not an error.
func (c *Config) applyKeyring() {
	for name, dst := range c.secretFields() {
		if *dst != "" {
			continue
		}
		v, err := keyringGet(KeyringService, name)
		switch {
		case err == nil:
			*dst = v
		case errors.Is(err, keyring.ErrNotFound):
		default:
			slog.Debug("keychain unavailable", "account", name, "error", err)
			return
		}
	}
	if c.Tts.OpenAI.APIKey == "" {
		c.Tts.OpenAI.APIKey = c.Providers.OpenAI.APIKey
	}
}

// SetSecret stores value in the OS keychain under name.
func SetSecret(name, value string) error {
	if _, ok := (&Config{}).secretFields()[name]; !ok {
		return fmt.Errorf("unknown secret %q (want one of %v)", name, SecretNames())
	}
	if err := keyringSet(KeyringService, name, value); err != nil {
		return fmt.Errorf("store %s in keychain: %w", name, err)
	}
	return nil
}

// MoveSecretsToKeyring stores every non-empty secret in the keychain and
// clears it from c, so a following Save keeps it out of the file. It stops
// at the first keychain failure; secrets not yet moved stay in c.
func (c *Config) MoveSecretsToKeyring() ([]string, error) {
	fields := c.secretFields()
	var moved []string
	for _, name := range SecretNames() {
		dst := fields[name]
		if *dst == "" {
			continue
		}
		if err := keyringSet(KeyringService, name, *dst); err != nil {
			return moved, fmt.Errorf("store %s in keychain: %w", name, err)
		}
		*dst = ""
		moved = append(moved, name)
	}
	return moved, nil
}
