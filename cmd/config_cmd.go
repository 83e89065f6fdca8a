package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivaam-bhati/Conversational-Article-Explainer/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configSetKeyCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration (secrets redacted)",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
				os.Exit(1)
			}
			printJSON(redactConfig(cfg))
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath := resolveConfigPath()
			if _, err := config.Load(cfgPath); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid config: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Config at %s is valid.\n", cfgPath)
		},
	}
}

func configSetKeyCmd() *cobra.Command {
	names := config.SecretNames()
	return &cobra.Command{
		Use:   "set-key <name> [value]",
		Short: "Store a secret in the OS keychain",
		Long: fmt.Sprintf(`Store a secret in the OS keychain (service %q). Keys in the keychain are
used whenever the config file and environment leave them empty.

Names: %s

The value is prompted for when omitted.`, config.KeyringService, strings.Join(names, ", ")),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: names,
		Run: func(cmd *cobra.Command, args []string) {
			name := args[0]
			value := ""
			if len(args) == 2 {
				value = args[1]
			} else {
				v, err := promptPassword("Value for "+name, "Stored in the OS keychain, never in the config file")
				if err != nil {
					fmt.Println("Cancelled.")
					return
				}
				value = v
			}
			if strings.TrimSpace(value) == "" {
				fmt.Fprintln(os.Stderr, "Error: empty value")
				os.Exit(1)
			}
			if err := config.SetSecret(name, value); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Stored %s in the keychain.\n", name)
		},
	}
}

// redactConfig returns a JSON-safe copy with secrets masked.
func redactConfig(cfg *config.Config) map[string]any {
	data, _ := json.Marshal(cfg)
	var raw map[string]any
	json.Unmarshal(data, &raw)
	redactMap(raw)
	return raw
}

var secretKeys = map[string]bool{
	"apiKey":      true,
	"token":       true,
	"authKey":     true,
	"secret":      true,
	"accessKeyId": true,
	"redisUrl":    true,
}

func redactMap(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if secretKeys[k] && val != "" {
				m[k] = maskSecret(val)
			}
		case map[string]any:
			if k == "headers" {
				for hk := range val {
					val[hk] = "****"
				}
				continue
			}
			redactMap(val)
		}
	}
}

func maskSecret(s string) string {
	if len(s) > 12 {
		return s[:4] + "****" + s[len(s)-4:]
	}
	return "****"
}
