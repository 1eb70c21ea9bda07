package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/services"
)

var configShowSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `Reads and writes settings in the config file. Values set through
environment variables take precedence and are marked with (env).`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Stores a setting in the config file. Durations accept Go syntax
("4h0m10s") or whole seconds.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		cmd.Println(configStore.Path())
		return nil
	},
}

func init() {
	configCmd.PersistentFlags().BoolVar(&configShowSecrets, "show-secrets", false, "Print secret values in full")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	overridden := overriddenKeys()
	for _, key := range services.KnownKeys() {
		val, ok := settingsService.Lookup(key)
		if !ok {
			cmd.Printf("%-26s (not set)\n", key)
			continue
		}
		suffix := ""
		if overridden[key] {
			suffix = " (env)"
		}
		cmd.Printf("%-26s %s%s\n", key, displayValue(key, val), suffix)
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	val, ok := settingsService.Lookup(key)
	if !ok {
		return fmt.Errorf("%s is not set", key)
	}
	cmd.Println(displayValue(key, val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	if overriddenKeys()[key] {
		cmd.Printf("Note: %s is overridden by an environment variable.\n", key)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func overriddenKeys() map[string]bool {
	keys := make(map[string]bool)
	if configStore == nil {
		return keys
	}
	for _, k := range configStore.Overridden() {
		keys[k] = true
	}
	return keys
}

func displayValue(key string, val any) string {
	s := fmt.Sprint(val)
	if configShowSecrets || !isSecretKey(key) {
		return s
	}
	return maskSecret(s)
}

func isSecretKey(key string) bool {
	for _, marker := range []string{"secret", "token", "password", "authorization_code"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// maskSecret shows only the first and last 4 characters.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
