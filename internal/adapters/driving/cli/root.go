// Package cli provides the hh-autoupdate command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/config/file"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driving"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/services"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Wired by setup before any command runs.
var (
	configStore     *file.ConfigStore
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "hh-autoupdate",
	Short: "Keep an hh.ru résumé at the top of search results",
	Long: `hh-autoupdate periodically publishes an hh.ru résumé so it stays at the
top of employer searches. OAuth tokens are refreshed automatically and
the outcome of each update can be sent to Telegram.

Run 'hh-autoupdate login' once to authorise the application, then
'hh-autoupdate run' to keep the résumé fresh.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"Configuration directory (default ~/.hh-autoupdate)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	defer logger.Close()
	return rootCmd.Execute()
}

// setup loads configuration and applies logging settings.
// Environment variables (and a .env file) override the config file.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := file.LoadDotEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	if n := file.ApplyEnv(store); n > 0 {
		logger.Debug("config: %d values taken from the environment", n)
	}

	configStore = store
	settingsService = services.NewSettingsService(store)

	// Broken settings must not block the config command that fixes them;
	// commands that need them fail in loadSettings.
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("config: %v", err)
		return nil
	}
	if err := logger.SetLevel(settings.Log.Level); err != nil {
		logger.Warn("config: %v, keeping current level", err)
	}
	logger.SetFile(settings.Log.File)

	return nil
}
