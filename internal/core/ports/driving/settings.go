package driving

import "github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with defaults applied.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by its dotted key (e.g. "resume.id").
	Set(key string, value any) error

	// Lookup returns the raw stored value for a dotted key.
	Lookup(key string) (any, bool)

	// Validate checks that the settings are sufficient to run refresh cycles.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
