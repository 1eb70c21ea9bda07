package domain

import (
	"fmt"
	"time"
)

// StorageBackend selects where the token pair is persisted.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps tokens in the local SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageRedis keeps tokens in a Redis instance.
	StorageRedis StorageBackend = "redis"

	// StorageMemory keeps tokens in process memory only.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageRedis, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// ResumeSettings identifies the résumé to keep fresh.
type ResumeSettings struct {
	// ID is the hh.ru résumé identifier.
	ID string
}

// SchedulerSettings controls the periodic refresh task.
type SchedulerSettings struct {
	// Enabled turns the background task on or off. Defaults to true.
	Enabled bool
	// Interval is the period between résumé updates.
	Interval time.Duration
	// PollInterval is how often due tasks are checked.
	PollInterval time.Duration
}

// HHSettings holds the OAuth application and API endpoints for hh.ru.
type HHSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthorizationCode bootstraps the first token pair when none is stored.
	AuthorizationCode string
	AuthURL           string
	TokenURL          string
	APIURL            string
	// UserAgent is sent as HH-User-Agent, required by the hh.ru API.
	UserAgent string
}

// TelegramSettings configures operator notifications.
type TelegramSettings struct {
	Enabled  bool
	BotToken string
	ChatID   string
	// Prefix is prepended to each message as "[prefix] ".
	Prefix string
}

// StorageSettings configures token persistence.
type StorageSettings struct {
	Backend StorageBackend
	// DataDir holds the SQLite database. Empty means ~/.hh-autoupdate/data.
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string
}

// LogSettings configures the logger.
type LogSettings struct {
	Level string
	// File enables rotated file output in addition to stderr.
	File string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Resume    ResumeSettings
	Scheduler SchedulerSettings
	HH        HHSettings
	Telegram  TelegramSettings
	Storage   StorageSettings
	Metrics   MetricsSettings
	Log       LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Credentials and the résumé ID are left empty.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Scheduler: SchedulerSettings{
			Enabled:      true,
			Interval:     DefaultRefreshInterval,
			PollInterval: DefaultPollInterval,
		},
		HH: HHSettings{
			AuthURL:   "https://hh.ru/oauth/authorize",
			TokenURL:  "https://api.hh.ru/token",
			APIURL:    "https://api.hh.ru",
			UserAgent: "hh-autoupdate/1.0",
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// SchedulerConfig converts the settings into a scheduler configuration.
func (s AppSettings) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      s.Scheduler.Enabled,
		PollInterval: s.Scheduler.PollInterval,
		TaskConfigs: map[string]TaskConfig{
			TaskIDResumeRefresh: {
				Enabled:  s.Scheduler.Enabled,
				Interval: s.Scheduler.Interval,
			},
		},
	}
}

// Validate checks the settings needed to run refresh cycles.
func (s AppSettings) Validate() error {
	if s.Resume.ID == "" {
		return fmt.Errorf("%w: resume.id is required", ErrNotConfigured)
	}
	if s.HH.ClientID == "" || s.HH.ClientSecret == "" {
		return fmt.Errorf("%w: hh.client_id and hh.client_secret are required", ErrNotConfigured)
	}
	if s.Scheduler.Interval <= 0 {
		return fmt.Errorf("%w: scheduler.interval must be positive", ErrInvalidInput)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if s.Storage.Backend == StorageRedis && s.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis.addr is required for the redis backend", ErrNotConfigured)
	}
	if s.Telegram.Enabled && (s.Telegram.BotToken == "" || s.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id are required", ErrNotConfigured)
	}
	return nil
}
