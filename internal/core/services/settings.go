package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyResumeID              = "resume.id"
	KeySchedulerEnabled      = "scheduler.enabled"
	KeySchedulerInterval     = "scheduler.interval"
	KeySchedulerPollInterval = "scheduler.poll_interval"
	KeyHHClientID            = "hh.client_id"
	KeyHHClientSecret        = "hh.client_secret"
	KeyHHRedirectURI         = "hh.redirect_uri"
	KeyHHAuthorizationCode   = "hh.authorization_code"
	KeyHHAuthURL             = "hh.auth_url"
	KeyHHTokenURL            = "hh.token_url"
	KeyHHAPIURL              = "hh.api_url"
	KeyHHUserAgent           = "hh.user_agent"
	KeyTelegramEnabled       = "telegram.enabled"
	KeyTelegramBotToken      = "telegram.bot_token"
	KeyTelegramChatID        = "telegram.chat_id"
	KeyTelegramPrefix        = "telegram.prefix"
	KeyStorageBackend        = "storage.backend"
	KeyStorageDataDir        = "storage.data_dir"
	KeyRedisAddr             = "redis.addr"
	KeyRedisPassword         = "redis.password"
	KeyRedisDB               = "redis.db"
	KeyMetricsAddr           = "metrics.addr"
	KeyLogLevel              = "log.level"
	KeyLogFile               = "log.file"
)

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindDuration
)

// knownKeys lists every settable key and how its value is typed.
var knownKeys = map[string]keyKind{
	KeyResumeID:              kindString,
	KeySchedulerEnabled:      kindBool,
	KeySchedulerInterval:     kindDuration,
	KeySchedulerPollInterval: kindDuration,
	KeyHHClientID:            kindString,
	KeyHHClientSecret:        kindString,
	KeyHHRedirectURI:         kindString,
	KeyHHAuthorizationCode:   kindString,
	KeyHHAuthURL:             kindString,
	KeyHHTokenURL:            kindString,
	KeyHHAPIURL:              kindString,
	KeyHHUserAgent:           kindString,
	KeyTelegramEnabled:       kindBool,
	KeyTelegramBotToken:      kindString,
	KeyTelegramChatID:        kindString,
	KeyTelegramPrefix:        kindString,
	KeyStorageBackend:        kindString,
	KeyStorageDataDir:        kindString,
	KeyRedisAddr:             kindString,
	KeyRedisPassword:         kindString,
	KeyRedisDB:               kindInt,
	KeyMetricsAddr:           kindString,
	KeyLogLevel:              kindString,
	KeyLogFile:               kindString,
}

// KnownKeys returns all settable keys in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
// A boolean key holding anything other than a boolean is an error.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	schedulerEnabled, err := s.getBool(KeySchedulerEnabled, defaults.Scheduler.Enabled)
	if err != nil {
		return nil, err
	}
	telegramEnabled, err := s.getBool(KeyTelegramEnabled, defaults.Telegram.Enabled)
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		Resume: domain.ResumeSettings{
			ID: s.configStore.GetString(KeyResumeID),
		},
		Scheduler: domain.SchedulerSettings{
			// Absent key means enabled.
			Enabled:      schedulerEnabled,
			Interval:     s.getDuration(KeySchedulerInterval, defaults.Scheduler.Interval),
			PollInterval: s.getDuration(KeySchedulerPollInterval, defaults.Scheduler.PollInterval),
		},
		HH: domain.HHSettings{
			ClientID:          s.configStore.GetString(KeyHHClientID),
			ClientSecret:      s.configStore.GetString(KeyHHClientSecret),
			RedirectURI:       s.configStore.GetString(KeyHHRedirectURI),
			AuthorizationCode: s.configStore.GetString(KeyHHAuthorizationCode),
			AuthURL:           s.getString(KeyHHAuthURL, defaults.HH.AuthURL),
			TokenURL:          s.getString(KeyHHTokenURL, defaults.HH.TokenURL),
			APIURL:            s.getString(KeyHHAPIURL, defaults.HH.APIURL),
			UserAgent:         s.getString(KeyHHUserAgent, defaults.HH.UserAgent),
		},
		Telegram: domain.TelegramSettings{
			Enabled:  telegramEnabled,
			BotToken: s.configStore.GetString(KeyTelegramBotToken),
			ChatID:   s.configStore.GetString(KeyTelegramChatID),
			Prefix:   s.configStore.GetString(KeyTelegramPrefix),
		},
		Storage: domain.StorageSettings{
			Backend:       domain.StorageBackend(s.getString(KeyStorageBackend, defaults.Storage.Backend.String())),
			DataDir:       s.configStore.GetString(KeyStorageDataDir),
			RedisAddr:     s.configStore.GetString(KeyRedisAddr),
			RedisPassword: s.configStore.GetString(KeyRedisPassword),
			RedisDB:       s.configStore.GetInt(KeyRedisDB),
		},
		Metrics: domain.MetricsSettings{
			Addr: s.configStore.GetString(KeyMetricsAddr),
		},
		Log: domain.LogSettings{
			Level: s.getString(KeyLogLevel, defaults.Log.Level),
			File:  s.configStore.GetString(KeyLogFile),
		},
	}

	return settings, nil
}

// Set validates and stores a single setting.
// String values are converted to the key's type, so CLI input can be
// passed through unchanged.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	converted, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if key == KeyStorageBackend {
		if backend := domain.StorageBackend(fmt.Sprint(converted)); !backend.IsValid() {
			return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, backend)
		}
	}

	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Lookup returns the raw value stored for a key.
func (s *SettingsService) Lookup(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Validate checks that the current settings can run refresh cycles.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultSchedulerConfig()
	}
	return settings.SchedulerConfig()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) (bool, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s: %q is not a boolean", domain.ErrInvalidInput, key, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s: %v is not a boolean", domain.ErrInvalidInput, key, val)
	}
}

// getDuration accepts duration strings ("4h0m10s") and whole seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	d, err := toDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func toDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("unsupported duration value %v", val)
	}
}

func convertValue(kind keyKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindBool:
		if !isString {
			if b, ok := value.(bool); ok {
				return b, nil
			}
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return strconv.ParseBool(strings.TrimSpace(str))
	case kindInt:
		if !isString {
			switch v := value.(type) {
			case int:
				return v, nil
			case int64:
				return int(v), nil
			}
			return nil, fmt.Errorf("expected an integer, got %T", value)
		}
		return strconv.Atoi(strings.TrimSpace(str))
	case kindDuration:
		d, err := toDuration(value)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("duration must be positive")
		}
		return d.String(), nil
	default:
		if !isString {
			return fmt.Sprint(value), nil
		}
		return str, nil
	}
}
