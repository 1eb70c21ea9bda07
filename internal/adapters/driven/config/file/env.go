package file

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvBindings maps environment variables to config keys.
//
//nolint:gosec // G101: variable names, not credentials.
var EnvBindings = map[string]string{
	"HH_RESUME_ID":          "resume.id",
	"HH_CLIENT_ID":          "hh.client_id",
	"HH_CLIENT_SECRET":      "hh.client_secret",
	"HH_AUTHORIZATION_CODE": "hh.authorization_code",
	"HH_REDIRECT_URI":       "hh.redirect_uri",
	"SCHEDULER_ENABLED":     "scheduler.enabled",
	"SCHEDULER_INTERVAL":    "scheduler.interval",
	"TELEGRAM_ENABLED":      "telegram.enabled",
	"TELEGRAM_BOT_TOKEN":    "telegram.bot_token",
	"TELEGRAM_CHAT_ID":      "telegram.chat_id",
	"STORAGE_BACKEND":       "storage.backend",
	"REDIS_ADDR":            "redis.addr",
	"REDIS_PASSWORD":        "redis.password",
	"METRICS_ADDR":          "metrics.addr",
	"LOG_LEVEL":             "log.level",
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// into the process environment. Missing files are ignored; variables that
// are already set are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config keys with non-empty environment variables.
// Values stay strings; the store's typed getters parse them.
// Returns the number of overrides applied.
func ApplyEnv(store *ConfigStore) int {
	return applyEnv(store, os.LookupEnv)
}

func applyEnv(store *ConfigStore, lookup func(string) (string, bool)) int {
	applied := 0
	for envVar, key := range EnvBindings {
		val, ok := lookup(envVar)
		if !ok || val == "" {
			continue
		}
		store.Override(key, val)
		applied++
	}
	return applied
}
