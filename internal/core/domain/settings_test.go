package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSettings() AppSettings {
	s := DefaultAppSettings()
	s.Resume.ID = "abc123"
	s.HH.ClientID = "client"
	s.HH.ClientSecret = "secret"
	return s
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.True(t, s.Scheduler.Enabled)
	assert.Equal(t, DefaultRefreshInterval, s.Scheduler.Interval)
	assert.Equal(t, StorageSQLite, s.Storage.Backend)
	assert.Equal(t, "https://api.hh.ru", s.HH.APIURL)
	assert.Equal(t, "info", s.Log.Level)
	assert.False(t, s.Telegram.Enabled)
}

func TestAppSettings_SchedulerConfig(t *testing.T) {
	s := validSettings()
	s.Scheduler.Interval = 2 * time.Hour
	s.Scheduler.Enabled = false

	cfg := s.SchedulerConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.GetTaskConfig(TaskIDResumeRefresh).Interval)
	assert.False(t, cfg.GetTaskConfig(TaskIDResumeRefresh).Enabled)
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppSettings)
		wantErr error
	}{
		{"valid", func(*AppSettings) {}, nil},
		{"missing resume", func(s *AppSettings) { s.Resume.ID = "" }, ErrNotConfigured},
		{"missing client", func(s *AppSettings) { s.HH.ClientSecret = "" }, ErrNotConfigured},
		{"zero interval", func(s *AppSettings) { s.Scheduler.Interval = 0 }, ErrInvalidInput},
		{"bad backend", func(s *AppSettings) { s.Storage.Backend = "etcd" }, ErrInvalidInput},
		{"redis without addr", func(s *AppSettings) { s.Storage.Backend = StorageRedis }, ErrNotConfigured},
		{"telegram without token", func(s *AppSettings) { s.Telegram.Enabled = true }, ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestStorageBackend_IsValid(t *testing.T) {
	assert.True(t, StorageSQLite.IsValid())
	assert.True(t, StorageRedis.IsValid())
	assert.True(t, StorageMemory.IsValid())
	assert.False(t, StorageBackend("").IsValid())
	assert.Equal(t, "redis", StorageRedis.String())
}
