package cli

import (
	"context"
	"fmt"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/hh"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/metrics"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/notify"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/storage/memory"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/storage/redis"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/storage/sqlite"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/services"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// stores holds the persistence adapters for the configured backend.
type stores struct {
	tokens    driven.TokenStore
	scheduler driven.SchedulerStore
	lock      driven.RefreshLock
	closers   []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("storage: close: %v", err)
		}
	}
	s.closers = nil
}

// openStores opens the token and scheduler stores and the refresh lock.
// Scheduler state lives in SQLite for every backend except memory.
// The lock lives next to the tokens so every process sharing them sees it.
func openStores(ctx context.Context, settings *domain.AppSettings) (*stores, error) {
	st := &stores{}

	switch settings.Storage.Backend {
	case domain.StorageMemory:
		st.tokens = memory.NewTokenStore(domain.TokenNamespace)
		st.scheduler = memory.NewSchedulerStore()
		st.lock = memory.NewRefreshLock()
		return st, nil

	case domain.StorageSQLite, domain.StorageRedis:
		db, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		st.scheduler = db.SchedulerStore()
		st.tokens = db.TokenStore(domain.TokenNamespace)
		st.lock = db.RefreshLock(domain.TokenNamespace)
		logger.Debug("storage: using %s", db.Path())

		if settings.Storage.Backend == domain.StorageRedis {
			rs, err := redis.NewTokenStore(ctx, redis.Options{
				Addr:     settings.Storage.RedisAddr,
				Password: settings.Storage.RedisPassword,
				DB:       settings.Storage.RedisDB,
			}, domain.TokenNamespace)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			st.closers = append(st.closers, rs.Close)
			st.tokens = rs
			st.lock = rs.RefreshLock()
			logger.Debug("storage: tokens in redis at %s", settings.Storage.RedisAddr)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}
}

// app holds everything a refresh command needs.
type app struct {
	*stores
	settings  *domain.AppSettings
	platform  *hh.Client
	metrics   *metrics.Recorder
	refresher *services.ResumeRefresher
	scheduler *services.Scheduler
	status    *services.StatusService
}

// newApp wires the refresher and scheduler. codes supplies the
// authorization code; nil uses hh.authorization_code from the config.
func newApp(ctx context.Context, settings *domain.AppSettings, codes driven.AuthCodeSource) (*app, error) {
	if codes == nil {
		codes = hh.StaticCode(settings.HH.AuthorizationCode)
	}

	platform, err := hh.NewClient(hh.Config{
		ClientID:     settings.HH.ClientID,
		ClientSecret: settings.HH.ClientSecret,
		RedirectURI:  settings.HH.RedirectURI,
		AuthURL:      settings.HH.AuthURL,
		TokenURL:     settings.HH.TokenURL,
		APIURL:       settings.HH.APIURL,
		UserAgent:    settings.HH.UserAgent,
	}, codes)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(settings)
	if err != nil {
		return nil, err
	}

	st, err := openStores(ctx, settings)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	refresher, err := services.NewResumeRefresher(ctx, settings.Resume.ID, st.tokens, platform, notifier,
		services.WithMetrics(recorder), services.WithLock(st.lock))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		stores:    st,
		settings:  settings,
		platform:  platform,
		metrics:   recorder,
		refresher: refresher,
		scheduler: services.NewScheduler(settings.SchedulerConfig(), st.scheduler, refresher),
		status:    services.NewStatusService(settings.Resume.ID, st.tokens, st.scheduler),
	}, nil
}

func newNotifier(settings *domain.AppSettings) (driven.Notifier, error) {
	if !settings.Telegram.Enabled {
		return notify.Log{}, nil
	}
	tg, err := notify.NewTelegram(settings.Telegram.BotToken, settings.Telegram.ChatID, settings.Telegram.Prefix)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

// loadSettings returns the current settings, failing when they cannot run
// a refresh cycle.
func loadSettings(validate bool) (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, fmt.Errorf("%w: settings service", domain.ErrNotConfigured)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if validate {
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}
	return settings, nil
}
