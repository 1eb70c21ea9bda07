package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driving"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// Ensure ResumeRefresher implements the interface.
var _ driving.ResumeRefresher = (*ResumeRefresher)(nil)

// errIncompletePair marks a token grant that returned an unusable pair.
var errIncompletePair = fmt.Errorf("%w: incomplete token pair", domain.ErrInvalidInput)

// RefreshLeaseTTL bounds how long a refresh cycle holds the shared lock.
// It outlasts the interactive authorization wait.
const RefreshLeaseTTL = 10 * time.Minute

// ResumeRefresher runs the authorize-then-update cycle for one résumé.
//
// The token pair is read from the store at construction and again at the
// start of every cycle, while the refresh lock is held, so a pair stored by
// another process is picked up. Within a cycle the in-memory copy is only
// replaced after the store accepted the new pair.
type ResumeRefresher struct {
	resumeID string
	store    driven.TokenStore
	platform driven.JobPlatform
	notifier driven.Notifier
	metrics  driven.MetricsRecorder
	lock     driven.RefreshLock

	// tickMu serialises cycles; overlapping calls are skipped.
	tickMu sync.Mutex

	mu     sync.RWMutex
	tokens domain.TokenPair
}

// RefresherOption configures optional ResumeRefresher collaborators.
type RefresherOption func(*ResumeRefresher)

// WithMetrics records tick and call outcomes.
func WithMetrics(m driven.MetricsRecorder) RefresherOption {
	return func(r *ResumeRefresher) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithLock guards cycles against other processes sharing the token store.
func WithLock(l driven.RefreshLock) RefresherOption {
	return func(r *ResumeRefresher) {
		if l != nil {
			r.lock = l
		}
	}
}

// NewResumeRefresher creates a refresher and loads the cached token pair.
// A pair with either token missing is treated as absent.
func NewResumeRefresher(
	ctx context.Context,
	resumeID string,
	store driven.TokenStore,
	platform driven.JobPlatform,
	notifier driven.Notifier,
	opts ...RefresherOption,
) (*ResumeRefresher, error) {
	if store == nil || platform == nil || notifier == nil {
		return nil, fmt.Errorf("%w: token store, platform and notifier are required", domain.ErrInvalidInput)
	}

	r := &ResumeRefresher{
		resumeID: resumeID,
		store:    store,
		platform: platform,
		notifier: notifier,
		metrics:  nopMetrics{},
		lock:     nopLock{},
	}
	for _, opt := range opts {
		opt(r)
	}

	pair, err := loadTokenPair(ctx, store)
	if err != nil {
		return nil, err
	}
	r.tokens = pair

	logger.Debug("refresher: loaded tokens from %s (complete=%t)", store.Namespace(), pair.IsValid())
	return r, nil
}

// loadTokenPair reads both tokens. Missing keys yield an empty pair.
func loadTokenPair(ctx context.Context, store driven.TokenStore) (domain.TokenPair, error) {
	access, err := store.Get(ctx, domain.KeyAccessToken)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.TokenPair{}, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := store.Get(ctx, domain.KeyRefreshToken)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.TokenPair{}, fmt.Errorf("load refresh token: %w", err)
	}

	pair := domain.TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.IsValid() {
		return domain.TokenPair{}, nil
	}
	return pair, nil
}

// HasTokens reports whether a complete token pair is cached.
func (r *ResumeRefresher) HasTokens() bool {
	pair := r.currentTokens()
	return pair.IsValid()
}

// OnTick runs one refresh cycle.
//
// With cached tokens the résumé is updated; if the platform rejects the
// access token, the pair is refreshed and the update is retried once.
// Without cached tokens the initial grant runs first and the update is
// attempted once.
func (r *ResumeRefresher) OnTick(ctx context.Context) (err error) {
	release, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	defer func() {
		r.metrics.Tick(err, time.Since(start))
	}()

	logger.Section("Resume refresh")

	if !r.HasTokens() {
		logger.Info("refresher: no cached tokens, requesting initial authorization")
		if _, err := r.refreshTokens(ctx, true); err != nil {
			return err
		}
		return r.updateResume(ctx).Error()
	}

	result := r.updateResume(ctx)
	if result.OK() {
		return nil
	}
	if result.Outcome != domain.OutcomeUnauthorized {
		return result.Error()
	}

	logger.Info("refresher: access token rejected (status %d), refreshing", result.StatusCode)
	if _, err := r.refreshTokens(ctx, false); err != nil {
		return err
	}
	return r.updateResume(ctx).Error()
}

// Authorize runs the initial token grant regardless of cached tokens.
// Unlike a tick, an incomplete pair from the platform is an error here.
func (r *ResumeRefresher) Authorize(ctx context.Context) error {
	release, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	stored, err := r.refreshTokens(ctx, true)
	if err != nil {
		return err
	}
	if !stored {
		return errIncompletePair
	}
	return nil
}

// begin takes the in-process and shared locks and reloads the stored pair.
// The returned func releases both.
func (r *ResumeRefresher) begin(ctx context.Context) (func(), error) {
	if !r.tickMu.TryLock() {
		return nil, domain.ErrTickInProgress
	}
	if err := r.lock.TryAcquire(ctx, RefreshLeaseTTL); err != nil {
		r.tickMu.Unlock()
		return nil, err
	}

	release := func() {
		// Release even when ctx was cancelled mid-cycle.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.lock.Release(releaseCtx); err != nil {
			logger.Warn("refresher: releasing refresh lock: %v", err)
		}
		r.tickMu.Unlock()
	}

	pair, err := loadTokenPair(ctx, r.store)
	if err != nil {
		release()
		return nil, err
	}
	r.setTokens(pair)
	return release, nil
}

// updateResume publishes the résumé with the cached access token.
// Authorization failures are not reported; the caller decides on a retry.
func (r *ResumeRefresher) updateResume(ctx context.Context) domain.CallResult {
	result := r.platform.UpdateResume(ctx, r.resumeID, r.currentTokens().AccessToken)
	r.metrics.ResumeUpdate(result.Outcome)

	switch {
	case result.OK():
		logger.Info("refresher: resume %s updated", r.resumeID)
		r.notify(ctx, domain.MsgResumeUpdated)
	case result.Outcome == domain.OutcomeUnauthorized:
		logger.Debug("refresher: resume update unauthorized (status %d)", result.StatusCode)
	default:
		logger.Error("refresher: resume update failed: %v", result.Error())
		r.notify(ctx, domain.ResumeUpdateFailed(result.Error()))
	}
	return result
}

// refreshTokens obtains a new pair and stores it.
// Returns false without error when the platform issued an incomplete pair;
// the cached tokens are then left as they were.
func (r *ResumeRefresher) refreshTokens(ctx context.Context, initial bool) (stored bool, err error) {
	defer func() {
		if err == nil && !stored {
			r.metrics.TokenRefresh(initial, errIncompletePair)
			return
		}
		r.metrics.TokenRefresh(initial, err)
	}()

	var pair *domain.TokenPair
	if initial {
		pair, err = r.platform.InitialToken(ctx)
	} else {
		pair, err = r.platform.RefreshToken(ctx, r.currentTokens().RefreshToken)
	}
	if err != nil {
		logger.Error("refresher: token update failed: %v", err)
		r.notify(ctx, domain.TokenUpdateFailed(err))
		return false, fmt.Errorf("update tokens: %w", err)
	}

	if !pair.IsValid() {
		logger.Warn("refresher: platform returned an incomplete token pair, keeping cached tokens")
		return false, nil
	}

	if err := r.store.PutAll(ctx, pair.Values()); err != nil {
		logger.Error("refresher: saving tokens failed: %v", err)
		r.notify(ctx, domain.TokenUpdateFailed(err))
		return false, fmt.Errorf("save tokens: %w", err)
	}
	r.setTokens(*pair)

	logger.WithFields(logger.Fields{
		"initial":              initial,
		"access_token_length":  len(pair.AccessToken),
		"refresh_token_length": len(pair.RefreshToken),
	}).Info("refresher: tokens updated")
	r.notify(ctx, domain.MsgTokensUpdated)
	return true, nil
}

// notify sends a message; delivery failures never change the cycle outcome.
func (r *ResumeRefresher) notify(ctx context.Context, message string) {
	if err := r.notifier.Send(ctx, message); err != nil {
		logger.Warn("refresher: notification failed: %v", err)
	}
}

func (r *ResumeRefresher) currentTokens() domain.TokenPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens
}

func (r *ResumeRefresher) setTokens(pair domain.TokenPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = pair
}

// nopMetrics discards all measurements.
type nopMetrics struct{}

func (nopMetrics) ResumeUpdate(domain.CallOutcome) {}
func (nopMetrics) TokenRefresh(bool, error)        {}
func (nopMetrics) Tick(error, time.Duration)       {}

// nopLock leaves serialisation to tickMu.
type nopLock struct{}

func (nopLock) TryAcquire(context.Context, time.Duration) error { return nil }
func (nopLock) Release(context.Context) error                   { return nil }
