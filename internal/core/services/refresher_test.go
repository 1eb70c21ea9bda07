package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// --- Mock implementations for refresher testing ---

// mockTokenStore implements driven.TokenStore for testing.
type mockTokenStore struct {
	mu        sync.Mutex
	values    map[string]string
	getErr    error
	putAllErr error
	putAlls   int
}

func newMockTokenStore(values map[string]string) *mockTokenStore {
	if values == nil {
		values = make(map[string]string)
	}
	return &mockTokenStore{values: values}
}

func (m *mockTokenStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *mockTokenStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockTokenStore) PutAll(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putAlls++
	if m.putAllErr != nil {
		return m.putAllErr
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *mockTokenStore) Namespace() string {
	return domain.TokenNamespace
}

func (m *mockTokenStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// mockPlatform implements driven.JobPlatform for testing.
// UpdateResume returns queued results in order, then the last one forever.
type mockPlatform struct {
	mu           sync.Mutex
	calls        []string
	updateTokens []string
	results      []domain.CallResult
	initialPair  *domain.TokenPair
	initialErr   error
	refreshPair  *domain.TokenPair
	refreshErr   error
	refreshedRT  string
	block        chan struct{}
}

func (m *mockPlatform) InitialToken(_ context.Context) (*domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "initial")
	return m.initialPair, m.initialErr
}

func (m *mockPlatform) RefreshToken(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "refresh")
	m.refreshedRT = refreshToken
	return m.refreshPair, m.refreshErr
}

func (m *mockPlatform) UpdateResume(_ context.Context, _ string, accessToken string) domain.CallResult {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "update")
	m.updateTokens = append(m.updateTokens, accessToken)
	if len(m.results) == 0 {
		return domain.Succeeded(204)
	}
	result := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return result
}

func (m *mockPlatform) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockPlatform) count(name string) int {
	n := 0
	for _, c := range m.callLog() {
		if c == name {
			n++
		}
	}
	return n
}

// recordingNotifier implements driven.Notifier for testing.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	mu        sync.Mutex
	updates   []domain.CallOutcome
	refreshes []error
	ticks     []error
}

func (m *mockMetrics) ResumeUpdate(outcome domain.CallOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, outcome)
}

func (m *mockMetrics) TokenRefresh(_ bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, err)
}

func (m *mockMetrics) Tick(err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, err)
}

// sharedLock is one lock row seen by several holders.
type sharedLock struct {
	mu       sync.Mutex
	owner    string
	acquired int
	released int
}

func (l *sharedLock) holder(id string) *lockHolder {
	return &lockHolder{lock: l, id: id}
}

func (l *sharedLock) heldBy() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// lockHolder implements driven.RefreshLock for one holder of a sharedLock.
type lockHolder struct {
	lock *sharedLock
	id   string
}

func (h *lockHolder) TryAcquire(_ context.Context, _ time.Duration) error {
	h.lock.mu.Lock()
	defer h.lock.mu.Unlock()
	if h.lock.owner != "" && h.lock.owner != h.id {
		return domain.ErrTickInProgress
	}
	h.lock.owner = h.id
	h.lock.acquired++
	return nil
}

func (h *lockHolder) Release(_ context.Context) error {
	h.lock.mu.Lock()
	defer h.lock.mu.Unlock()
	if h.lock.owner == h.id {
		h.lock.owner = ""
		h.lock.released++
	}
	return nil
}

// Ensure mocks implement interfaces
var _ driven.RefreshLock = (*lockHolder)(nil)
var _ driven.TokenStore = (*mockTokenStore)(nil)
var _ driven.JobPlatform = (*mockPlatform)(nil)
var _ driven.Notifier = (*recordingNotifier)(nil)
var _ driven.MetricsRecorder = (*mockMetrics)(nil)

func storedPair() map[string]string {
	return map[string]string{
		domain.KeyAccessToken:  "old-access",
		domain.KeyRefreshToken: "old-refresh",
	}
}

func newTestRefresher(t *testing.T, store *mockTokenStore, platform *mockPlatform, notifier *recordingNotifier, opts ...RefresherOption) *ResumeRefresher {
	t.Helper()
	r, err := NewResumeRefresher(context.Background(), "resume-1", store, platform, notifier, opts...)
	require.NoError(t, err)
	return r
}

// ==================== Construction ====================

func TestNewResumeRefresher_LoadsStoredPair(t *testing.T) {
	r := newTestRefresher(t, newMockTokenStore(storedPair()), &mockPlatform{}, &recordingNotifier{})

	assert.True(t, r.HasTokens())
	assert.Equal(t, "old-access", r.currentTokens().AccessToken)
	assert.Equal(t, "old-refresh", r.currentTokens().RefreshToken)
}

func TestNewResumeRefresher_EmptyStore(t *testing.T) {
	r := newTestRefresher(t, newMockTokenStore(nil), &mockPlatform{}, &recordingNotifier{})
	assert.False(t, r.HasTokens())
}

func TestNewResumeRefresher_HalfPairTreatedAsAbsent(t *testing.T) {
	store := newMockTokenStore(map[string]string{domain.KeyAccessToken: "only-access"})
	r := newTestRefresher(t, store, &mockPlatform{}, &recordingNotifier{})

	assert.False(t, r.HasTokens())
	assert.Empty(t, r.currentTokens().AccessToken)
}

func TestNewResumeRefresher_StoreError(t *testing.T) {
	store := newMockTokenStore(nil)
	store.getErr = errors.New("disk gone")

	_, err := NewResumeRefresher(context.Background(), "resume-1", store, &mockPlatform{}, &recordingNotifier{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestNewResumeRefresher_MissingCollaborators(t *testing.T) {
	_, err := NewResumeRefresher(context.Background(), "resume-1", nil, &mockPlatform{}, &recordingNotifier{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewResumeRefresher(context.Background(), "resume-1", newMockTokenStore(nil), nil, &recordingNotifier{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewResumeRefresher(context.Background(), "resume-1", newMockTokenStore(nil), &mockPlatform{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ==================== OnTick ====================

func TestOnTick_SuccessWithCachedTokens(t *testing.T) {
	platform := &mockPlatform{results: []domain.CallResult{domain.Succeeded(204)}}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	err := r.OnTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"update"}, platform.callLog())
	assert.Equal(t, []string{"old-access"}, platform.updateTokens)
	assert.Equal(t, []string{domain.MsgResumeUpdated}, notifier.sent())
}

func TestOnTick_UnauthorizedRefreshesAndRetriesOnce(t *testing.T) {
	store := newMockTokenStore(storedPair())
	platform := &mockPlatform{
		results: []domain.CallResult{
			domain.Unauthorized(403, nil),
			domain.Succeeded(204),
		},
		refreshPair: &domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.OnTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"update", "refresh", "update"}, platform.callLog())
	assert.Equal(t, "old-refresh", platform.refreshedRT)
	assert.Equal(t, []string{"old-access", "new-access"}, platform.updateTokens)
	assert.Equal(t, []string{domain.MsgTokensUpdated, domain.MsgResumeUpdated}, notifier.sent())

	assert.Equal(t, "new-access", store.value(domain.KeyAccessToken))
	assert.Equal(t, "new-refresh", store.value(domain.KeyRefreshToken))
	assert.Equal(t, "new-access", r.currentTokens().AccessToken)
}

func TestOnTick_SecondUnauthorizedPropagates(t *testing.T) {
	platform := &mockPlatform{
		results:     []domain.CallResult{domain.Unauthorized(403, nil)},
		refreshPair: &domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	err := r.OnTick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Exactly one refresh and one retry.
	assert.Equal(t, 1, platform.count("refresh"))
	assert.Equal(t, 2, platform.count("update"))
	assert.Equal(t, []string{domain.MsgTokensUpdated}, notifier.sent())
}

func TestOnTick_NoTokensRunsInitialGrantFirst(t *testing.T) {
	store := newMockTokenStore(nil)
	platform := &mockPlatform{
		initialPair: &domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.OnTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"initial", "update"}, platform.callLog())
	assert.Equal(t, []string{"a1"}, platform.updateTokens)
	assert.Equal(t, []string{domain.MsgTokensUpdated, domain.MsgResumeUpdated}, notifier.sent())
	assert.Equal(t, "r1", store.value(domain.KeyRefreshToken))
}

func TestOnTick_NoTokensUnauthorizedIsNotRetried(t *testing.T) {
	platform := &mockPlatform{
		initialPair: &domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"},
		results:     []domain.CallResult{domain.Unauthorized(403, nil)},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(nil), platform, notifier)

	err := r.OnTick(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, []string{"initial", "update"}, platform.callLog())
	assert.Equal(t, []string{domain.MsgTokensUpdated}, notifier.sent())
}

func TestOnTick_InitialGrantError(t *testing.T) {
	grantErr := errors.New("bad authorization code")
	platform := &mockPlatform{initialErr: grantErr}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(nil), platform, notifier)

	err := r.OnTick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, grantErr)
	assert.Equal(t, []string{"initial"}, platform.callLog())
	assert.Equal(t, []string{domain.TokenUpdateFailed(grantErr)}, notifier.sent())
}

func TestOnTick_RefreshErrorNotifiesAndPropagates(t *testing.T) {
	refreshErr := errors.New("invalid_grant")
	platform := &mockPlatform{
		results:    []domain.CallResult{domain.Unauthorized(403, nil)},
		refreshErr: refreshErr,
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	err := r.OnTick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, refreshErr)

	assert.Equal(t, []string{"update", "refresh"}, platform.callLog())
	require.Len(t, notifier.sent(), 1)
	assert.Equal(t, "Token update failed: invalid_grant", notifier.sent()[0])
}

func TestOnTick_IncompleteRefreshLeavesStateUnchanged(t *testing.T) {
	store := newMockTokenStore(storedPair())
	platform := &mockPlatform{
		results:     []domain.CallResult{domain.Unauthorized(403, nil)},
		refreshPair: &domain.TokenPair{AccessToken: "new-access", RefreshToken: ""},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.OnTick(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, 0, store.putAlls)
	assert.Equal(t, "old-access", store.value(domain.KeyAccessToken))
	assert.Equal(t, "old-refresh", store.value(domain.KeyRefreshToken))
	assert.Equal(t, "old-access", r.currentTokens().AccessToken)
	assert.Empty(t, notifier.sent())

	// The retry still runs with the cached token.
	assert.Equal(t, []string{"old-access", "old-access"}, platform.updateTokens)
}

func TestOnTick_NilRefreshPairLeavesStateUnchanged(t *testing.T) {
	store := newMockTokenStore(storedPair())
	platform := &mockPlatform{
		results: []domain.CallResult{domain.Unauthorized(401, nil), domain.Succeeded(204)},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.OnTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, store.putAlls)
	assert.Equal(t, []string{domain.MsgResumeUpdated}, notifier.sent())
}

func TestOnTick_StoreFailureKeepsCachedTokens(t *testing.T) {
	store := newMockTokenStore(storedPair())
	store.putAllErr = errors.New("read-only database")
	platform := &mockPlatform{
		results:     []domain.CallResult{domain.Unauthorized(403, nil)},
		refreshPair: &domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.OnTick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save tokens")

	assert.Equal(t, "old-access", r.currentTokens().AccessToken)
	assert.Equal(t, []string{"update", "refresh"}, platform.callLog())
	assert.Equal(t, []string{"Token update failed: read-only database"}, notifier.sent())
}

func TestOnTick_OtherFailureNotifiesWithoutRefresh(t *testing.T) {
	apiErr := errors.New("internal server error")
	platform := &mockPlatform{
		results: []domain.CallResult{domain.Failed(500, apiErr)},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	err := r.OnTick(context.Background())
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, []string{"update"}, platform.callLog())
	assert.Equal(t, []string{"Resume update failed: internal server error"}, notifier.sent())
}

func TestOnTick_TwoSuccessfulTicks(t *testing.T) {
	platform := &mockPlatform{}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	require.NoError(t, r.OnTick(context.Background()))
	require.NoError(t, r.OnTick(context.Background()))

	assert.Equal(t, 0, platform.count("refresh"))
	assert.Equal(t, 0, platform.count("initial"))
	assert.Equal(t, []string{domain.MsgResumeUpdated, domain.MsgResumeUpdated}, notifier.sent())
}

func TestOnTick_NotifierFailureDoesNotChangeOutcome(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), &mockPlatform{}, notifier)

	err := r.OnTick(context.Background())
	require.NoError(t, err)
	assert.Len(t, notifier.sent(), 1)
}

func TestOnTick_SkipsWhileRunning(t *testing.T) {
	platform := &mockPlatform{block: make(chan struct{})}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, notifier)

	done := make(chan error, 1)
	go func() {
		done <- r.OnTick(context.Background())
	}()

	// Wait until the first tick holds the lock.
	require.Eventually(t, func() bool {
		if r.tickMu.TryLock() {
			r.tickMu.Unlock()
			return false
		}
		return true
	}, time.Second, 5*time.Millisecond)

	err := r.OnTick(context.Background())
	assert.ErrorIs(t, err, domain.ErrTickInProgress)

	close(platform.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, platform.count("update"))
}

func TestOnTick_RecordsMetrics(t *testing.T) {
	metrics := &mockMetrics{}
	platform := &mockPlatform{
		results: []domain.CallResult{
			domain.Unauthorized(403, nil),
			domain.Succeeded(204),
		},
		refreshPair: &domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
	}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, &recordingNotifier{}, WithMetrics(metrics))

	require.NoError(t, r.OnTick(context.Background()))

	assert.Equal(t, []domain.CallOutcome{domain.OutcomeUnauthorized, domain.OutcomeSuccess}, metrics.updates)
	assert.Equal(t, []error{nil}, metrics.refreshes)
	assert.Equal(t, []error{nil}, metrics.ticks)
}

// ==================== Authorize ====================

func TestAuthorize_StoresPair(t *testing.T) {
	store := newMockTokenStore(storedPair())
	platform := &mockPlatform{
		initialPair: &domain.TokenPair{AccessToken: "a2", RefreshToken: "r2"},
	}
	notifier := &recordingNotifier{}
	r := newTestRefresher(t, store, platform, notifier)

	err := r.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"initial"}, platform.callLog())
	assert.Equal(t, "a2", store.value(domain.KeyAccessToken))
	assert.Equal(t, "a2", r.currentTokens().AccessToken)
	assert.Equal(t, []string{domain.MsgTokensUpdated}, notifier.sent())
}

func TestAuthorize_IncompletePair(t *testing.T) {
	platform := &mockPlatform{
		initialPair: &domain.TokenPair{AccessToken: "a2"},
	}
	r := newTestRefresher(t, newMockTokenStore(nil), platform, &recordingNotifier{})

	err := r.Authorize(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, r.HasTokens())
}

// ==================== Shared lock ====================

func TestOnTick_UsesPairStoredByAnotherRefresher(t *testing.T) {
	store := newMockTokenStore(storedPair())
	lock := &sharedLock{}

	loginPlatform := &mockPlatform{
		initialPair: &domain.TokenPair{AccessToken: "login-access", RefreshToken: "login-refresh"},
	}
	login := newTestRefresher(t, store, loginPlatform, &recordingNotifier{}, WithLock(lock.holder("login")))

	runPlatform := &mockPlatform{
		results: []domain.CallResult{
			domain.Unauthorized(403, nil),
			domain.Succeeded(204),
		},
		refreshPair: &domain.TokenPair{AccessToken: "run-access", RefreshToken: "run-refresh"},
	}
	run := newTestRefresher(t, store, runPlatform, &recordingNotifier{}, WithLock(lock.holder("run")))

	require.NoError(t, login.Authorize(context.Background()))
	require.NoError(t, run.OnTick(context.Background()))

	// The second refresher works from the rotated pair, not its startup copy.
	assert.Equal(t, "login-refresh", runPlatform.refreshedRT)
	assert.Equal(t, []string{"login-access", "run-access"}, runPlatform.updateTokens)
	assert.Equal(t, "run-refresh", store.value(domain.KeyRefreshToken))
}

func TestOnTick_SkipsWhileAnotherHolderHasLock(t *testing.T) {
	lock := &sharedLock{}
	other := lock.holder("other")
	require.NoError(t, other.TryAcquire(context.Background(), time.Minute))

	platform := &mockPlatform{}
	metrics := &mockMetrics{}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, &recordingNotifier{},
		WithLock(lock.holder("self")), WithMetrics(metrics))

	assert.ErrorIs(t, r.OnTick(context.Background()), domain.ErrTickInProgress)
	assert.ErrorIs(t, r.Authorize(context.Background()), domain.ErrTickInProgress)
	assert.Empty(t, platform.callLog())
	assert.Empty(t, metrics.ticks)

	// Once the other holder lets go, the next tick runs.
	require.NoError(t, other.Release(context.Background()))
	require.NoError(t, r.OnTick(context.Background()))
	assert.Equal(t, []string{"update"}, platform.callLog())
}

func TestOnTick_ReleasesLock(t *testing.T) {
	lock := &sharedLock{}
	platform := &mockPlatform{results: []domain.CallResult{domain.Failed(500, errors.New("boom"))}}
	r := newTestRefresher(t, newMockTokenStore(storedPair()), platform, &recordingNotifier{},
		WithLock(lock.holder("self")))

	require.Error(t, r.OnTick(context.Background()))
	assert.Empty(t, lock.heldBy())
	assert.Equal(t, 1, lock.acquired)
	assert.Equal(t, 1, lock.released)
}

func TestOnTick_ReloadErrorReleasesLock(t *testing.T) {
	lock := &sharedLock{}
	store := newMockTokenStore(storedPair())
	platform := &mockPlatform{}
	r := newTestRefresher(t, store, platform, &recordingNotifier{}, WithLock(lock.holder("self")))

	store.mu.Lock()
	store.getErr = errors.New("disk gone")
	store.mu.Unlock()

	err := r.OnTick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Empty(t, platform.callLog())
	assert.Empty(t, lock.heldBy())

	// The in-process guard is free again as well.
	assert.True(t, r.tickMu.TryLock())
	r.tickMu.Unlock()
}
