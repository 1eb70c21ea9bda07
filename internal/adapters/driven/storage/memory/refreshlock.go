package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure RefreshLock implements the interface.
var _ driven.RefreshLock = (*RefreshLock)(nil)

// RefreshLock is an in-process lease. It pairs with the in-memory token
// store, which no other process can see anyway.
type RefreshLock struct {
	mu      sync.Mutex
	expires time.Time
}

// NewRefreshLock creates a free lock.
func NewRefreshLock() *RefreshLock {
	return &RefreshLock{}
}

// TryAcquire takes the lease unless an unexpired one is held.
func (l *RefreshLock) TryAcquire(_ context.Context, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Before(l.expires) {
		return domain.ErrTickInProgress
	}
	l.expires = now.Add(ttl)
	return nil
}

// Release frees the lease.
func (l *RefreshLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires = time.Time{}
	return nil
}
