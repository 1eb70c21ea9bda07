package driven

import (
	"context"
	"time"
)

// RefreshLock keeps refresh cycles of separate processes that share one
// token store from running at the same time.
//
// Each value is one holder. A lease that is not released expires after
// its ttl so a crashed process does not block the others for good.
type RefreshLock interface {
	// TryAcquire takes the lock for ttl without waiting.
	// Returns domain.ErrTickInProgress when another holder owns it.
	TryAcquire(ctx context.Context, ttl time.Duration) error

	// Release gives the lock up if this holder still owns it.
	Release(ctx context.Context) error
}
