package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// refreshLock implements driven.RefreshLock as a lease row in the locks
// table. Every process opening the database gets its own holder ID.
type refreshLock struct {
	store  *Store
	name   string
	holder string
}

var _ driven.RefreshLock = (*refreshLock)(nil)

// The row is taken over only when it has expired.
const acquireLock = `
	INSERT INTO locks (name, holder, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		holder = excluded.holder,
		expires_at = excluded.expires_at
	WHERE locks.expires_at <= ?
`

// TryAcquire takes the lease or reports domain.ErrTickInProgress.
func (l *refreshLock) TryAcquire(ctx context.Context, ttl time.Duration) error {
	now := time.Now().UTC()
	res, err := l.store.db.ExecContext(ctx, acquireLock,
		l.name, l.holder, now.Add(ttl).Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.name, err)
	}
	if n == 0 {
		return domain.ErrTickInProgress
	}
	return nil
}

// Release deletes the lease if this holder still owns it.
func (l *refreshLock) Release(ctx context.Context) error {
	if _, err := l.store.db.ExecContext(ctx,
		"DELETE FROM locks WHERE name = ? AND holder = ?", l.name, l.holder,
	); err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.name, err)
	}
	return nil
}

