package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure RefreshLock implements the interface.
var _ driven.RefreshLock = (*RefreshLock)(nil)

// lockKey is the key, under the store namespace, that holds the lease.
const lockKey = "refresh_lock"

// releaseLock deletes the lease only while it still names the holder.
var releaseLock = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RefreshLock is a lease stored next to the tokens it guards.
type RefreshLock struct {
	client goredis.UniversalClient
	key    string
	holder string
}

// RefreshLock returns a new holder of the lease for this namespace.
func (s *TokenStore) RefreshLock() *RefreshLock {
	return &RefreshLock{client: s.client, key: s.key(lockKey), holder: uuid.NewString()}
}

// TryAcquire sets the lease with SET NX PX.
func (l *RefreshLock) TryAcquire(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.holder, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquiring %s: %w", l.key, err)
	}
	if !ok {
		return domain.ErrTickInProgress
	}
	return nil
}

// Release deletes the lease if this holder still owns it.
func (l *RefreshLock) Release(ctx context.Context) error {
	if err := releaseLock.Run(ctx, l.client, []string{l.key}, l.holder).Err(); err != nil {
		return fmt.Errorf("releasing %s: %w", l.key, err)
	}
	return nil
}
