package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one call across server replicas.
type DistributedLocker interface {
	// Lock acquires the lock for key, a call identifier, for at most ttl.
	// It blocks until the lock is free or ctx is done; in the latter case the error
	// wraps domain.ErrLockAcquire. The returned UnlockFunc MUST be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// LockerFunc adapts a function to DistributedLocker.
type LockerFunc func(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

// Lock calls f.
func (f LockerFunc) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	return f(ctx, key, ttl)
}
