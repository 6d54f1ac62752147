package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// DefaultPollInterval is how often a contended lock is retried.
const DefaultPollInterval = 100 * time.Millisecond

// Locker implements ports.DistributedLocker using Redis SET NX PX.
type Locker struct {
	client   *backend.Client
	prefix   string
	interval time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithPollInterval sets the retry interval while a lock is held elsewhere.
func WithPollInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.interval = d
		}
	}
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client:   client,
		prefix:   prefix,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires a distributed lock for the given key.
// Each acquisition stores a random token so that only the holder can release it.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", domain.ErrLockAcquire, key, ctx.Err())
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrLockAcquire, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrLockAcquire, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
