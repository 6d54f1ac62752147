package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/callflow/pkg/adapters/redis"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "CA1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("test:lock:CA1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:CA1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:", redis.WithPollInterval(20*time.Millisecond))
	ctx := context.Background()
	key := "CA-shared"

	// 1. First replica acquires
	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	// 2. Second replica blocks until its context expires
	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = locker2.Lock(ctxTimeout, key, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrLockAcquire)
	assert.WithinDuration(t, start.Add(300*time.Millisecond), time.Now(), 100*time.Millisecond, "Should block until timeout")

	// 3. Release and retry
	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()

	assert.True(t, mr.Exists("test:lock:CA-shared"))
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "CA-ttl", time.Second)
	require.NoError(t, err)

	// The first holder's lock expires and another request takes over
	mr.FastForward(2 * time.Second)
	unlockNew, err := locker.Lock(ctx, "CA-ttl", 5*time.Second)
	require.NoError(t, err)

	// Releasing the expired lock must not free the new holder's lock
	require.NoError(t, unlockOld(ctx))
	assert.True(t, mr.Exists("test:lock:CA-ttl"))

	require.NoError(t, unlockNew(ctx))
	assert.False(t, mr.Exists("test:lock:CA-ttl"))
}
