package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/callflow/internal/logging"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new session Manager with the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(callID) after unlocking.
func (m *Manager) acquire(callID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		entry = &lockEntry{}
		m.locks[callID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, callID)
	}
}

// WithLock executes fn while holding the lock for the call.
func (m *Manager) WithLock(ctx context.Context, callID string, fn func(context.Context) error) error {
	entry := m.acquire(callID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(callID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, callID, m.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockAcquire) {
				return err
			}
			return fmt.Errorf("%w: %w", domain.ErrLockAcquire, err)
		}
		defer func() {
			// The request context may already be done; release on a fresh one
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"call_sid", callID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// get loads a record, or returns a fresh unsaved one when the call has none.
func (m *Manager) get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	rec, err := m.store.Get(ctx, callID)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSessionRecord(callID), nil
	}
	return nil, &domain.StoreError{Op: "get", CallID: callID, Err: err}
}

// Load retrieves the call's record. A call without a record gets a fresh, unsaved one.
func (m *Manager) Load(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, callID, func(ctx context.Context) error {
		var err error
		rec, err = m.get(ctx, callID)
		return err
	})
	return rec, err
}

// UpdateFunc computes the next session data for a call.
// Returning an error aborts the update; nothing is persisted.
type UpdateFunc func(ctx context.Context, rec *domain.SessionRecord) (domain.SessionData, error)

// Update runs a locked read-modify-write on the call's record.
// The record is persisted only if fn succeeds, and Update returns only after the store
// confirmed the write.
func (m *Manager) Update(ctx context.Context, callID string, call domain.CallParams, fn UpdateFunc) (domain.SetResult, error) {
	var result domain.SetResult
	err := m.WithLock(ctx, callID, func(ctx context.Context) error {
		rec, err := m.get(ctx, callID)
		if err != nil {
			return err
		}

		data, err := fn(ctx, rec)
		if err != nil {
			return err
		}
		data.CallID = callID
		rec.Advance(data, call, m.now())

		result, err = m.store.Set(ctx, callID, rec)
		if err != nil {
			return &domain.StoreError{Op: "set", CallID: callID, Err: err}
		}
		return nil
	})
	return result, err
}

// Destroy removes the call's record. It reports whether a record existed.
func (m *Manager) Destroy(ctx context.Context, callID string) (bool, error) {
	var existed bool
	err := m.WithLock(ctx, callID, func(ctx context.Context) error {
		var err error
		existed, err = m.store.Destroy(ctx, callID)
		if err != nil {
			return &domain.StoreError{Op: "destroy", CallID: callID, Err: err}
		}
		return nil
	})
	return existed, err
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
