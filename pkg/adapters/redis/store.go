package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/callflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "callflow:session:"

// noExpiryScore is the index score of records stored without TTL (2100-01-01).
const noExpiryScore = 4102444800

// Store implements ports.SessionStore using Redis.
// Records are JSON values; a sorted set indexes call IDs by expiry for List.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for session records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(callID string) string {
	return s.prefix + callID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Set upserts the record. Existence check, write and index update run in one MULTI/EXEC.
func (s *Store) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiryScore
	}

	var exists *backend.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		exists = pipe.Exists(ctx, s.key(callID))
		pipe.Set(ctx, s.key(callID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  score,
			Member: callID,
		})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save to redis: %w", err)
	}

	if exists.Val() > 0 {
		return domain.SetUpdated, nil
	}
	return domain.SetCreated, nil
}

// Get retrieves the record from Redis.
func (s *Store) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	val, err := s.client.Get(ctx, s.key(callID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if rec.Data.Fields == nil {
		rec.Data.Fields = make(map[string]any)
	}

	return &rec, nil
}

// Destroy removes the record and its index entry.
func (s *Store) Destroy(ctx context.Context, callID string) (bool, error) {
	var del *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		del = pipe.Del(ctx, s.key(callID))
		pipe.ZRem(ctx, s.indexKey(), callID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete from redis: %w", err)
	}
	return del.Val() > 0, nil
}

// List returns the calls with a live record, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	calls, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return calls, nil
}

// Locker returns a distributed locker sharing the store's client and prefix.
func (s *Store) Locker(opts ...LockerOption) *Locker {
	return NewLocker(s.client, s.prefix, opts...)
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
