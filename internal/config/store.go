package config

import (
	"encoding/base64"
	"fmt"

	"github.com/aretw0/callflow/pkg/adapters/file"
	"github.com/aretw0/callflow/pkg/adapters/memory"
	"github.com/aretw0/callflow/pkg/adapters/redis"
	"github.com/aretw0/callflow/pkg/adapters/sqlite"
	"github.com/aretw0/callflow/pkg/persistence/middleware"
	"github.com/aretw0/callflow/pkg/ports"
)

// Backend is an opened session store with its optional distributed locker.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the store's connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore opens the configured session store, wrapped in the redaction and
// encryption middlewares when they are enabled.
func (c Config) OpenStore() (*Backend, error) {
	mws, err := c.Store.middlewares()
	if err != nil {
		return nil, err
	}

	b, err := c.openDriver()
	if err != nil {
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

func (c Config) openDriver() (*Backend, error) {
	switch c.Store.Driver {
	case DriverMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case DriverFile:
		return &Backend{Store: file.New(c.Store.File.Dir)}, nil

	case DriverSQLite:
		store, err := sqlite.Open(c.Store.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, close: store.Close}, nil

	case DriverRedis:
		var opts []redis.Option
		if c.Store.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Store.Redis.Prefix))
		}
		if c.Store.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Store.Redis.TTL))
		}
		store := redis.New(c.Store.Redis.Addr, c.Store.Redis.Password, c.Store.Redis.DB, opts...)

		b := &Backend{Store: store, close: store.Close}
		if c.Lock.Distributed {
			b.Locker = store.Locker()
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
}

// middlewares builds the store wrappers. Redaction runs before encryption so
// masked values are what gets sealed.
func (s StoreConfig) middlewares() ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(s.Redact.Patterns) > 0 || s.Redact.Caller {
		pii, err := middleware.NewPIIMiddleware(middleware.PIIConfig{
			Patterns:   s.Redact.Patterns,
			MaskCaller: s.Redact.Caller,
		})
		if err != nil {
			return nil, fmt.Errorf("store.redact: %w", err)
		}
		mws = append(mws, pii)
	}

	if s.Encryption.Key != "" {
		active, err := decodeKey(s.Encryption.Key)
		if err != nil {
			return nil, fmt.Errorf("store.encryption.key: %w", err)
		}
		fallback := make([][]byte, 0, len(s.Encryption.FallbackKeys))
		for i, k := range s.Encryption.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
			}
			fallback = append(fallback, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, fmt.Errorf("store.encryption: %w", err)
		}
		mws = append(mws, enc)
	}

	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return key, nil
}
