package runtime

import (
	"time"

	"github.com/aretw0/callflow/pkg/domain"
)

type config struct {
	hooks  domain.LifecycleHooks
	assets domain.AssetResolver
	now    func() time.Time
}

func newConfig(opts []Option) config {
	c := config{
		assets: IdentityAssets,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures an Executor or a Renderer.
type Option func(*config)

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithAssetResolver sets the resolver passed to Render. Defaults to IdentityAssets.
func WithAssetResolver(assets domain.AssetResolver) Option {
	return func(c *config) {
		if assets != nil {
			c.assets = assets
		}
	}
}

// WithClock overrides time.Now for event timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
