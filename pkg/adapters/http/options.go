package http

import (
	"log/slog"

	"github.com/aretw0/callflow/internal/logging"
	"github.com/aretw0/callflow/internal/runtime"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Reserved paths served by the handler itself.
const (
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
	PathStatus  = "/status"
)

// ReservedPaths lists the paths a flow must not declare.
func ReservedPaths() []string {
	return []string{PathHealth, PathMetrics, PathStatus}
}

const tracerName = "github.com/aretw0/callflow/pkg/adapters/http"

// DefaultMaxBodyBytes caps webhook payloads.
const DefaultMaxBodyBytes = 1 << 20

type config struct {
	logger       *slog.Logger
	metrics      *observability.Metrics
	tracer       trace.Tracer
	hooks        domain.LifecycleHooks
	assets       domain.AssetResolver
	errorHandler ErrorHandler
	rateLimit    float64
	rateBurst    int
	maxBodyBytes int64
}

// Option configures the handler.
type Option func(*config)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics and serves them on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithLifecycleHooks adds hooks called on every transition and render.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithAssetResolver sets the resolver handed to Render.
func WithAssetResolver(assets domain.AssetResolver) Option {
	return func(c *config) {
		c.assets = assets
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithRateLimit limits webhook requests to rps per second with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.rateLimit = rps
		c.rateBurst = burst
	}
}

// WithMaxBodyBytes caps request bodies. Defaults to DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

func newConfig(opts []Option) config {
	c := config{
		logger:       logging.NewNop(),
		tracer:       otel.Tracer(tracerName),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.errorHandler == nil {
		c.errorHandler = DefaultErrorHandler(c.logger)
	}
	return c
}

func (c config) runtimeOptions() []runtime.Option {
	return []runtime.Option{
		runtime.WithLifecycleHooks(observability.Combine(c.metrics.Hooks(), c.hooks)),
		runtime.WithAssetResolver(c.assets),
	}
}
