package callflow

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/callflow/internal/compiler"
	"github.com/aretw0/callflow/internal/logging"
	httpadapter "github.com/aretw0/callflow/pkg/adapters/http"
	"github.com/aretw0/callflow/pkg/adapters/memory"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/observability"
	"github.com/aretw0/callflow/pkg/ports"
	"github.com/aretw0/callflow/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// App is a compiled call flow bound to a session store.
type App struct {
	table    *compiler.RouteTable
	sessions *session.Manager
	handler  http.Handler
}

type settings struct {
	logger       *slog.Logger
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	metrics      *observability.Metrics
	tracer       trace.TracerProvider
	hooks        domain.LifecycleHooks
	assets       domain.AssetResolver
	errorHandler httpadapter.ErrorHandler
	rateRPS      float64
	rateBurst    int
	maxBodyBytes int64
}

// Option configures an App.
type Option func(*settings)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLocker enables distributed per-call locking, for deployments with several replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.lockTTL = ttl
	}
}

// WithMetrics records Prometheus metrics and serves them on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracer = tp
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithAssetResolver sets the resolver states use for static asset URLs.
func WithAssetResolver(assets domain.AssetResolver) Option {
	return func(s *settings) {
		s.assets = assets
	}
}

// WithErrorHandler replaces the default HTTP error responses.
func WithErrorHandler(h httpadapter.ErrorHandler) Option {
	return func(s *settings) {
		s.errorHandler = h
	}
}

// WithRateLimit limits webhook requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// WithMaxBodyBytes caps webhook request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *settings) {
		s.maxBodyBytes = n
	}
}

// New compiles states and binds them to store. A nil store keeps sessions in memory.
// It fails with a *domain.ConfigurationError if any state is invalid or two states
// claim the same path.
func New(states []any, store ports.SessionStore, opts ...Option) (*App, error) {
	s := &settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if store == nil {
		store = memory.NewStore()
	}

	table, err := compiler.Compile(states, compiler.WithReservedPaths("server", httpadapter.ReservedPaths()...))
	if err != nil {
		return nil, err
	}

	managerOpts := []session.Option{session.WithLogger(s.logger), session.WithLockTTL(s.lockTTL)}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	sessions := session.NewManager(store, managerOpts...)

	httpOpts := []httpadapter.Option{
		httpadapter.WithLogger(s.logger),
		httpadapter.WithMetrics(s.metrics),
		httpadapter.WithLifecycleHooks(observability.Combine(observability.LogHooks(s.logger), s.hooks)),
		httpadapter.WithAssetResolver(s.assets),
		httpadapter.WithErrorHandler(s.errorHandler),
		httpadapter.WithRateLimit(s.rateRPS, s.rateBurst),
		httpadapter.WithMaxBodyBytes(s.maxBodyBytes),
	}
	if s.tracer != nil {
		httpOpts = append(httpOpts, httpadapter.WithTracerProvider(s.tracer))
	}

	return &App{
		table:    table,
		sessions: sessions,
		handler:  httpadapter.NewHandler(table, sessions, httpOpts...),
	}, nil
}

// Handler returns the HTTP handler serving every compiled route.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Routes returns the compiled bindings in declaration order.
func (a *App) Routes() []domain.RouteBinding {
	return a.table.Bindings()
}

// States returns the classification of every declared state.
func (a *App) States() []domain.Classification {
	return a.table.States()
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}
