package main

import (
	"log/slog"

	"github.com/aretw0/callflow"
	"github.com/aretw0/callflow/internal/config"
	"github.com/aretw0/callflow/internal/demo"
	"github.com/aretw0/callflow/internal/runtime"
	"github.com/aretw0/callflow/pkg/observability"
)

// demoStates builds the built-in flow from the configuration.
func demoStates(cfg config.Config) []any {
	return demo.New(demo.Options{
		Greeting:       cfg.Flow.Greeting,
		Hours:          cfg.Flow.Hours,
		OperatorNumber: cfg.Flow.OperatorNumber,
		HoldMusic:      cfg.Flow.HoldMusic,
	})
}

// newApp wires the demo flow to the configured store.
func newApp(cfg config.Config, backend *config.Backend, logger *slog.Logger, metrics *observability.Metrics) (*callflow.App, error) {
	opts := []callflow.Option{
		callflow.WithLogger(logger),
		callflow.WithMetrics(metrics),
		callflow.WithLockTTL(cfg.Lock.TTL),
		callflow.WithAssetResolver(runtime.AssetsAt(cfg.Flow.AssetsBaseURL)),
		callflow.WithRateLimit(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst),
		callflow.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if backend.Locker != nil {
		opts = append(opts, callflow.WithLocker(backend.Locker))
	}
	return callflow.New(demoStates(cfg), backend.Store, opts...)
}
