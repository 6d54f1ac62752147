package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/callflow/internal/logging"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()
	hooks.OnTransition(ctx, &domain.TransitionEvent{State: "menu", Next: "hours"})
	hooks.OnTransition(ctx, &domain.TransitionEvent{State: "menu", Err: errors.New("x")})
	hooks.OnRender(ctx, &domain.RenderEvent{State: "hours"})
	m.ObserveRequest("direct", 20*time.Millisecond)
	m.SessionDestroyed()

	expected := `
# HELP callflow_transitions_total Total number of state transitions
# TYPE callflow_transitions_total counter
callflow_transitions_total{outcome="error",state="menu"} 1
callflow_transitions_total{outcome="ok",state="menu"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "callflow_transitions_total"))
	n, err := testutil.GatherAndCount(reg, "callflow_renders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "callflow_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "callflow_sessions_destroyed_total 1")
}

func TestMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("transition", time.Second)
		m.SessionDestroyed()
	})
	assert.Nil(t, m.Hooks().OnTransition)
	assert.NotNil(t, m.Handler())
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTransition: func(context.Context, *domain.TransitionEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTransition: func(context.Context, *domain.TransitionEvent) { calls = append(calls, "b") },
		OnRender:     func(context.Context, *domain.RenderEvent) { calls = append(calls, "b-render") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnTransition(context.Background(), &domain.TransitionEvent{})
	hooks.OnRender(context.Background(), &domain.RenderEvent{})

	assert.Equal(t, []string{"a", "b", "b-render"}, calls)
	assert.Nil(t, observability.Combine().OnRender)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug, logging.FormatText)

	hooks := observability.LogHooks(logger)
	hooks.OnTransition(context.Background(), &domain.TransitionEvent{
		EventBase: domain.EventBase{CallID: "CA1"},
		State:     "menu",
		Next:      "hours",
	})
	hooks.OnRender(context.Background(), &domain.RenderEvent{
		EventBase: domain.EventBase{CallID: "CA1"},
		State:     "hours",
		Err:       errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "call_sid=CA1")
	assert.Contains(t, out, "next=hours")
	assert.Contains(t, out, "render failed")
	assert.Contains(t, out, "err=boom")
}
