package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/callflow/internal/compiler"
	"github.com/aretw0/callflow/internal/testutils"
	"github.com/aretw0/callflow/pkg/adapters/memory"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/observability"
	"github.com/aretw0/callflow/pkg/ports"
	"github.com/aretw0/callflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a flow with a counter: /counter/next increments "step" and renders /result.
type fixture struct {
	store       *memory.Store
	handler     http.Handler
	renderInput []*domain.Input
	mu          sync.Mutex
}

func newFixture(t *testing.T, extra []any, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore()}

	result := &testutils.Screen{
		ID:   "result",
		Path: "/result",
		RenderFn: func(_ context.Context, rc domain.RenderContext, data domain.SessionData, input *domain.Input) (domain.Document, error) {
			f.mu.Lock()
			f.renderInput = append(f.renderInput, input)
			f.mu.Unlock()
			body := fmt.Sprintf("<Response><Say>step %v via %s</Say></Response>", data.Fields["step"], rc.BaseURL())
			return domain.Document{ContentType: domain.ContentTypeXML, Body: []byte(body)}, nil
		},
	}
	counter := &testutils.Step{
		ID:             "counter",
		TransitionPath: "/counter/next",
		Next: func(_ context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error) {
			if input.String("Fail") == "transition" {
				return data, nil, errors.New("rejected")
			}
			n, _ := data.Fields["step"].(int)
			data.Fields["step"] = n + 1
			return data, result, nil
		},
	}

	table, err := compiler.Compile(append([]any{result, counter}, extra...), compiler.WithReservedPaths("server", ReservedPaths()...))
	require.NoError(t, err)

	f.handler = NewHandler(table, session.NewManager(f.store), opts...)
	return f
}

func post(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func call(sid string) url.Values {
	return url.Values{"CallSid": {sid}, "From": {"+15550100"}, "To": {"+15550199"}}
}

func TestDirectRoute_RendersWithoutPersisting(t *testing.T) {
	f := newFixture(t, nil)

	w := post(t, f.handler, "/result", call("CA1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.ContentTypeXML, w.Header().Get("Content-Type"))
	assert.Equal(t, "<Response><Say>step <nil> via http://example.com</Say></Response>", w.Body.String())

	require.Len(t, f.renderInput, 1)
	require.NotNil(t, f.renderInput[0], "direct routes pass the request input")
	assert.Equal(t, "CA1", f.renderInput[0].Call.CallSid)
	assert.Equal(t, "+15550100", f.renderInput[0].Values["From"])

	_, err := f.store.Get(context.Background(), "CA1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestTransitionRoute_PersistsAndRendersNext(t *testing.T) {
	f := newFixture(t, nil)

	w := post(t, f.handler, "/counter/next", call("CA1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "step 1")

	rec, err := f.store.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Data.Fields["step"])
	assert.Equal(t, "CA1", rec.Data.CallID)
	assert.Equal(t, "+15550100", rec.Call.From)
	assert.EqualValues(t, 1, rec.Revision)

	w = post(t, f.handler, "/counter/next", call("CA1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "step 2")

	require.Len(t, f.renderInput, 2)
	assert.Nil(t, f.renderInput[0], "render after a transition gets no input")
	assert.Nil(t, f.renderInput[1])

	w = post(t, f.handler, "/result", call("CA1"))
	assert.Contains(t, w.Body.String(), "step 2", "direct routes see the persisted session")
}

func TestTransitionRoute_FailureDoesNotPersist(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusOK, post(t, f.handler, "/counter/next", call("CA1")).Code)

	form := call("CA1")
	form.Set("Fail", "transition")
	w := post(t, f.handler, "/counter/next", form)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "rejected", "internal errors are not sent to the carrier")

	rec, err := f.store.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Data.Fields["step"])
	assert.EqualValues(t, 1, rec.Revision)
}

func TestTransitionRoute_RenderFailureDoesNotPersist(t *testing.T) {
	broken := &testutils.Screen{ID: "broken", Path: "/broken"}
	toBroken := &testutils.Step{ID: "to-broken", TransitionPath: "/broken/go", Next: testutils.GoTo(broken)}
	f := newFixture(t, []any{broken, toBroken})

	w := post(t, f.handler, "/broken/go", call("CA1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	_, err := f.store.Get(context.Background(), "CA1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestTransitionRoute_NextNotRoutable(t *testing.T) {
	sink := &testutils.Step{ID: "sink", TransitionPath: "/sink", Next: testutils.GoTo(nil)}
	toSink := &testutils.Step{ID: "to-sink", TransitionPath: "/to-sink", Next: testutils.GoTo(sink)}
	f := newFixture(t, []any{sink, toSink})

	w := post(t, f.handler, "/to-sink", call("CA1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	_, err := f.store.Get(context.Background(), "CA1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMissingCallSid(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/result", "/counter/next", PathStatus} {
		w := post(t, f.handler, path, url.Values{"From": {"+15550100"}})
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestOnlyPOST(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/result", "/counter/next"} {
		req := httptest.NewRequest(http.MethodGet, path+"?CallSid=CA1", nil)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
	}
}

func TestJSONBody(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/counter/next", strings.NewReader(`{"CallSid":"CA9","Digits":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec, err := f.store.Get(context.Background(), "CA9")
	require.NoError(t, err)
	assert.Equal(t, "5", rec.Call.Digits)
}

func TestRenderContext_Forwarded(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/result", strings.NewReader(call("CA1").Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https, http")
	req.Header.Set("X-Forwarded-Host", "ivr.example.com")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "via https://ivr.example.com")
}

func TestConcurrentTransitionsAreSerialized(t *testing.T) {
	f := newFixture(t, nil)
	const n = 25

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := post(t, f.handler, "/counter/next", call("CA1"))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	rec, err := f.store.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, n, rec.Data.Fields["step"], "no transition may be lost")
	assert.EqualValues(t, n, rec.Revision)
}

func TestStatusCallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	f := newFixture(t, nil, WithMetrics(metrics))

	require.Equal(t, http.StatusOK, post(t, f.handler, "/counter/next", call("CA1")).Code)

	inProgress := call("CA1")
	inProgress.Set("CallStatus", "in-progress")
	assert.Equal(t, http.StatusNoContent, post(t, f.handler, PathStatus, inProgress).Code)
	_, err = f.store.Get(context.Background(), "CA1")
	require.NoError(t, err, "non-terminal status keeps the session")

	completed := call("CA1")
	completed.Set("CallStatus", domain.CallCompleted)
	assert.Equal(t, http.StatusNoContent, post(t, f.handler, PathStatus, completed).Code)
	_, err = f.store.Get(context.Background(), "CA1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	req := httptest.NewRequest(http.MethodGet, PathMetrics, nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "callflow_sessions_destroyed_total 1")
	assert.Contains(t, string(body), `callflow_transitions_total{outcome="ok",state="counter"} 1`)
	assert.Contains(t, string(body), `callflow_renders_total{outcome="ok",state="result"} 1`)
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, WithRateLimit(0.001, 1))

	assert.Equal(t, http.StatusOK, post(t, f.handler, "/result", call("CA1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, f.handler, "/result", call("CA1")).Code)

	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "health checks are not rate limited")
}

func TestCustomErrorHandler(t *testing.T) {
	var got error
	f := newFixture(t, nil, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))

	form := call("CA1")
	form.Set("Fail", "transition")
	w := post(t, f.handler, "/counter/next", form)

	assert.Equal(t, http.StatusTeapot, w.Code)
	var tErr *domain.TransitionError
	assert.True(t, errors.As(got, &tErr))
}

func TestLockContentionMapsTo503(t *testing.T) {
	busy := ports.LockerFunc(func(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
		return nil, fmt.Errorf("%w: %s held by another replica", domain.ErrLockAcquire, key)
	})
	store := memory.NewStore()
	table, err := compiler.Compile([]any{
		&testutils.Screen{ID: "result", Path: "/result"},
		&testutils.Step{ID: "counter", TransitionPath: "/counter/next"},
	})
	require.NoError(t, err)
	h := NewHandler(table, session.NewManager(store, session.WithLocker(busy)))

	w := post(t, h, "/counter/next", call("CA1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, err = store.Get(context.Background(), "CA1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRoutableAndNormalState_TransitionsFromSeededSession(t *testing.T) {
	var seen []any
	b := &testutils.Screen{
		ID:   "B",
		Path: "/b",
		RenderFn: func(_ context.Context, _ domain.RenderContext, data domain.SessionData, _ *domain.Input) (domain.Document, error) {
			seen = append(seen, data.Fields["step"])
			return domain.Document{Body: []byte(fmt.Sprintf("<Response><Say>B at %v</Say></Response>", data.Fields["step"]))}, nil
		},
	}
	a := &testutils.Prompt{
		Screen:         testutils.Screen{ID: "A", Path: "/a", Body: "<Response><Say>A</Say></Response>"},
		TransitionPath: "/a/next",
		Next: func(_ context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error) {
			if input.String("choice") != "1" {
				return data, nil, errors.New("unexpected choice")
			}
			n, _ := data.Fields["step"].(int)
			return data.With("step", n+1), b, nil
		},
	}

	table, err := compiler.Compile([]any{a, b}, compiler.WithReservedPaths("server", ReservedPaths()...))
	require.NoError(t, err)
	require.Len(t, table.Bindings(), 3)

	store := memory.NewStore()
	seed := domain.NewSessionRecord("CA1")
	seed.Data.Fields["step"] = 0
	_, err = store.Set(context.Background(), "CA1", seed)
	require.NoError(t, err)

	h := NewHandler(table, session.NewManager(store))

	form := call("CA1")
	form.Set("choice", "1")
	w := post(t, h, "/a/next", form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "<Response><Say>B at 1</Say></Response>", w.Body.String())
	assert.Equal(t, []any{1}, seen)

	rec, err := store.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Data.Fields["step"])
	assert.Equal(t, int64(1), rec.Revision)

	direct := post(t, h, "/a", call("CA1"))
	require.Equal(t, http.StatusOK, direct.Code)
	assert.Equal(t, "<Response><Say>A</Say></Response>", direct.Body.String())
}
