package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/callflow/internal/compiler"
	"github.com/aretw0/callflow/internal/runtime"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Server is the per-request orchestrator of a compiled flow.
type Server struct {
	table    *compiler.RouteTable
	sessions *session.Manager
	executor *runtime.Executor
	renderer *runtime.Renderer
	cfg      config
}

// NewServer creates a Server for table, keeping sessions in sessions.
func NewServer(table *compiler.RouteTable, sessions *session.Manager, opts ...Option) *Server {
	cfg := newConfig(opts)
	return &Server{
		table:    table,
		sessions: sessions,
		executor: runtime.NewExecutor(cfg.runtimeOptions()...),
		renderer: runtime.NewRenderer(cfg.runtimeOptions()...),
		cfg:      cfg,
	}
}

// NewHandler creates the HTTP handler for a compiled flow.
func NewHandler(table *compiler.RouteTable, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(table, sessions, opts...).Routes()
}

// Routes builds the chi router: one POST endpoint per binding plus the reserved endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)

	r.Get(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, PathMetrics, s.cfg.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limitBody(s.cfg.maxBodyBytes))
		if s.cfg.rateLimit > 0 {
			burst := s.cfg.rateBurst
			if burst <= 0 {
				burst = int(s.cfg.rateLimit) + 1
			}
			r.Use(rateLimited(rate.NewLimiter(rate.Limit(s.cfg.rateLimit), burst)))
		}

		r.Post(PathStatus, s.handleStatus)

		for _, b := range s.table.Bindings() {
			switch b.Kind {
			case domain.KindDirect:
				state, _ := s.table.Routable(b.StateName)
				r.Method(b.Method, b.Path, s.direct(state))
			case domain.KindTransition:
				state, _ := s.table.Normal(b.StateName)
				r.Method(b.Method, b.Path, s.transition(state))
			}
		}
	})

	return r
}

// direct renders state with the request input and the caller's current session.
// The session is not modified.
func (s *Server) direct(state domain.RoutableState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { s.cfg.metrics.ObserveRequest(string(domain.KindDirect), time.Since(start)) }()

		ctx, span := s.startSpan(r.Context(), domain.KindDirect, state.Name())
		defer span.End()

		doc, err := s.serveDirect(ctx, r, state)
		s.finish(ctx, w, r.WithContext(ctx), span, domain.KindDirect, state.Name(), doc, err)
	}
}

func (s *Server) serveDirect(ctx context.Context, r *http.Request, state domain.RoutableState) (domain.Document, error) {
	input, err := DecodeInput(r)
	if err != nil {
		return domain.Document{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("callflow.call_sid", input.Call.CallSid))

	rec, err := s.sessions.Load(ctx, input.Call.CallSid)
	if err != nil {
		return domain.Document{}, err
	}
	return s.renderer.Render(ctx, state, NewRenderContext(r), rec.Data, &input)
}

// transition runs state's transition, renders the next state and persists the new session.
// Nothing is persisted if either step fails.
func (s *Server) transition(state domain.NormalState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { s.cfg.metrics.ObserveRequest(string(domain.KindTransition), time.Since(start)) }()

		ctx, span := s.startSpan(r.Context(), domain.KindTransition, state.Name())
		defer span.End()

		doc, err := s.serveTransition(ctx, r, state)
		s.finish(ctx, w, r.WithContext(ctx), span, domain.KindTransition, state.Name(), doc, err)
	}
}

func (s *Server) serveTransition(ctx context.Context, r *http.Request, state domain.NormalState) (domain.Document, error) {
	input, err := DecodeInput(r)
	if err != nil {
		return domain.Document{}, err
	}
	callID := input.Call.CallSid
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("callflow.call_sid", callID))
	rc := NewRenderContext(r)

	var doc domain.Document
	result, err := s.sessions.Update(ctx, callID, input.Call, func(ctx context.Context, rec *domain.SessionRecord) (domain.SessionData, error) {
		step, err := s.executor.Execute(ctx, state, rec.Data, input)
		if err != nil {
			return domain.SessionData{}, err
		}
		span.SetAttributes(attribute.String("callflow.next_state", step.NextName))

		doc, err = s.renderer.Render(ctx, step.Next, rc, step.Data, nil)
		if err != nil {
			return domain.SessionData{}, err
		}
		return step.Data, nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.cfg.logger.Debug("Session saved", "call_sid", callID, "result", result.String(), "request_id", RequestID(ctx))
	return doc, nil
}

// handleStatus destroys the session when the carrier reports a terminal call status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeInput(r)
	if err != nil {
		s.cfg.errorHandler(w, r, err)
		return
	}

	if input.Call.Terminal() {
		existed, err := s.sessions.Destroy(r.Context(), input.Call.CallSid)
		if err != nil {
			s.cfg.errorHandler(w, r, err)
			return
		}
		if existed {
			s.cfg.metrics.SessionDestroyed()
		}
		s.cfg.logger.Info("Call ended",
			"call_sid", input.Call.CallSid,
			"call_status", input.Call.CallStatus,
			"session_existed", existed,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startSpan(ctx context.Context, kind domain.RouteKind, state string) (context.Context, trace.Span) {
	return s.cfg.tracer.Start(ctx, "callflow."+string(kind),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("callflow.state", state),
			attribute.String("callflow.route_kind", string(kind)),
		),
	)
}

func (s *Server) finish(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, kind domain.RouteKind, state string, doc domain.Document, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook request failed")
		s.cfg.errorHandler(w, r, err)
		return
	}
	span.SetStatus(codes.Ok, "ok")

	w.Header().Set("Content-Type", doc.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		s.cfg.logger.Warn("Failed to write response", "err", err, "state", state)
		return
	}
	s.cfg.logger.LogAttrs(ctx, slog.LevelDebug, "Webhook served",
		slog.String("state", state),
		slog.String("route_kind", string(kind)),
		slog.String("request_id", RequestID(ctx)),
	)
}
