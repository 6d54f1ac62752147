package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/callflow/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every transition and render.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "transition failed", "call_sid", e.CallID, "state", e.State, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "transition", "call_sid", e.CallID, "state", e.State, "next", e.Next)
		},
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "render failed", "call_sid", e.CallID, "state", e.State, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "render", "call_sid", e.CallID, "state", e.State, "duration", e.Duration)
		},
	}
}

// Combine returns hooks that call each of hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var transitions []func(context.Context, *domain.TransitionEvent)
	var renders []func(context.Context, *domain.RenderEvent)
	for _, h := range hooks {
		if h.OnTransition != nil {
			transitions = append(transitions, h.OnTransition)
		}
		if h.OnRender != nil {
			renders = append(renders, h.OnRender)
		}
	}

	if len(transitions) > 0 {
		out.OnTransition = func(ctx context.Context, e *domain.TransitionEvent) {
			for _, fn := range transitions {
				fn(ctx, e)
			}
		}
	}
	if len(renders) > 0 {
		out.OnRender = func(ctx context.Context, e *domain.RenderEvent) {
			for _, fn := range renders {
				fn(ctx, e)
			}
		}
	}
	return out
}
