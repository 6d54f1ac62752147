// Package testutils provides small call-flow states for tests.
package testutils

import (
	"context"

	"github.com/aretw0/callflow/pkg/domain"
)

// RenderFunc renders a Screen.
type RenderFunc func(ctx context.Context, rc domain.RenderContext, data domain.SessionData, input *domain.Input) (domain.Document, error)

// NextFunc is a transition body.
type NextFunc func(ctx context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error)

// Named only satisfies UsableState.
type Named string

func (n Named) Name() string { return string(n) }

// Screen is a routable-only state. With no RenderFn it renders Body as XML.
type Screen struct {
	ID       string
	Path     string
	Body     string
	RenderFn RenderFunc
}

func (s *Screen) Name() string { return s.ID }
func (s *Screen) URI() string  { return s.Path }

func (s *Screen) Render(ctx context.Context, rc domain.RenderContext, data domain.SessionData, _ domain.AssetResolver, input *domain.Input) (domain.Document, error) {
	if s.RenderFn != nil {
		return s.RenderFn(ctx, rc, data, input)
	}
	return domain.Document{ContentType: domain.ContentTypeXML, Body: []byte(s.Body)}, nil
}

// Step is a normal-only state.
type Step struct {
	ID             string
	TransitionPath string
	Next           NextFunc
}

func (s *Step) Name() string                 { return s.ID }
func (s *Step) ProcessTransitionURI() string { return s.TransitionPath }

func (s *Step) TransitionOut(ctx context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error) {
	return s.Next(ctx, data, input)
}

// Prompt is both routable and normal.
type Prompt struct {
	Screen
	TransitionPath string
	Next           NextFunc
}

func (p *Prompt) ProcessTransitionURI() string { return p.TransitionPath }

func (p *Prompt) TransitionOut(ctx context.Context, data domain.SessionData, input domain.Input) (domain.SessionData, domain.UsableState, error) {
	return p.Next(ctx, data, input)
}

// GoTo returns a NextFunc that keeps data unchanged and moves to next.
func GoTo(next domain.UsableState) NextFunc {
	return func(_ context.Context, data domain.SessionData, _ domain.Input) (domain.SessionData, domain.UsableState, error) {
		return data, next, nil
	}
}
