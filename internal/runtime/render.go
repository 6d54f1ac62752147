package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/callflow/pkg/domain"
)

// ErrEmptyDocument is wrapped in a RenderError when a state renders no body.
var ErrEmptyDocument = errors.New("state rendered an empty document")

// Renderer produces documents from RoutableStates.
type Renderer struct {
	cfg config
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	return &Renderer{cfg: newConfig(opts)}
}

// Render renders state. input is nil when rendering after a transition.
// A document without a content type is served as XML.
func (r *Renderer) Render(ctx context.Context, state domain.RoutableState, rc domain.RenderContext, data domain.SessionData, input *domain.Input) (domain.Document, error) {
	start := r.cfg.now()
	doc, err := state.Render(ctx, rc, data.Clone(), r.cfg.assets, input)
	switch {
	case err != nil:
		err = &domain.RenderError{State: state.Name(), Err: err}
	case len(doc.Body) == 0:
		err = &domain.RenderError{State: state.Name(), Err: ErrEmptyDocument}
	case doc.ContentType == "":
		doc.ContentType = domain.ContentTypeXML
	}

	if r.cfg.hooks.OnRender != nil {
		end := r.cfg.now()
		r.cfg.hooks.OnRender(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: end, Type: domain.EventRender, CallID: data.CallID},
			State:     state.Name(),
			Duration:  end.Sub(start),
			Err:       err,
		})
	}
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}
