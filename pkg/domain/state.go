package domain

import "context"

// UsableState is the baseline capability every declared state must satisfy.
type UsableState interface {
	// Name identifies the state. It must be unique within a flow.
	Name() string
}

// RoutableState can be reached directly by a carrier request and rendered into a Document.
type RoutableState interface {
	UsableState

	// URI is the path of the direct-invocation endpoint.
	URI() string

	// Render produces the response document for this state.
	// input is nil when the state is rendered after a transition: the request input
	// was already consumed by the previous state's TransitionOut.
	Render(ctx context.Context, rc RenderContext, data SessionData, assets AssetResolver, input *Input) (Document, error)
}

// NormalState consumes carrier input and advances the flow.
type NormalState interface {
	UsableState

	// ProcessTransitionURI is the path of the transition-continuation endpoint.
	ProcessTransitionURI() string

	// TransitionOut computes the updated session and the next state.
	// The next state must be a RoutableState.
	TransitionOut(ctx context.Context, data SessionData, input Input) (SessionData, UsableState, error)
}
