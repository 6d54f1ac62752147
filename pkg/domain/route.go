package domain

import "net/http"

// RouteKind distinguishes the two kinds of compiled endpoints.
type RouteKind string

const (
	// KindDirect renders a RoutableState using the request input.
	KindDirect RouteKind = "direct"
	// KindTransition runs a NormalState's transition and renders the next state.
	KindTransition RouteKind = "transition"
)

// RouteBinding is a compiled endpoint. Method is always POST: carrier input travels in the
// request body, never in a cacheable query string.
type RouteBinding struct {
	Method    string
	Path      string
	StateName string
	Kind      RouteKind
}

// NewBinding creates a POST binding.
func NewBinding(path, stateName string, kind RouteKind) RouteBinding {
	return RouteBinding{
		Method:    http.MethodPost,
		Path:      path,
		StateName: stateName,
		Kind:      kind,
	}
}
