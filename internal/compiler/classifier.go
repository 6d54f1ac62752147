package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/callflow/pkg/domain"
)

// Kind is the capability variant a declared state satisfies.
type Kind = domain.StateKind

const (
	KindRoutableOnly = domain.StateRoutableOnly
	KindNormalOnly   = domain.StateNormalOnly
	KindBoth         = domain.StateBoth
)

// Classification is the result of inspecting one candidate state.
type Classification = domain.Classification

// Classify determines which capabilities a candidate satisfies.
// An empty URI or transition URI counts as an absent capability.
func Classify(candidate any) (Classification, error) {
	usable, ok := candidate.(domain.UsableState)
	if !ok {
		return Classification{}, &domain.ConfigurationError{
			State:  describe(candidate),
			Reason: "not a usable state (missing Name)",
		}
	}

	name := usable.Name()
	if name == "" {
		return Classification{}, &domain.ConfigurationError{
			State:  describe(candidate),
			Reason: "state name is empty",
		}
	}

	c := Classification{Name: name}

	if r, ok := candidate.(domain.RoutableState); ok && r.URI() != "" {
		if err := checkPath(r.URI()); err != nil {
			return Classification{}, &domain.ConfigurationError{State: name, Reason: "uri " + err.Error()}
		}
		c.Routable = r
	}
	if n, ok := candidate.(domain.NormalState); ok && n.ProcessTransitionURI() != "" {
		if err := checkPath(n.ProcessTransitionURI()); err != nil {
			return Classification{}, &domain.ConfigurationError{State: name, Reason: "transition uri " + err.Error()}
		}
		c.Normal = n
	}

	switch {
	case c.Routable != nil && c.Normal != nil:
		c.Kind = KindBoth
	case c.Routable != nil:
		c.Kind = KindRoutableOnly
	case c.Normal != nil:
		c.Kind = KindNormalOnly
	default:
		return Classification{}, &domain.ConfigurationError{
			State:  name,
			Reason: "neither routable (uri + Render) nor normal (transition uri + TransitionOut)",
		}
	}
	return c, nil
}

// describe names a candidate by Name() when it has one, else by its string form.
func describe(candidate any) string {
	if u, ok := candidate.(domain.UsableState); ok && u.Name() != "" {
		return u.Name()
	}
	return fmt.Sprintf("%v", candidate)
}

// checkPath rejects paths the router would not treat literally.
func checkPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%q must start with /", p)
	}
	if strings.ContainsAny(p, "{}*? ") {
		return fmt.Errorf("%q contains pattern or query characters", p)
	}
	return nil
}
