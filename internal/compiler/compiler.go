package compiler

import (
	"fmt"
	"slices"

	"github.com/aretw0/callflow/pkg/domain"
)

// RouteTable is the immutable output of Compile.
type RouteTable struct {
	bindings []domain.RouteBinding
	states   []Classification
	routable map[string]domain.RoutableState
	normal   map[string]domain.NormalState
}

// Bindings returns the compiled bindings in declaration order.
func (t *RouteTable) Bindings() []domain.RouteBinding {
	return slices.Clone(t.bindings)
}

// States returns the classification of every declared state in declaration order.
func (t *RouteTable) States() []Classification {
	return slices.Clone(t.states)
}

// Routable looks up a routable state by name.
func (t *RouteTable) Routable(name string) (domain.RoutableState, bool) {
	s, ok := t.routable[name]
	return s, ok
}

// Normal looks up a normal state by name.
func (t *RouteTable) Normal(name string) (domain.NormalState, bool) {
	s, ok := t.normal[name]
	return s, ok
}

// Option configures Compile.
type Option func(*options)

type options struct {
	reserved map[string]string
}

// WithReservedPaths makes Compile reject states that declare one of paths.
// owner names the component holding them in error messages.
func WithReservedPaths(owner string, paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.reserved[p] = owner
		}
	}
}

// Compile classifies every candidate and emits one POST binding per routable state (at its URI)
// and one per normal state (at its transition URI), in declaration order.
// Any invalid state, duplicate name or duplicate path aborts compilation; no partial table
// is returned.
func Compile(candidates []any, opts ...Option) (*RouteTable, error) {
	o := &options{reserved: make(map[string]string)}
	for _, opt := range opts {
		opt(o)
	}

	if len(candidates) == 0 {
		return nil, &domain.ConfigurationError{State: "<flow>", Reason: "no states declared"}
	}

	table := &RouteTable{
		routable: make(map[string]domain.RoutableState),
		normal:   make(map[string]domain.NormalState),
	}
	names := make(map[string]struct{}, len(candidates))
	paths := make(map[string]string)

	bind := func(path, name string, kind domain.RouteKind) error {
		if owner, ok := o.reserved[path]; ok {
			return &domain.ConfigurationError{
				State:  name,
				Reason: fmt.Sprintf("path %s is reserved by %s", path, owner),
			}
		}
		if other, ok := paths[path]; ok {
			return &domain.ConfigurationError{
				State:  name,
				Reason: fmt.Sprintf("path %s already bound to state %q", path, other),
			}
		}
		paths[path] = name
		table.bindings = append(table.bindings, domain.NewBinding(path, name, kind))
		return nil
	}

	for _, candidate := range candidates {
		c, err := Classify(candidate)
		if err != nil {
			return nil, err
		}
		if _, dup := names[c.Name]; dup {
			return nil, &domain.ConfigurationError{State: c.Name, Reason: "declared more than once"}
		}
		names[c.Name] = struct{}{}

		if c.IsRoutable() {
			if err := bind(c.Routable.URI(), c.Name, domain.KindDirect); err != nil {
				return nil, err
			}
			table.routable[c.Name] = c.Routable
		}
		if c.IsNormal() {
			if err := bind(c.Normal.ProcessTransitionURI(), c.Name, domain.KindTransition); err != nil {
				return nil, err
			}
			table.normal[c.Name] = c.Normal
		}
		table.states = append(table.states, c)
	}

	return table, nil
}
