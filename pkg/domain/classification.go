package domain

// StateKind is the capability variant a declared state satisfies.
type StateKind int

const (
	StateRoutableOnly StateKind = iota + 1
	StateNormalOnly
	StateBoth
)

func (k StateKind) String() string {
	switch k {
	case StateRoutableOnly:
		return "routable"
	case StateNormalOnly:
		return "normal"
	case StateBoth:
		return "routable+normal"
	default:
		return "invalid"
	}
}

// Classification describes one declared state of a compiled flow.
// Routable and Normal are set according to Kind.
type Classification struct {
	Kind     StateKind
	Name     string
	Routable RoutableState
	Normal   NormalState
}

// IsRoutable reports whether the state has a direct-invocation endpoint.
func (c Classification) IsRoutable() bool {
	return c.Kind == StateRoutableOnly || c.Kind == StateBoth
}

// IsNormal reports whether the state has a transition endpoint.
func (c Classification) IsNormal() bool {
	return c.Kind == StateNormalOnly || c.Kind == StateBoth
}
