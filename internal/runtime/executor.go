package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/callflow/pkg/domain"
)

// Step is the outcome of a successful transition.
type Step struct {
	Data     domain.SessionData
	Next     domain.RoutableState
	NextName string
}

// Executor runs NormalState transitions.
type Executor struct {
	cfg config
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...Option) *Executor {
	return &Executor{cfg: newConfig(opts)}
}

// Execute invokes state.TransitionOut exactly once and validates that the next state can be
// rendered. The caller's data is never modified; on error nothing should be persisted.
func (e *Executor) Execute(ctx context.Context, state domain.NormalState, data domain.SessionData, input domain.Input) (Step, error) {
	event := &domain.TransitionEvent{
		EventBase: domain.EventBase{Type: domain.EventTransition, CallID: data.CallID},
		State:     state.Name(),
	}
	step, err := e.execute(ctx, state, data, input)
	if err == nil {
		event.Next = step.NextName
	}
	event.Err = err
	event.Timestamp = e.cfg.now()
	if e.cfg.hooks.OnTransition != nil {
		e.cfg.hooks.OnTransition(ctx, event)
	}
	return step, err
}

func (e *Executor) execute(ctx context.Context, state domain.NormalState, data domain.SessionData, input domain.Input) (Step, error) {
	updated, next, err := state.TransitionOut(ctx, data.Clone(), input)
	if err != nil {
		return Step{}, &domain.TransitionError{State: state.Name(), Err: err}
	}
	if next == nil {
		return Step{}, &domain.ConfigurationError{State: state.Name(), Reason: "transition returned no next state"}
	}
	nextName, ok := nameOf(next)
	if !ok {
		return Step{}, &domain.ConfigurationError{State: state.Name(), Reason: "transition returned a nil next state"}
	}
	routable, ok := next.(domain.RoutableState)
	if !ok {
		return Step{}, &domain.ConfigurationError{
			State:  state.Name(),
			Reason: fmt.Sprintf("next state %q is not routable", nextName),
		}
	}
	if updated.Fields == nil {
		updated.Fields = map[string]any{}
	}
	updated.CallID = data.CallID
	return Step{Data: updated, Next: routable, NextName: nextName}, nil
}

// nameOf calls Name, reporting false if it panics, as it does for a typed nil
// pointer whose Name reads a field.
func nameOf(s domain.UsableState) (name string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.Name(), true
}
