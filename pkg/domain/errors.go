package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by a SessionStore when no record exists for a call.
// It signals absence, not a store failure.
var ErrSessionNotFound = errors.New("session not found")

// ErrBadRequest marks errors caused by a malformed carrier request.
var ErrBadRequest = errors.New("bad request")

// ErrLockAcquire is returned when a per-call lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire session lock")

// ConfigurationError reports a flow that cannot run: a declared state with no usable
// capability, a path collision, or a transition whose next state cannot be rendered.
type ConfigurationError struct {
	State  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: state %q: %s", e.State, e.Reason)
}

// TransitionError wraps a failure of a state's own transition logic.
type TransitionError struct {
	State string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition out of %q failed: %v", e.State, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// RenderError wraps a failure to produce a document.
type RenderError struct {
	State string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render of %q failed: %v", e.State, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StoreError wraps a session store failure.
type StoreError struct {
	Op     string
	CallID string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s %q: %v", e.Op, e.CallID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
