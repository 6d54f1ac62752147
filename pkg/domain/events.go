package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventRender     EventType = "render"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	CallID    string    `json:"call_id"`
}

// TransitionEvent is emitted after a state's TransitionOut runs.
type TransitionEvent struct {
	EventBase
	State string `json:"state"`
	Next  string `json:"next,omitempty"`
	Err   error  `json:"-"`
}

// RenderEvent is emitted after a state is rendered.
type RenderEvent struct {
	EventBase
	State    string        `json:"state"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for flow observability. Nil callbacks are skipped.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnRender     func(context.Context, *RenderEvent)
}
