package domain

import (
	"maps"
	"time"
)

// SessionData is the flow's progress for one call.
// Fields is opaque to the engine; it must be JSON serializable for persistent stores.
type SessionData struct {
	CallID string         `json:"call_id"`
	Fields map[string]any `json:"fields"`
}

// NewSessionData creates empty session data for a call.
func NewSessionData(callID string) SessionData {
	return SessionData{
		CallID: callID,
		Fields: make(map[string]any),
	}
}

// Clone returns a copy whose Fields map can be mutated without affecting the receiver.
// Nested values are shared.
func (d SessionData) Clone() SessionData {
	out := SessionData{CallID: d.CallID, Fields: make(map[string]any, len(d.Fields))}
	maps.Copy(out.Fields, d.Fields)
	return out
}

// Get returns a field value.
func (d SessionData) Get(key string) (any, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// With returns a copy of the data with key set to value.
func (d SessionData) With(key string, value any) SessionData {
	out := d.Clone()
	out.Fields[key] = value
	return out
}

// SessionRecord is the persisted form of SessionData.
type SessionRecord struct {
	Data SessionData `json:"data"`

	// Call is the call record as last reported by the carrier.
	Call CallParams `json:"call"`

	// Revision is incremented every time a transition is persisted.
	Revision int64 `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionRecord creates a record for a call that has no persisted progress yet.
func NewSessionRecord(callID string) *SessionRecord {
	return &SessionRecord{Data: NewSessionData(callID)}
}

// Advance replaces the data and bumps the revision and timestamps.
func (r *SessionRecord) Advance(data SessionData, call CallParams, now time.Time) {
	r.Data = data
	if call.CallSid != "" {
		r.Call = call
	}
	r.Revision++
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// SetResult reports whether an upsert created or replaced a record.
type SetResult int

const (
	SetCreated SetResult = iota + 1
	SetUpdated
)

func (r SetResult) String() string {
	switch r {
	case SetCreated:
		return "created"
	case SetUpdated:
		return "updated"
	default:
		return "unknown"
	}
}
