package ports

import (
	"context"

	"github.com/aretw0/callflow/pkg/domain"
)

// SessionStore defines the interface for persisting per-call session records.
// Implementations must provide atomic single-key operations; nothing stronger is assumed.
type SessionStore interface {
	// Get retrieves the record for a call.
	// Returns domain.ErrSessionNotFound if the call has no record.
	Get(ctx context.Context, callID string) (*domain.SessionRecord, error)

	// Set upserts the record and reports whether it was created or updated.
	Set(ctx context.Context, callID string, record *domain.SessionRecord) (domain.SetResult, error)

	// Destroy removes the record. It reports whether a record existed.
	Destroy(ctx context.Context, callID string) (bool, error)

	// List returns the call identifiers with a stored record.
	List(ctx context.Context) ([]string, error)
}
