package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

// PIIConfig selects what gets redacted before a record reaches the store.
type PIIConfig struct {
	// Patterns are matched against session field keys, at any nesting depth.
	Patterns []string

	// MaskCaller redacts the From and To numbers of the call params.
	MaskCaller bool
}

type piiMiddleware struct {
	next       ports.SessionStore
	patterns   []*regexp.Regexp
	maskCaller bool
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns.
// Redaction is one-way: Get returns what was stored.
func NewPIIMiddleware(config PIIConfig) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(config.Patterns))
	for i, p := range config.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns, maskCaller: config.MaskCaller}
	}, nil
}

func (m *piiMiddleware) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	// Work on a deep copy; the caller keeps using the unmasked record
	cloned := *rec
	cloned.Data = domain.SessionData{CallID: rec.Data.CallID, Fields: deepCopyMap(rec.Data.Fields)}
	maskMap(cloned.Data.Fields, m.patterns)

	if m.maskCaller {
		if cloned.Call.From != "" {
			cloned.Call.From = Mask
		}
		if cloned.Call.To != "" {
			cloned.Call.To = Mask
		}
	}

	return m.next.Set(ctx, callID, &cloned)
}

func (m *piiMiddleware) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	return m.next.Get(ctx, callID)
}

func (m *piiMiddleware) Destroy(ctx context.Context, callID string) (bool, error) {
	return m.next.Destroy(ctx, callID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
