package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/callflow/pkg/adapters/memory"
	"github.com/aretw0/callflow/pkg/domain"
	"github.com/aretw0/callflow/pkg/persistence/middleware"
	"github.com/aretw0/callflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.PIIConfig{
		Patterns:   []string{"password", "ssn"},
		MaskCaller: true,
	})
	require.NoError(t, err)
	secure := mw(underlying)

	ctx := context.Background()
	rec := domain.NewSessionRecord("CA-pii")
	rec.Data.Fields["username"] = "jdoe"
	rec.Data.Fields["user_password"] = "secret123"
	rec.Data.Fields["details"] = map[string]any{
		"address":    "123 St",
		"ssn_number": "999-99-9999",
	}
	rec.Call = domain.CallParams{CallSid: "CA-pii", From: "+15550100", To: "+15550199"}

	_, err = secure.Set(ctx, "CA-pii", rec)
	require.NoError(t, err)

	assert.Equal(t, "secret123", rec.Data.Fields["user_password"], "caller's record must not be modified")
	assert.Equal(t, "999-99-9999", rec.Data.Fields["details"].(map[string]any)["ssn_number"])
	assert.Equal(t, "+15550100", rec.Call.From)

	stored, err := underlying.Get(ctx, "CA-pii")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Data.Fields["username"])
	assert.Equal(t, middleware.Mask, stored.Data.Fields["user_password"])
	details := stored.Data.Fields["details"].(map[string]any)
	assert.Equal(t, middleware.Mask, details["ssn_number"])
	assert.Equal(t, "123 St", details["address"])
	assert.Equal(t, middleware.Mask, stored.Call.From)
	assert.Equal(t, middleware.Mask, stored.Call.To)
	assert.Equal(t, "CA-pii", stored.Call.CallSid)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware(middleware.PIIConfig{Patterns: []string{"("}})
	assert.Error(t, err)
}

func TestChain_PIIThenEncryption(t *testing.T) {
	pii, err := middleware.NewPIIMiddleware(middleware.PIIConfig{Patterns: []string{"^pin$"}})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	underlying := memory.NewStore()
	store := middleware.Chain(underlying, pii, enc)
	ports.RunSessionStoreContract(t, store)

	ctx := context.Background()
	rec := domain.NewSessionRecord("CA-chain")
	rec.Data.Fields["pin"] = "1234"
	rec.Data.Fields["step"] = "menu"
	_, err = store.Set(ctx, "CA-chain", rec)
	require.NoError(t, err)

	raw, err := underlying.Get(ctx, "CA-chain")
	require.NoError(t, err)
	assert.Contains(t, raw.Data.Fields, middleware.EnvelopeField)

	loaded, err := store.Get(ctx, "CA-chain")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Data.Fields["pin"])
	assert.Equal(t, "menu", loaded.Data.Fields["step"])
}
