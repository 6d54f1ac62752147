package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	callID := "CA-contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Set and Get", func(t *testing.T) {
		rec := domain.NewSessionRecord(callID)
		rec.Data.Fields["step"] = "menu"
		rec.Data.Fields["lang"] = "en"
		rec.Call = domain.CallParams{CallSid: callID, From: "+15550100", CallStatus: "in-progress"}
		rec.Revision = 3

		res, err := store.Set(ctx, callID, rec)
		require.NoError(t, err, "Set should not return error")
		assert.Equal(t, domain.SetCreated, res)

		loaded, err := store.Get(ctx, callID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, rec.Data, loaded.Data)
		assert.Equal(t, rec.Call, loaded.Call)
		assert.Equal(t, rec.Revision, loaded.Revision)
	})

	t.Run("Set Existing Reports Update", func(t *testing.T) {
		rec := domain.NewSessionRecord(callID)
		rec.Data.Fields["step"] = "goodbye"

		res, err := store.Set(ctx, callID, rec)
		require.NoError(t, err)
		assert.Equal(t, domain.SetUpdated, res)

		loaded, err := store.Get(ctx, callID)
		require.NoError(t, err)
		assert.Equal(t, "goodbye", loaded.Data.Fields["step"])
	})

	t.Run("Returned Record Is Isolated", func(t *testing.T) {
		loaded, err := store.Get(ctx, callID)
		require.NoError(t, err)
		loaded.Data.Fields["step"] = "mutated"

		again, err := store.Get(ctx, callID)
		require.NoError(t, err)
		assert.Equal(t, "goodbye", again.Data.Fields["step"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+callID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Destroy Non-Existent", func(t *testing.T) {
		existed, err := store.Destroy(ctx, "missing-"+callID)
		require.NoError(t, err)
		assert.False(t, existed)

		_, err = store.Get(ctx, callID)
		assert.NoError(t, err, "destroying another call must not touch existing records")
	})

	t.Run("Destroy", func(t *testing.T) {
		existed, err := store.Destroy(ctx, callID)
		require.NoError(t, err, "Destroy should not return error")
		assert.True(t, existed)

		_, err = store.Get(ctx, callID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Destroy should return ErrSessionNotFound")

		existed, err = store.Destroy(ctx, callID)
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("List", func(t *testing.T) {
		id1 := callID + "-1"
		id2 := callID + "-2"
		_, _ = store.Set(ctx, id1, domain.NewSessionRecord(id1))
		_, _ = store.Set(ctx, id2, domain.NewSessionRecord(id2))

		defer func() {
			_, _ = store.Destroy(ctx, id1)
			_, _ = store.Destroy(ctx, id2)
		}()

		calls, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, calls, id1)
		assert.Contains(t, calls, id2)
	})
}
