package boltdb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

func TestConflicts(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	resolvedAt := base.Add(time.Minute)

	conflicts := []*models.SyncConflict{
		{
			ID:            "c2",
			SyncJournalID: "j2",
			Table:         models.TableOrders,
			RecordID:      "o2",
			ConflictType:  models.ConflictDelete,
			Resolution:    models.ResolutionNone,
			LocalData:     json.RawMessage(`{"id":"o2"}`),
			RemoteData:    json.RawMessage(`{"id":"o2","status":"completed"}`),
			CreatedAt:     base.Add(time.Second),
		},
		{
			ID:            "c1",
			SyncJournalID: "j1",
			Table:         models.TableOrders,
			RecordID:      "o1",
			ConflictType:  models.ConflictVersion,
			Resolution:    models.ResolutionRemoteWins,
			ResolvedAt:    &resolvedAt,
			ResolvedBy:    "manager",
			CreatedAt:     base,
		},
	}
	for _, c := range conflicts {
		require.NoError(t, store.SaveConflict(ctx, c))
	}

	got, err := store.GetConflict(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictDelete, got.ConflictType)
	assert.JSONEq(t, `{"id":"o2","status":"completed"}`, string(got.RemoteData))

	_, err = store.GetConflict(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := store.ListConflicts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c1", all[0].ID)
	assert.Equal(t, "c2", all[1].ID)

	open, err := store.ListConflicts(ctx, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "c2", open[0].ID)
}
