package conflict

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rec(t *testing.T, s string) models.Record {
	t.Helper()
	r, err := models.DecodeRecord([]byte(s))
	require.NoError(t, err)
	return r
}

func entry(op models.Operation, data, base string) *models.SyncJournalEntry {
	e := &models.SyncJournalEntry{
		ID:        "j1",
		Operation: op,
		Table:     models.TableOrders,
		RecordID:  "o1",
		Data:      json.RawMessage(data),
	}
	if base != "" {
		e.BaseData = json.RawMessage(base)
	}
	return e
}

func TestDetect(t *testing.T) {
	r := NewResolver(testLogger())
	r.RegisterDeleteGuard(models.TableOrders, StatusGuard("status", models.OrderStatusCompleted))

	tests := []struct {
		name     string
		entry    *models.SyncJournalEntry
		remote   string
		decision Decision
		typ      models.ConflictType
	}{
		{
			name:     "insert into empty cloud",
			entry:    entry(models.OperationInsert, `{"id":"o1","total":10}`, ""),
			remote:   "",
			decision: DecisionApply,
		},
		{
			name:     "insert already applied",
			entry:    entry(models.OperationInsert, `{"id":"o1","total":10}`, ""),
			remote:   `{"total":10,"id":"o1"}`,
			decision: DecisionSkip,
		},
		{
			name:     "insert over different row",
			entry:    entry(models.OperationInsert, `{"id":"o1","total":10}`, ""),
			remote:   `{"id":"o1","total":11}`,
			decision: DecisionConflict,
			typ:      models.ConflictVersion,
		},
		{
			name:     "update unchanged remote",
			entry:    entry(models.OperationUpdate, `{"id":"o1","total":12}`, `{"id":"o1","total":10}`),
			remote:   `{"id":"o1","total":10}`,
			decision: DecisionApply,
		},
		{
			name:     "update changed remote",
			entry:    entry(models.OperationUpdate, `{"id":"o1","total":12}`, `{"id":"o1","total":10}`),
			remote:   `{"id":"o1","total":11}`,
			decision: DecisionConflict,
			typ:      models.ConflictVersion,
		},
		{
			name:     "update already applied",
			entry:    entry(models.OperationUpdate, `{"id":"o1","total":12}`, `{"id":"o1","total":10}`),
			remote:   `{"id":"o1","total":12}`,
			decision: DecisionSkip,
		},
		{
			name:     "update of removed row",
			entry:    entry(models.OperationUpdate, `{"id":"o1","total":12}`, `{"id":"o1","total":10}`),
			remote:   "",
			decision: DecisionConflict,
			typ:      models.ConflictVersion,
		},
		{
			name:     "delete already gone",
			entry:    entry(models.OperationDelete, `{"id":"o1","status":"pending"}`, `{"id":"o1","status":"pending"}`),
			remote:   "",
			decision: DecisionSkip,
		},
		{
			name:     "delete unchanged",
			entry:    entry(models.OperationDelete, `{"id":"o1","status":"pending"}`, `{"id":"o1","status":"pending"}`),
			remote:   `{"id":"o1","status":"pending"}`,
			decision: DecisionApply,
		},
		{
			name:     "delete of completed order",
			entry:    entry(models.OperationDelete, `{"id":"o1","status":"pending"}`, `{"id":"o1","status":"pending"}`),
			remote:   `{"id":"o1","status":"completed"}`,
			decision: DecisionConflict,
			typ:      models.ConflictDelete,
		},
		{
			name:     "delete of changed row",
			entry:    entry(models.OperationDelete, `{"id":"o1","status":"pending"}`, `{"id":"o1","status":"pending"}`),
			remote:   `{"id":"o1","status":"pending","note":"x"}`,
			decision: DecisionConflict,
			typ:      models.ConflictVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var remote models.Record
			if tt.remote != "" {
				remote = rec(t, tt.remote)
			}
			det, err := r.Detect(tt.entry, remote)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, det.Decision, det.Reason)
			assert.Equal(t, tt.typ, det.Type)
		})
	}
}

func TestDetect_CustomComparator(t *testing.T) {
	r := NewResolver(testLogger())
	// конфликт только если изменился total
	r.RegisterComparator(models.TableOrders, func(base, remote models.Record) bool {
		b, _ := base.Int64("total")
		rm, _ := remote.Int64("total")
		return b != rm
	})

	e := entry(models.OperationUpdate, `{"id":"o1","total":10,"note":"local"}`, `{"id":"o1","total":10}`)

	det, err := r.Detect(e, rec(t, `{"id":"o1","total":10,"note":"remote"}`))
	require.NoError(t, err)
	assert.Equal(t, DecisionApply, det.Decision)

	det, err = r.Detect(e, rec(t, `{"id":"o1","total":15}`))
	require.NoError(t, err)
	assert.Equal(t, DecisionConflict, det.Decision)
}

func TestDetect_Errors(t *testing.T) {
	r := NewResolver(testLogger())

	_, err := r.Detect(entry(models.Operation("upsert"), `{"id":"o1"}`, ""), nil)
	assert.Error(t, err)

	_, err = r.Detect(entry(models.OperationInsert, `{broken`, ""), nil)
	assert.Error(t, err)
}

func TestMaxFieldsMerge(t *testing.T) {
	merge := MaxFieldsMerge("total_cents")

	merged, err := merge(
		rec(t, `{"id":"o1","total_cents":500,"note":"local"}`),
		rec(t, `{"id":"o1","total_cents":700,"status":"completed"}`),
	)
	require.NoError(t, err)

	assert.Equal(t, "o1", merged.ID())
	assert.Equal(t, "local", merged.String("note"))
	assert.Equal(t, "completed", merged.String("status"))
	total, ok := merged.Int64("total_cents")
	require.True(t, ok)
	assert.Equal(t, int64(700), total)

	merged, err = merge(rec(t, `{"id":"o2","total_cents":5}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "o2", merged.ID())
}

func TestNewConflict(t *testing.T) {
	r := NewResolver(testLogger())
	e := entry(models.OperationUpdate, `{"id":"o1","total":12}`, `{"id":"o1","total":10}`)

	c, err := r.NewConflict(e, Detection{Decision: DecisionConflict, Type: models.ConflictVersion}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "j1", c.SyncJournalID)
	assert.Equal(t, models.ResolutionNone, c.Resolution)
	assert.False(t, c.IsResolved())
	assert.JSONEq(t, "null", string(c.RemoteData))
	assert.JSONEq(t, `{"id":"o1","total":12}`, string(c.LocalData))
}
