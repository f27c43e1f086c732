package hybrid

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/tillsync/internal/conflict"
	"github.com/iudanet/tillsync/internal/models"
)

// SyncStats состояние журнала узла
type SyncStats struct {
	OldestPending *time.Time                   `json:"oldest_pending,omitempty"`
	LastSyncAt    *time.Time                   `json:"last_sync_at,omitempty"`
	Counts        map[models.JournalStatus]int `json:"counts"`
	Pending       int                          `json:"pending"`
	Syncing       int                          `json:"syncing"`
	Failed        int                          `json:"failed"`
	Conflict      int                          `json:"conflict"`
	Online        bool                         `json:"online"`
}

// GetPendingSyncEntries возвращает записи, ещё не доставленные в облако
// (pending, syncing, failed), в порядке drain
func (c *Coordinator) GetPendingSyncEntries() []*models.SyncJournalEntry {
	return c.indexSnapshot(func(e *models.SyncJournalEntry) bool {
		return e.Status.Drainable() || e.Status == models.StatusSyncing
	})
}

// GetSyncStats считает записи индекса по статусам. Counts - полная статистика
// EdgeStore, включая synced записи.
func (c *Coordinator) GetSyncStats(ctx context.Context) (*SyncStats, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	stats := &SyncStats{Online: c.IsOnline()}
	for _, entry := range c.indexSnapshot(nil) {
		switch entry.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusSyncing:
			stats.Syncing++
		case models.StatusFailed:
			stats.Failed++
		case models.StatusConflict:
			stats.Conflict++
		}
		if entry.Status.Drainable() && (stats.OldestPending == nil || entry.CreatedAt.Before(*stats.OldestPending)) {
			created := entry.CreatedAt
			stats.OldestPending = &created
		}
	}

	counts, err := c.edge.JournalStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Counts = counts

	last, err := c.edge.GetLastSyncAt(ctx)
	if err != nil {
		return nil, err
	}
	if !last.IsZero() {
		stats.LastSyncAt = &last
	}
	return stats, nil
}

// GetConflicts возвращает конфликты, при unresolvedOnly - только ожидающие резолюции
func (c *Coordinator) GetConflicts(ctx context.Context, unresolvedOnly bool) ([]*models.SyncConflict, error) {
	return c.edge.ListConflicts(ctx, unresolvedOnly)
}

// ResolveConflict применяет выбранную вызывающей стороной резолюцию.
// payload используется только для manual. После успеха запись журнала synced,
// и очередь её строки снова доступна drain.
func (c *Coordinator) ResolveConflict(
	ctx context.Context,
	conflictID string,
	resolution models.Resolution,
	payload json.RawMessage,
	resolvedBy string,
) (*models.SyncConflict, error) {
	if !c.IsOnline() {
		return nil, ErrOffline
	}
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	record, err := c.edge.GetConflict(ctx, conflictID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	entry, err := c.edge.GetJournalEntry(ctx, record.SyncJournalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry for conflict: %w", err)
	}

	if resolvedBy == "" {
		resolvedBy = c.nodeID
	}

	resolved, err := c.resolver.Resolve(ctx, c.cloud, c.edge, conflict.Request{
		Conflict:   record,
		Entry:      entry,
		Resolution: resolution,
		ResolvedBy: resolvedBy,
		Payload:    payload,
	})
	if err != nil {
		return nil, err
	}

	c.indexRemove(entry.ID)
	return resolved, nil
}

// PurgeSynced удаляет synced записи журнала старше olderThan
func (c *Coordinator) PurgeSynced(ctx context.Context, olderThan time.Duration) (int, error) {
	purged, err := c.edge.PurgeSyncedBefore(ctx, c.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		c.logger.Info("Purged synced journal entries", "count", purged)
	}
	return purged, nil
}
