package hybrid

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iudanet/tillsync/internal/conflict"
	"github.com/iudanet/tillsync/internal/crypto"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// SyncResult итог одного прохода drain
type SyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
	// Blocked записи, не отправленные из-за конфликта или ошибки более ранней записи той же строки
	Blocked int `json:"blocked"`
}

// recordQueue записи журнала одной строки в причинном порядке
type recordQueue struct {
	key     string
	entries []*models.SyncJournalEntry
}

// TriggerSync выполняет один проход drain: pending и failed записи отправляются в облако
// по возрастанию timestamp, по очереди на каждую строку. Конфликт или ошибка
// останавливают только очередь своей строки. Повторы и backoff - забота вызывающей стороны.
// При отмене ctx уже синхронизированные записи остаются synced, текущая
// возвращается в прежний статус, возвращается ctx.Err().
func (c *Coordinator) TriggerSync(ctx context.Context) (*SyncResult, error) {
	if !c.IsOnline() {
		return nil, ErrOffline
	}
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	started := c.now().UTC()
	c.resetStale(ctx)
	queues, blocked := c.drainQueues()
	result := &SyncResult{Blocked: blocked}

	c.logger.Info("Starting synchronization",
		"records", len(queues),
		"blocked", blocked,
		"batch_size", c.batchSize)

	var err error
	if c.batchSize > 1 {
		err = c.drainBatches(ctx, queues, result)
	} else {
		err = c.drainRows(ctx, queues, result)
	}
	if err != nil {
		c.logger.Warn("Synchronization interrupted",
			"synced", result.Synced,
			"conflicts", result.Conflicts,
			"failed", result.Failed,
			"error", err)
		return result, err
	}

	if err := c.edge.SaveLastSyncAt(ctx, started); err != nil {
		c.logger.Warn("Failed to save last sync time", "error", err)
	}

	c.logger.Info("Synchronization completed",
		"attempted", result.Attempted,
		"synced", result.Synced,
		"conflicts", result.Conflicts,
		"failed", result.Failed,
		"blocked", result.Blocked)

	return result, nil
}

// resetStale возвращает в pending записи, оставшиеся в syncing после того, как
// не удалось сохранить исход попытки. Drain идёт под syncMu, поэтому в начале
// прохода syncing в индексе означает только такие записи.
func (c *Coordinator) resetStale(ctx context.Context) {
	stale := c.indexSnapshot(func(e *models.SyncJournalEntry) bool {
		return e.Status == models.StatusSyncing
	})
	for _, entry := range stale {
		entry.Status = models.StatusPending
		if err := c.persist(ctx, entry); err != nil {
			c.logger.Warn("Failed to reset stale syncing journal entry",
				"journal_id", entry.ID,
				"record_id", entry.RecordID,
				"error", err)
		}
	}
}

// drainQueues группирует записи индекса по строкам. Строки с неразрешённым
// конфликтом или с записью, застрявшей в syncing, пропускаются целиком,
// их записи считаются blocked.
func (c *Coordinator) drainQueues() ([]*recordQueue, int) {
	entries := c.indexSnapshot(func(e *models.SyncJournalEntry) bool {
		return e.Status.Drainable() || e.Status == models.StatusConflict || e.Status == models.StatusSyncing
	})

	byKey := make(map[string]*recordQueue)
	var (
		queues  []*recordQueue
		blocked = make(map[string]bool)
	)
	for _, entry := range entries {
		key := entry.RecordKey()
		switch entry.Status {
		case models.StatusConflict:
			blocked[key] = true
			continue
		case models.StatusSyncing:
			blocked[key] = true
		}
		q, ok := byKey[key]
		if !ok {
			q = &recordQueue{key: key}
			byKey[key] = q
			queues = append(queues, q)
		}
		q.entries = append(q.entries, entry)
	}

	// entries уже отсортированы, поэтому очереди идут по первой записи
	out := queues[:0]
	skipped := 0
	for _, q := range queues {
		if blocked[q.key] {
			skipped += len(q.entries)
			continue
		}
		out = append(out, q)
	}
	return out, skipped
}

func (c *Coordinator) drainRows(ctx context.Context, queues []*recordQueue, result *SyncResult) error {
	for _, q := range queues {
		for i, entry := range q.entries {
			if err := ctx.Err(); err != nil {
				return err
			}

			status, err := c.syncEntry(ctx, entry)
			if err != nil {
				return err
			}
			result.Attempted++
			if countOutcome(result, status) {
				continue
			}
			result.Blocked += len(q.entries) - i - 1
			break
		}
	}
	return nil
}

// countOutcome учитывает исход записи и возвращает true, если очередь строки можно продолжать
func countOutcome(result *SyncResult, status models.JournalStatus) bool {
	switch status {
	case models.StatusSynced:
		result.Synced++
		return true
	case models.StatusConflict:
		result.Conflicts++
	default:
		result.Failed++
	}
	return false
}

// syncEntry отправляет одну запись строковым API облака.
// Ошибка возвращается только при отмене ctx.
func (c *Coordinator) syncEntry(ctx context.Context, entry *models.SyncJournalEntry) (models.JournalStatus, error) {
	prev := entry.Clone()
	if err := c.markSyncing(ctx, entry); err != nil {
		return c.markFailed(ctx, entry, err), nil
	}

	if err := crypto.VerifyChecksum(entry.Data, entry.Checksum); err != nil {
		return c.markFailed(ctx, entry, err), nil
	}

	remote, err := c.cloud.SelectOne(ctx, entry.Table, entry.RecordID)
	if err != nil {
		return c.failOrRevert(ctx, entry, prev, fmt.Errorf("failed to read cloud record: %w", err))
	}

	det, err := c.resolver.Detect(entry, remote)
	if err != nil {
		return c.markFailed(ctx, entry, err), nil
	}

	switch det.Decision {
	case conflict.DecisionConflict:
		return c.markConflict(ctx, entry, det, remote), nil
	case conflict.DecisionApply:
		if err := storage.ReplayEntry(ctx, c.cloud, entry); err != nil {
			return c.failOrRevert(ctx, entry, prev, err)
		}
	}

	return c.markSynced(ctx, entry), nil
}

func (c *Coordinator) drainBatches(ctx context.Context, queues []*recordQueue, result *SyncResult) error {
	next := make([]int, len(queues))
	active := make([]int, len(queues))
	for i := range queues {
		active[i] = i
	}

	// каждый раунд отправляет по одной (самой ранней) записи каждой строки,
	// так что записи одной строки никогда не попадают в один пакет
	for len(active) > 0 {
		var remaining []int
		for start := 0; start < len(active); start += c.batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}

			chunk := active[start:min(start+c.batchSize, len(active))]
			heads := make([]*models.SyncJournalEntry, len(chunk))
			for i, qi := range chunk {
				heads[i] = queues[qi].entries[next[qi]]
			}

			statuses, err := c.syncBatch(ctx, heads)
			if err != nil {
				return err
			}

			for i, qi := range chunk {
				result.Attempted++
				q := queues[qi]
				if !countOutcome(result, statuses[heads[i].ID]) {
					result.Blocked += len(q.entries) - next[qi] - 1
					continue
				}
				next[qi]++
				if next[qi] < len(q.entries) {
					remaining = append(remaining, qi)
				}
			}
		}
		active = remaining
	}
	return nil
}

// syncBatch отправляет пакет записей через SyncBatchOperations и фиксирует исход каждой.
// Ошибка возвращается только при отмене ctx.
func (c *Coordinator) syncBatch(ctx context.Context, heads []*models.SyncJournalEntry) (map[string]models.JournalStatus, error) {
	statuses := make(map[string]models.JournalStatus, len(heads))
	prevs := make(map[string]*models.SyncJournalEntry, len(heads))
	send := make([]*models.SyncJournalEntry, 0, len(heads))

	for _, entry := range heads {
		prevs[entry.ID] = entry.Clone()
		if err := c.markSyncing(ctx, entry); err != nil {
			statuses[entry.ID] = c.markFailed(ctx, entry, err)
			continue
		}
		if err := crypto.VerifyChecksum(entry.Data, entry.Checksum); err != nil {
			statuses[entry.ID] = c.markFailed(ctx, entry, err)
			continue
		}
		send = append(send, entry)
	}
	if len(send) == 0 {
		return statuses, nil
	}

	res, err := c.cloud.SyncBatchOperations(ctx, models.SyncBatchRequest{
		TenantID:     c.tenantID,
		OriginNodeID: c.nodeID,
		Entries:      send,
	})
	if err != nil {
		if ctx.Err() != nil {
			for _, entry := range send {
				c.revert(ctx, prevs[entry.ID])
			}
			return nil, ctx.Err()
		}
		for _, entry := range send {
			statuses[entry.ID] = c.markFailed(ctx, entry, fmt.Errorf("sync batch failed: %w", err))
		}
		return statuses, nil
	}

	outcomes := make(map[string]models.BatchOutcome, len(res.Results))
	for _, o := range res.Results {
		outcomes[o.ID] = o
	}

	for _, entry := range send {
		outcome, ok := outcomes[entry.ID]
		if !ok {
			statuses[entry.ID] = c.markFailed(ctx, entry, errors.New("no outcome returned for entry"))
			continue
		}
		statuses[entry.ID] = c.applyOutcome(ctx, entry, outcome)
	}
	return statuses, nil
}

// applyOutcome фиксирует исход записи, присланный облаком в ответе на пакет
func (c *Coordinator) applyOutcome(ctx context.Context, entry *models.SyncJournalEntry, outcome models.BatchOutcome) models.JournalStatus {
	switch outcome.Status {
	case models.StatusSynced:
		return c.markSynced(ctx, entry)
	case models.StatusConflict:
		remote, err := models.DecodeRecord(outcome.Remote)
		if err != nil {
			return c.markFailed(ctx, entry, err)
		}
		det := conflict.Detection{
			Decision: conflict.DecisionConflict,
			Type:     outcome.ConflictType,
			Reason:   outcome.Message,
		}
		if det.Type == "" {
			det.Type = models.ConflictVersion
		}
		return c.markConflict(ctx, entry, det, remote)
	default:
		msg := outcome.Message
		if msg == "" {
			msg = "rejected by cloud"
		}
		return c.markFailed(ctx, entry, errors.New(msg))
	}
}

// failOrRevert помечает запись failed, а при отмене ctx возвращает ей прежний статус
func (c *Coordinator) failOrRevert(ctx context.Context, entry, prev *models.SyncJournalEntry, cause error) (models.JournalStatus, error) {
	if err := ctx.Err(); err != nil {
		c.revert(ctx, prev)
		return "", err
	}
	return c.markFailed(ctx, entry, cause), nil
}

func (c *Coordinator) markSyncing(ctx context.Context, entry *models.SyncJournalEntry) error {
	now := c.now().UTC()
	entry.Status = models.StatusSyncing
	entry.LastAttempt = &now
	return c.persist(ctx, entry)
}

func (c *Coordinator) markSynced(ctx context.Context, entry *models.SyncJournalEntry) models.JournalStatus {
	now := c.now().UTC()
	entry.Status = models.StatusSynced
	entry.SyncedAt = &now
	entry.Error = ""
	if err := c.persist(ctx, entry); err != nil {
		c.logger.Error("Failed to mark journal entry synced", "journal_id", entry.ID, "error", err)
		return models.StatusFailed
	}

	c.logger.Debug("Journal entry synced",
		"journal_id", entry.ID,
		"table", entry.Table,
		"record_id", entry.RecordID,
		"operation", entry.Operation)
	return models.StatusSynced
}

// markFailed увеличивает attempts и сохраняет ошибку. Запись остаётся доступной следующему drain.
func (c *Coordinator) markFailed(ctx context.Context, entry *models.SyncJournalEntry, cause error) models.JournalStatus {
	now := c.now().UTC()
	entry.Status = models.StatusFailed
	entry.Attempts++
	entry.Error = cause.Error()
	entry.LastAttempt = &now

	c.logger.Warn("Journal entry sync failed",
		"journal_id", entry.ID,
		"table", entry.Table,
		"record_id", entry.RecordID,
		"attempts", entry.Attempts,
		"error", cause)

	if err := c.persist(ctx, entry); err != nil {
		c.logger.Error("Failed to mark journal entry failed", "journal_id", entry.ID, "error", err)
	}
	return models.StatusFailed
}

// markConflict сохраняет конфликт и статус записи в одной локальной транзакции.
// Локальная строка не меняется.
func (c *Coordinator) markConflict(ctx context.Context, entry *models.SyncJournalEntry, det conflict.Detection, remote models.Record) models.JournalStatus {
	record, err := c.resolver.NewConflict(entry, det, remote)
	if err != nil {
		return c.markFailed(ctx, entry, err)
	}

	updated := entry.Clone()
	updated.Status = models.StatusConflict
	updated.Error = det.Reason

	bg := context.WithoutCancel(ctx)
	err = c.edge.WithJournal(bg, func(tx storage.JournalTx) error {
		if err := tx.PutJournalEntry(bg, updated); err != nil {
			return err
		}
		return tx.PutConflict(bg, record)
	})
	if err != nil {
		return c.markFailed(ctx, entry, fmt.Errorf("failed to record conflict: %w", err))
	}

	*entry = *updated
	c.indexPut(entry)

	c.logger.Warn("Sync conflict detected",
		"journal_id", entry.ID,
		"conflict_id", record.ID,
		"conflict_type", det.Type,
		"table", entry.Table,
		"record_id", entry.RecordID,
		"reason", det.Reason)
	return models.StatusConflict
}

// revert возвращает записи состояние до попытки, attempts не меняется
func (c *Coordinator) revert(ctx context.Context, prev *models.SyncJournalEntry) {
	if err := c.persist(ctx, prev); err != nil {
		c.logger.Error("Failed to revert journal entry", "journal_id", prev.ID, "error", err)
	}
}

// persist сохраняет запись журнала и только после этого обновляет индекс.
// Пишет даже при отменённом ctx, чтобы статус попытки не потерялся.
func (c *Coordinator) persist(ctx context.Context, entry *models.SyncJournalEntry) error {
	if err := c.edge.SaveJournalEntry(context.WithoutCancel(ctx), entry); err != nil {
		return fmt.Errorf("failed to persist journal entry %s: %w", entry.ID, err)
	}
	if entry.Status == models.StatusSynced {
		c.indexRemove(entry.ID)
	} else {
		c.indexPut(entry)
	}
	return nil
}

func sortEntries(entries []*models.SyncJournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Before(entries[j])
	})
}
