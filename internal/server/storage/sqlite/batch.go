package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/tillsync/internal/conflict"
	"github.com/iudanet/tillsync/internal/crypto"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
)

// SyncBatchOperations применяет пакет записей журнала edge узла.
// Каждая запись выполняется в своём SAVEPOINT: конфликт или ошибка одной записи
// откатывает только её, остальные применяются. Повторно присланная запись,
// уже применённая ранее (sync_log), считается synced.
func (t *TenantStore) SyncBatchOperations(ctx context.Context, req models.SyncBatchRequest) (*models.BatchResult, error) {
	if err := t.checkTenant(req.TenantID); err != nil {
		return nil, err
	}
	if err := validation.ValidateNodeID(req.OriginNodeID); err != nil {
		return nil, err
	}

	result := &models.BatchResult{Results: make([]models.BatchOutcome, 0, len(req.Entries))}

	err := t.inTx(ctx, func(tx *sql.Tx, ops *rowOps) error {
		for _, entry := range req.Entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := t.applyBatchEntry(ctx, tx, ops, req.OriginNodeID, entry)
			if err != nil {
				return err
			}
			result.Add(outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	t.s.logger.Info("Sync batch applied",
		"tenant_id", t.tenant,
		"origin_node_id", req.OriginNodeID,
		"entries", len(req.Entries),
		"synced", result.Synced,
		"conflicts", result.Conflicts,
		"failed", result.Failed)
	return result, nil
}

// applyBatchEntry возвращает ошибку только при отказе самой транзакции (savepoint),
// всё остальное - исход записи
func (t *TenantStore) applyBatchEntry(ctx context.Context, tx *sql.Tx, ops *rowOps, nodeID string, entry *models.SyncJournalEntry) (models.BatchOutcome, error) {
	if entry == nil {
		return models.BatchOutcome{Status: models.StatusFailed, Message: "empty entry"}, nil
	}
	outcome := models.BatchOutcome{ID: entry.ID}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT batch_entry"); err != nil {
		return outcome, fmt.Errorf("failed to create savepoint: %w", err)
	}

	status, message, err := t.applyEntry(ctx, tx, ops, nodeID, entry, &outcome)
	if err != nil {
		message = err.Error()
		status = models.StatusFailed
	}
	outcome.Status = status
	outcome.Message = message

	if status != models.StatusSynced {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO batch_entry"); err != nil {
			return outcome, fmt.Errorf("failed to rollback savepoint: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "RELEASE batch_entry"); err != nil {
		return outcome, fmt.Errorf("failed to release savepoint: %w", err)
	}

	if status == models.StatusFailed {
		t.s.logger.Warn("Sync batch entry failed",
			"tenant_id", t.tenant,
			"journal_id", entry.ID,
			"table", entry.Table,
			"record_id", entry.RecordID,
			"error", message)
	}
	return outcome, nil
}

func (t *TenantStore) applyEntry(
	ctx context.Context,
	tx *sql.Tx,
	ops *rowOps,
	nodeID string,
	entry *models.SyncJournalEntry,
	outcome *models.BatchOutcome,
) (models.JournalStatus, string, error) {
	if entry.ID == "" || !entry.Operation.Valid() {
		return "", "", fmt.Errorf("%w: entry needs id and a known operation", storage.ErrInvalidRecord)
	}
	if err := validation.ValidateTable(entry.Table); err != nil {
		return "", "", err
	}
	if err := validation.ValidateRecordID(entry.RecordID); err != nil {
		return "", "", err
	}

	applied, err := t.alreadyApplied(ctx, tx, entry.ID)
	if err != nil {
		return "", "", err
	}
	if applied {
		return models.StatusSynced, "already applied", nil
	}

	if entry.Checksum != "" {
		if err := crypto.VerifyChecksum(entry.Data, entry.Checksum); err != nil {
			return "", "", err
		}
	}

	remote, err := ops.SelectOne(ctx, entry.Table, entry.RecordID)
	if err != nil {
		return "", "", err
	}

	det, err := t.s.resolver.Detect(entry, remote)
	if err != nil {
		return "", "", err
	}

	var message string
	switch det.Decision {
	case conflict.DecisionConflict:
		outcome.ConflictType = det.Type
		if outcome.Remote, err = remote.Marshal(); err != nil {
			return "", "", err
		}
		return models.StatusConflict, det.Reason, nil
	case conflict.DecisionSkip:
		message = det.Reason
	case conflict.DecisionApply:
		if err := storage.ReplayEntry(ctx, ops, entry); err != nil {
			return "", "", err
		}
	}

	if err := t.logApplied(ctx, tx, nodeID, entry); err != nil {
		return "", "", err
	}
	return models.StatusSynced, message, nil
}

func (t *TenantStore) alreadyApplied(ctx context.Context, tx *sql.Tx, journalID string) (bool, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM sync_log WHERE tenant_id = ? AND journal_id = ?`,
		t.tenant, journalID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}
	return status == string(models.StatusSynced), nil
}

func (t *TenantStore) logApplied(ctx context.Context, tx *sql.Tx, nodeID string, entry *models.SyncJournalEntry) error {
	query := `
		INSERT INTO sync_log (tenant_id, journal_id, origin_node_id, tbl, record_id, status, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, journal_id) DO UPDATE SET status = excluded.status, applied_at = excluded.applied_at
	`
	_, err := tx.ExecContext(ctx, query,
		t.tenant,
		entry.ID,
		nodeID,
		entry.Table,
		entry.RecordID,
		string(models.StatusSynced),
		t.s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write sync log: %w", err)
	}
	return nil
}
