package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/tillsync/internal/models"
)

// Writer подмножество контракта, достаточное для воспроизведения мутаций.
// Ему удовлетворяют и Adapter, и Tx.
type Writer interface {
	SelectOne(ctx context.Context, table, id string) (models.Record, error)
	Insert(ctx context.Context, table string, record models.Record) (models.Record, error)
	Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error)
	Delete(ctx context.Context, table, id string) (string, error)
}

// ReplayEntry применяет запись журнала к бэкенду одним вызовом строкового API
func ReplayEntry(ctx context.Context, w Writer, entry *models.SyncJournalEntry) error {
	switch entry.Operation {
	case models.OperationInsert:
		rec, err := models.DecodeRecord(entry.Data)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: insert entry %s has no data", ErrInvalidRecord, entry.ID)
		}
		rec[models.FieldID] = entry.RecordID
		_, err = w.Insert(ctx, entry.Table, rec)
		return err
	case models.OperationUpdate:
		rec, err := models.DecodeRecord(entry.Data)
		if err != nil {
			return err
		}
		_, err = w.Update(ctx, entry.Table, entry.RecordID, rec)
		return err
	case models.OperationDelete:
		_, err := w.Delete(ctx, entry.Table, entry.RecordID)
		return err
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidRecord, entry.Operation)
	}
}

// Replace делает строку в бэкенде равной record: удаляет существующую и вставляет заново.
// Вызывается внутри транзакции, чтобы замена была атомарной.
func Replace(ctx context.Context, w Writer, table string, record models.Record) error {
	id := record.ID()
	if id == "" {
		return fmt.Errorf("%w: replace requires id", ErrInvalidRecord)
	}
	if _, err := w.Delete(ctx, table, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to remove %s/%s: %w", table, id, err)
	}
	if _, err := w.Insert(ctx, table, record); err != nil {
		return fmt.Errorf("failed to insert %s/%s: %w", table, id, err)
	}
	return nil
}
