package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// TenantStore облачное хранилище одного tenant: строковый контракт и
// три атомарные составные операции
type TenantStore struct {
	s      *Storage
	tenant string
}

var _ storage.Adapter = (*TenantStore)(nil)

// TenantID возвращает tenant, которым ограничено хранилище
func (t *TenantStore) TenantID() string {
	return t.tenant
}

func (t *TenantStore) ops(q querier) *rowOps {
	return &rowOps{q: q, tenant: t.tenant, now: t.s.now}
}

// inTx выполняет fn в одной sql транзакции
func (t *TenantStore) inTx(ctx context.Context, fn func(tx *sql.Tx, ops *rowOps) error) error {
	tx, err := t.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx, t.ops(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			t.s.logger.Error("Failed to rollback transaction", "tenant_id", t.tenant, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *TenantStore) checkTenant(tenantID string) error {
	if tenantID != "" && tenantID != t.tenant {
		return fmt.Errorf("%w: request for %q in store of %q", storage.ErrTenantMismatch, tenantID, t.tenant)
	}
	return nil
}

// Select возвращает строки таблицы tenant
func (t *TenantStore) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	return t.ops(t.s.db).Select(ctx, table, opts)
}

// SelectOne возвращает строку или nil
func (t *TenantStore) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	return t.ops(t.s.db).SelectOne(ctx, table, id)
}

// Insert сохраняет новую строку
func (t *TenantStore) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	return t.ops(t.s.db).Insert(ctx, table, record)
}

// InsertMany вставляет строки независимо, ошибочные пропускаются
func (t *TenantStore) InsertMany(ctx context.Context, table string, records []models.Record) ([]models.Record, error) {
	inserted := make([]models.Record, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		rec, err := t.Insert(ctx, table, record)
		if err != nil {
			t.s.logger.Debug("Bulk insert item skipped", "tenant_id", t.tenant, "table", table, "error", err)
			continue
		}
		inserted = append(inserted, rec)
	}
	return inserted, nil
}

// Update сливает patch в строку; чтение и запись в одной транзакции
func (t *TenantStore) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	var merged models.Record
	err := t.inTx(ctx, func(_ *sql.Tx, ops *rowOps) error {
		var err error
		merged, err = ops.Update(ctx, table, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Delete удаляет строку
func (t *TenantStore) Delete(ctx context.Context, table, id string) (string, error) {
	return t.ops(t.s.db).Delete(ctx, table, id)
}

// Transaction выполняет fn в одной sql транзакции
func (t *TenantStore) Transaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	return t.inTx(ctx, func(_ *sql.Tx, ops *rowOps) error {
		return fn(ops)
	})
}
