package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
)

// querier общее подмножество *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowOps строковые операции одного tenant поверх querier.
// Внутри транзакции querier - *sql.Tx, поэтому чтения видят собственные записи.
type rowOps struct {
	q      querier
	tenant string
	now    func() time.Time
}

var _ storage.Tx = (*rowOps)(nil)

func (o *rowOps) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	if err := validation.ValidateTable(table); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	where, filterArgs := "", []any(nil)
	if opts != nil {
		where, filterArgs = pushdownWhere(opts.Filters)
	}

	query := `
		SELECT data
		FROM records
		WHERE tenant_id = ? AND tbl = ?` + where + `
		ORDER BY id
	`

	args := append([]any{o.tenant, table}, filterArgs...)
	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var all []models.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec, err := models.DecodeRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return storage.ApplySelect(all, opts)
}

func (o *rowOps) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	if err := validation.ValidateTable(table); err != nil {
		return nil, err
	}

	query := `SELECT data FROM records WHERE tenant_id = ? AND tbl = ? AND id = ?`

	var data string
	err := o.q.QueryRowContext(ctx, query, o.tenant, table, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return models.DecodeRecord([]byte(data))
}

func (o *rowOps) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	if err := validation.ValidateTable(table); err != nil {
		return nil, err
	}
	rec, err := models.NormalizeRecord(storage.EnsureID(record))
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRecordID(rec.ID()); err != nil {
		return nil, err
	}
	data, err := rec.Marshal()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO records (tenant_id, tbl, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, tbl, id) DO NOTHING
	`

	now := o.now().Unix()
	res, err := o.q.ExecContext(ctx, query, o.tenant, table, rec.ID(), string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrAlreadyExists, table, rec.ID())
	}

	return rec, nil
}

func (o *rowOps) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	current, err := o.SelectOne(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, id)
	}

	merged, err := models.NormalizeRecord(current.Merge(patch))
	if err != nil {
		return nil, err
	}
	if err := o.write(ctx, table, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (o *rowOps) Delete(ctx context.Context, table, id string) (string, error) {
	if err := validation.ValidateTable(table); err != nil {
		return "", err
	}

	query := `DELETE FROM records WHERE tenant_id = ? AND tbl = ? AND id = ?`

	res, err := o.q.ExecContext(ctx, query, o.tenant, table, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, id)
	}
	return id, nil
}

// write перезаписывает данные существующей строки
func (o *rowOps) write(ctx context.Context, table string, rec models.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET data = ?, updated_at = ?
		WHERE tenant_id = ? AND tbl = ? AND id = ?
	`

	res, err := o.q.ExecContext(ctx, query, string(data), o.now().Unix(), o.tenant, table, rec.ID())
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, rec.ID())
	}
	return nil
}
