package cloud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/pkg/api"
)

// remoteTx буферизует записи транзакции. Чтения идут на сервер и
// накрываются overlay, поэтому видят собственные незафиксированные записи.
type remoteTx struct {
	c       *Client
	overlay map[string]map[string]models.Record // table -> id -> row (nil - удалена)
	ops     []api.TxOp
}

var _ storage.Tx = (*remoteTx)(nil)

// Transaction выполняет fn и фиксирует накопленные записи одним запросом
// POST /api/v1/tx. Сервер применяет их в одной sql транзакции. Ошибка fn
// отбрасывает буфер, на сервер ничего не отправляется.
func (c *Client) Transaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx := &remoteTx{c: c, overlay: make(map[string]map[string]models.Record)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	var resp api.TxResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/tx", api.TxRequest{Ops: tx.ops}, &resp); err != nil {
		return fmt.Errorf("transaction of %d ops failed: %w", len(tx.ops), err)
	}
	return nil
}

func (t *remoteTx) lookup(table, id string) (models.Record, bool) {
	rows, ok := t.overlay[table]
	if !ok {
		return nil, false
	}
	row, ok := rows[id]
	return row, ok
}

func (t *remoteTx) put(table, id string, row models.Record) {
	rows, ok := t.overlay[table]
	if !ok {
		rows = make(map[string]models.Record)
		t.overlay[table] = rows
	}
	rows[id] = row
}

func (t *remoteTx) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rows := t.overlay[table]
	if len(rows) == 0 {
		return t.c.Select(ctx, table, opts)
	}

	// Сервер фильтрует, а сортировка и пагинация делаются локально
	// после наложения overlay
	var filters *storage.SelectOptions
	if opts != nil {
		filters = &storage.SelectOptions{Filters: opts.Filters}
	}
	remote, err := t.c.Select(ctx, table, filters)
	if err != nil {
		return nil, err
	}

	merged := make([]models.Record, 0, len(remote.Data)+len(rows))
	for _, row := range remote.Data {
		if _, shadowed := rows[row.ID()]; !shadowed {
			merged = append(merged, row)
		}
	}
	for _, row := range rows {
		if row != nil {
			merged = append(merged, row.Clone())
		}
	}
	return storage.ApplySelect(merged, opts)
}

func (t *remoteTx) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	if row, ok := t.lookup(table, id); ok {
		return row.Clone(), nil
	}
	return t.c.SelectOne(ctx, table, id)
}

func (t *remoteTx) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	rec, err := models.NormalizeRecord(storage.EnsureID(record))
	if err != nil {
		return nil, err
	}
	id := rec.ID()

	existing, err := t.SelectOne(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrAlreadyExists, table, id)
	}

	t.ops = append(t.ops, api.TxOp{Op: api.TxOpInsert, Table: table, ID: id, Data: rec})
	t.put(table, id, rec)
	return rec.Clone(), nil
}

func (t *remoteTx) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	current, err := t.SelectOne(ctx, table, id)
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

	t.ops = append(t.ops, api.TxOp{Op: api.TxOpUpdate, Table: table, ID: id, Data: patch})
	t.put(table, id, merged)
	return merged.Clone(), nil
}

func (t *remoteTx) Delete(ctx context.Context, table, id string) (string, error) {
	current, err := t.SelectOne(ctx, table, id)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, id)
	}

	t.ops = append(t.ops, api.TxOp{Op: api.TxOpDelete, Table: table, ID: id})
	t.put(table, id, nil)
	return id, nil
}
