package cloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/pkg/api"
)

var _ storage.Adapter = (*Client)(nil)

func selectRequest(opts *storage.SelectOptions) api.SelectRequest {
	var req api.SelectRequest
	if opts == nil {
		return req
	}
	req.Offset = opts.Offset
	req.Limit = opts.Limit
	for _, f := range opts.Filters {
		req.Filters = append(req.Filters, api.Filter{Column: f.Column, Op: string(f.Op), Value: f.Value})
	}
	for _, o := range opts.OrderBy {
		req.OrderBy = append(req.OrderBy, api.Order{Column: o.Column, Desc: o.Desc})
	}
	return req
}

// Select возвращает строки таблицы по фильтрам
func (c *Client) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var resp api.SelectResponse
	if err := c.doRequest(ctx, http.MethodPost, tablePath(table, "select"), selectRequest(opts), &resp); err != nil {
		return nil, fmt.Errorf("select %s failed: %w", table, err)
	}
	return &storage.Result{Data: resp.Data, Count: resp.Count}, nil
}

// SelectOne возвращает строку по id или nil, если её нет
func (c *Client) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	var resp api.RowResponse
	if err := c.doRequest(ctx, http.MethodGet, tablePath(table, "rows", url.PathEscape(id)), nil, &resp); err != nil {
		return nil, fmt.Errorf("get %s/%s failed: %w", table, id, err)
	}
	return resp.Data, nil
}

// Insert создает строку; id генерируется на клиенте, если его нет
func (c *Client) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	rec := storage.EnsureID(record)

	var resp api.RowResponse
	if err := c.doRequest(ctx, http.MethodPost, tablePath(table, "rows"), rec, &resp); err != nil {
		return nil, fmt.Errorf("insert %s/%s failed: %w", table, rec.ID(), err)
	}
	return resp.Data, nil
}

// InsertMany вставляет строки независимо, возвращает успешно вставленные
func (c *Client) InsertMany(ctx context.Context, table string, records []models.Record) ([]models.Record, error) {
	items := make([]models.Record, 0, len(records))
	for _, rec := range records {
		items = append(items, storage.EnsureID(rec))
	}

	var resp api.InsertManyResponse
	if err := c.doRequest(ctx, http.MethodPost, tablePath(table, "rows:batch"), api.InsertManyRequest{Items: items}, &resp); err != nil {
		return nil, fmt.Errorf("insert many %s failed: %w", table, err)
	}
	return resp.Data, nil
}

// Update сливает patch в существующую строку
func (c *Client) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	var resp api.RowResponse
	if err := c.doRequest(ctx, http.MethodPatch, tablePath(table, "rows", url.PathEscape(id)), patch, &resp); err != nil {
		return nil, fmt.Errorf("update %s/%s failed: %w", table, id, err)
	}
	return resp.Data, nil
}

// Delete удаляет строку и возвращает её id
func (c *Client) Delete(ctx context.Context, table, id string) (string, error) {
	var resp api.DeleteResponse
	if err := c.doRequest(ctx, http.MethodDelete, tablePath(table, "rows", url.PathEscape(id)), nil, &resp); err != nil {
		return "", fmt.Errorf("delete %s/%s failed: %w", table, id, err)
	}
	return resp.ID, nil
}
