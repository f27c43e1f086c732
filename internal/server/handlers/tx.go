package handlers

import (
	"context"
	"fmt"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
	"github.com/iudanet/tillsync/pkg/api"
)

// applyTxOp выполняет одну операцию транзакции.
// Для delete результат - {"id": <id>}.
func applyTxOp(ctx context.Context, tx storage.Tx, op api.TxOp) (models.Record, error) {
	if err := validation.ValidateTable(op.Table); err != nil {
		return nil, err
	}

	switch op.Op {
	case api.TxOpInsert:
		return tx.Insert(ctx, op.Table, op.Data)
	case api.TxOpUpdate:
		return tx.Update(ctx, op.Table, op.ID, op.Data)
	case api.TxOpDelete:
		id, err := tx.Delete(ctx, op.Table, op.ID)
		if err != nil {
			return nil, err
		}
		return models.Record{"id": id}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tx op %q", storage.ErrInvalidRecord, op.Op)
	}
}

// selectOptions переводит DTO запроса в параметры select
func selectOptions(req api.SelectRequest) *storage.SelectOptions {
	opts := &storage.SelectOptions{Offset: req.Offset, Limit: req.Limit}
	for _, f := range req.Filters {
		opts.Where(f.Column, storage.Operator(f.Op), f.Value)
	}
	for _, o := range req.OrderBy {
		opts.Sort(o.Column, o.Desc)
	}
	return opts
}
