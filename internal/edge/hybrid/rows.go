package hybrid

import (
	"context"
	"fmt"

	"github.com/iudanet/tillsync/internal/crypto"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// Select читает из облака, при ошибке облака - из локального кэша.
// Офлайн облако не опрашивается.
func (c *Coordinator) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	if !c.IsOnline() {
		return c.edge.Select(ctx, table, opts)
	}

	result, err := c.cloud.Select(ctx, table, opts)
	if err == nil {
		return result, nil
	}
	c.logger.Warn("Cloud read failed, falling back to edge cache", "table", table, "error", err)
	return c.edge.Select(ctx, table, opts)
}

// SelectOne возвращает строку или nil, маршрутизация как у Select
func (c *Coordinator) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	if !c.IsOnline() {
		return c.edge.SelectOne(ctx, table, id)
	}

	rec, err := c.cloud.SelectOne(ctx, table, id)
	if err == nil {
		return rec, nil
	}
	c.logger.Warn("Cloud read failed, falling back to edge cache",
		"table", table,
		"record_id", id,
		"error", err)
	return c.edge.SelectOne(ctx, table, id)
}

// Insert онлайн пишет в облако и зеркалирует в кэш, офлайн - в EdgeStore с записью журнала
func (c *Coordinator) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	if c.IsOnline() {
		stored, err := c.cloud.Insert(ctx, table, record)
		if err != nil {
			return nil, err
		}
		c.mirror("insert", table, stored.ID(), func() error {
			return c.edge.Upsert(ctx, table, stored)
		})
		return stored, nil
	}

	if err := c.checkOffline(ctx, table); err != nil {
		return nil, err
	}
	return c.insertOffline(ctx, table, record)
}

func (c *Coordinator) insertOffline(ctx context.Context, table string, record models.Record) (models.Record, error) {
	record = storage.EnsureID(record)
	return c.journaled(ctx, models.OperationInsert, table, record.ID(),
		func(tx storage.JournalTx) (models.Record, error) {
			return tx.Insert(ctx, table, record)
		})
}

// InsertMany вставляет строки независимо: ошибка строки исключает её из результата.
// Политика таблицы проверяется один раз до записи.
func (c *Coordinator) InsertMany(ctx context.Context, table string, records []models.Record) ([]models.Record, error) {
	if c.IsOnline() {
		stored, err := c.cloud.InsertMany(ctx, table, records)
		if err != nil {
			return nil, err
		}
		for _, rec := range stored {
			c.mirror("insert", table, rec.ID(), func() error {
				return c.edge.Upsert(ctx, table, rec)
			})
		}
		return stored, nil
	}

	if err := c.checkOffline(ctx, table); err != nil {
		return nil, err
	}

	stored := make([]models.Record, 0, len(records))
	for i, record := range records {
		rec, err := c.insertOffline(ctx, table, record)
		if err != nil {
			c.logger.Warn("Offline insert skipped", "table", table, "index", i, "error", err)
			continue
		}
		stored = append(stored, rec)
	}
	return stored, nil
}

// Update сливает patch в строку
func (c *Coordinator) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	if c.IsOnline() {
		updated, err := c.cloud.Update(ctx, table, id, patch)
		if err != nil {
			return nil, err
		}
		c.mirror("update", table, id, func() error {
			return c.edge.Upsert(ctx, table, updated)
		})
		return updated, nil
	}

	if err := c.checkOffline(ctx, table); err != nil {
		return nil, err
	}
	return c.journaled(ctx, models.OperationUpdate, table, id,
		func(tx storage.JournalTx) (models.Record, error) {
			return tx.Update(ctx, table, id, patch)
		})
}

// Delete удаляет строку и возвращает её id
func (c *Coordinator) Delete(ctx context.Context, table, id string) (string, error) {
	if c.IsOnline() {
		deleted, err := c.cloud.Delete(ctx, table, id)
		if err != nil {
			return "", err
		}
		c.mirror("delete", table, id, func() error {
			return c.edge.Remove(ctx, table, id)
		})
		return deleted, nil
	}

	if err := c.checkOffline(ctx, table); err != nil {
		return "", err
	}
	_, err := c.journaled(ctx, models.OperationDelete, table, id,
		func(tx storage.JournalTx) (models.Record, error) {
			_, err := tx.Delete(ctx, table, id)
			return nil, err
		})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Transaction онлайн выполняется облачной транзакцией, офлайн - локальной.
// Записи через tx в журнал не попадают.
func (c *Coordinator) Transaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	if c.IsOnline() {
		return c.cloud.Transaction(ctx, fn)
	}
	return c.edge.Transaction(ctx, fn)
}

// checkOffline загружает журнал при первой офлайн записи и проверяет политику таблицы
func (c *Coordinator) checkOffline(ctx context.Context, table string) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}
	return c.Policy().CheckOfflineWrite(table)
}

// journaled применяет офлайн запись и добавляет запись журнала в одной локальной транзакции.
// write возвращает итоговую строку (nil для delete).
func (c *Coordinator) journaled(
	ctx context.Context,
	op models.Operation,
	table, id string,
	write func(tx storage.JournalTx) (models.Record, error),
) (models.Record, error) {
	var (
		entry  *models.SyncJournalEntry
		result models.Record
	)

	err := c.edge.WithJournal(ctx, func(tx storage.JournalTx) error {
		var base models.Record
		if op != models.OperationInsert {
			var err error
			if base, err = tx.SelectOne(ctx, table, id); err != nil {
				return err
			}
			if base == nil {
				return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, id)
			}
		}

		var err error
		if result, err = write(tx); err != nil {
			return err
		}

		snapshot := result
		if op == models.OperationDelete {
			snapshot = base
		}
		if entry, err = c.newEntry(op, table, id, snapshot, base); err != nil {
			return err
		}
		return tx.AppendJournal(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	c.indexPut(entry)
	c.logger.Debug("Offline write queued",
		"operation", op,
		"table", table,
		"record_id", id,
		"journal_id", entry.ID)

	return result, nil
}

// newEntry строит pending запись журнала со снимком строки и контрольной суммой
func (c *Coordinator) newEntry(op models.Operation, table, id string, data, base models.Record) (*models.SyncJournalEntry, error) {
	raw, err := data.Marshal()
	if err != nil {
		return nil, err
	}
	baseRaw, err := base.Marshal()
	if err != nil {
		return nil, err
	}
	checksum, err := crypto.Checksum(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum journal data: %w", err)
	}

	return &models.SyncJournalEntry{
		ID:           storage.NewID(),
		Operation:    op,
		Table:        table,
		RecordID:     id,
		OriginNodeID: c.nodeID,
		Status:       models.StatusPending,
		Checksum:     checksum,
		Data:         raw,
		BaseData:     baseRaw,
		Timestamp:    c.clock.Tick(),
		CreatedAt:    c.now().UTC(),
	}, nil
}
