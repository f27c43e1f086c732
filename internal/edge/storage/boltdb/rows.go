package boltdb

import (
	"context"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// Select возвращает строки таблицы по фильтрам, сортировке и пагинации
func (s *Storage) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	var res *storage.Result
	err := s.view(ctx, func(t *boltTx) error {
		var err error
		res, err = t.Select(ctx, table, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SelectOne возвращает строку по id или nil
func (s *Storage) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	var rec models.Record
	err := s.view(ctx, func(t *boltTx) error {
		var err error
		rec, err = t.SelectOne(ctx, table, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert сохраняет новую строку
func (s *Storage) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	var rec models.Record
	err := s.update(ctx, func(t *boltTx) error {
		var err error
		rec, err = t.Insert(ctx, table, record)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertMany вставляет каждую строку в своей транзакции.
// Строки с ошибкой в результат не попадают, остальные вставляются.
func (s *Storage) InsertMany(ctx context.Context, table string, records []models.Record) ([]models.Record, error) {
	inserted := make([]models.Record, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		rec, err := s.Insert(ctx, table, record)
		if err != nil {
			continue
		}
		inserted = append(inserted, rec)
	}
	return inserted, nil
}

// Update сливает patch в существующую строку
func (s *Storage) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
	var rec models.Record
	err := s.update(ctx, func(t *boltTx) error {
		var err error
		rec, err = t.Update(ctx, table, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete удаляет строку
func (s *Storage) Delete(ctx context.Context, table, id string) (string, error) {
	err := s.update(ctx, func(t *boltTx) error {
		_, err := t.Delete(ctx, table, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Transaction выполняет fn в одной bbolt транзакции: ошибка fn откатывает все записи
func (s *Storage) Transaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.update(ctx, func(t *boltTx) error {
		return fn(t)
	})
}

// WithJournal выполняет fn в одной bbolt транзакции вместе с записями журнала и конфликтов
func (s *Storage) WithJournal(ctx context.Context, fn func(tx storage.JournalTx) error) error {
	return s.update(ctx, func(t *boltTx) error {
		return fn(t)
	})
}

// Upsert записывает строку целиком (кэш облачных строк, remote_wins)
func (s *Storage) Upsert(ctx context.Context, table string, record models.Record) error {
	return s.update(ctx, func(t *boltTx) error {
		return t.Upsert(ctx, table, record)
	})
}

// Remove удаляет строку, если она есть
func (s *Storage) Remove(ctx context.Context, table, id string) error {
	return s.update(ctx, func(t *boltTx) error {
		return t.Remove(ctx, table, id)
	})
}
