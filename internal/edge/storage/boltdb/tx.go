package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
)

// boltTx строковые операции поверх одной bbolt транзакции.
// Используется и для одиночных вызовов Storage, и как контекст Transaction/WithJournal.
type boltTx struct {
	tx *bbolt.Tx
}

var _ storage.JournalTx = (*boltTx)(nil)

// table возвращает bucket таблицы; при create создаёт его (только в записывающей транзакции)
func (t *boltTx) table(name string, create bool) (*bbolt.Bucket, error) {
	if err := validation.ValidateTable(name); err != nil {
		return nil, err
	}
	root := t.tx.Bucket(bucketTables)
	if root == nil {
		return nil, fmt.Errorf("tables bucket not found")
	}
	if !create {
		return root.Bucket([]byte(name)), nil
	}
	b, err := root.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create table bucket %s: %w", name, err)
	}
	return b, nil
}

func (t *boltTx) Select(ctx context.Context, table string, opts *storage.SelectOptions) (*storage.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b, err := t.table(table, false)
	if err != nil {
		return nil, err
	}

	var rows []models.Record
	if b != nil {
		err = b.ForEach(func(k, v []byte) error {
			rec, err := models.DecodeRecord(v)
			if err != nil {
				return fmt.Errorf("failed to decode %s/%s: %w", table, k, err)
			}
			rows = append(rows, rec)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return storage.ApplySelect(rows, opts)
}

func (t *boltTx) SelectOne(ctx context.Context, table, id string) (models.Record, error) {
	b, err := t.table(table, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}

	data := b.Get([]byte(id))
	if data == nil {
		return nil, nil
	}
	return models.DecodeRecord(data)
}

func (t *boltTx) Insert(ctx context.Context, table string, record models.Record) (models.Record, error) {
	rec, err := models.NormalizeRecord(storage.EnsureID(record))
	if err != nil {
		return nil, err
	}
	id := rec.ID()
	if err := validation.ValidateRecordID(id); err != nil {
		return nil, err
	}

	b, err := t.table(table, true)
	if err != nil {
		return nil, err
	}
	if b.Get([]byte(id)) != nil {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrAlreadyExists, table, id)
	}
	if err := putRecord(b, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *boltTx) Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error) {
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

	b, err := t.table(table, true)
	if err != nil {
		return nil, err
	}
	if err := putRecord(b, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (t *boltTx) Delete(ctx context.Context, table, id string) (string, error) {
	b, err := t.table(table, false)
	if err != nil {
		return "", err
	}
	if b == nil || b.Get([]byte(id)) == nil {
		return "", fmt.Errorf("%w: %s/%s", storage.ErrNotFound, table, id)
	}
	if err := b.Delete([]byte(id)); err != nil {
		return "", fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}
	return id, nil
}

// Upsert записывает строку целиком, заменяя существующую
func (t *boltTx) Upsert(ctx context.Context, table string, record models.Record) error {
	rec, err := models.NormalizeRecord(record)
	if err != nil {
		return err
	}
	if err := validation.ValidateRecordID(rec.ID()); err != nil {
		return err
	}
	b, err := t.table(table, true)
	if err != nil {
		return err
	}
	return putRecord(b, rec)
}

// Remove удаляет строку, отсутствие строки не ошибка
func (t *boltTx) Remove(ctx context.Context, table, id string) error {
	b, err := t.table(table, false)
	if err != nil || b == nil {
		return err
	}
	if err := b.Delete([]byte(id)); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}
	return nil
}

// AppendJournal добавляет новую запись журнала
func (t *boltTx) AppendJournal(ctx context.Context, entry *models.SyncJournalEntry) error {
	b := t.tx.Bucket(bucketJournal)
	if b == nil {
		return fmt.Errorf("journal bucket not found")
	}
	if b.Get([]byte(entry.ID)) != nil {
		return fmt.Errorf("%w: journal entry %s", storage.ErrAlreadyExists, entry.ID)
	}
	return putJSON(b, entry.ID, entry)
}

// PutJournalEntry сохраняет запись журнала (insert or replace)
func (t *boltTx) PutJournalEntry(ctx context.Context, entry *models.SyncJournalEntry) error {
	b := t.tx.Bucket(bucketJournal)
	if b == nil {
		return fmt.Errorf("journal bucket not found")
	}
	return putJSON(b, entry.ID, entry)
}

// PutConflict сохраняет конфликт (insert or replace)
func (t *boltTx) PutConflict(ctx context.Context, conflict *models.SyncConflict) error {
	b := t.tx.Bucket(bucketConflicts)
	if b == nil {
		return fmt.Errorf("conflicts bucket not found")
	}
	return putJSON(b, conflict.ID, conflict)
}

func putRecord(b *bbolt.Bucket, rec models.Record) error {
	return putJSON(b, rec.ID(), rec)
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := b.Put([]byte(key), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
