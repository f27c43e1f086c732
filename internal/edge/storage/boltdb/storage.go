// Package boltdb реализует edge хранилище на bbolt: строки таблиц,
// журнал синхронизации и конфликты в одном файле с общими транзакциями.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tillsync/internal/storage"
)

var (
	// BoltDB bucket names
	bucketTables    = []byte("tables") // вложенный bucket на каждую таблицу
	bucketMeta      = []byte("meta")
	bucketJournal   = []byte("sync_journal")
	bucketConflicts = []byte("sync_conflicts")
)

// Storage represents BoltDB storage implementation for edge node
type Storage struct {
	db *bbolt.DB
}

var (
	_ storage.Adapter         = (*Storage)(nil)
	_ storage.JournalStorage  = (*Storage)(nil)
	_ storage.ConflictStorage = (*Storage)(nil)
	_ storage.CacheStorage    = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB, timeout - файл может держать другой процесс узла
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketTables, bucketMeta, bucketJournal, bucketConflicts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Storage) view(ctx context.Context, fn func(t *boltTx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *Storage) update(ctx context.Context, fn func(t *boltTx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}
