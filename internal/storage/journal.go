package storage

import (
	"context"
	"time"

	"github.com/iudanet/tillsync/internal/models"
)

// JournalTx транзакция edge хранилища, в которой вместе со строками
// пишутся записи журнала синхронизации и конфликты
type JournalTx interface {
	Tx

	// AppendJournal добавляет новую запись журнала. Ошибка, если id уже занят.
	AppendJournal(ctx context.Context, entry *models.SyncJournalEntry) error

	// PutJournalEntry сохраняет запись журнала (insert or replace)
	PutJournalEntry(ctx context.Context, entry *models.SyncJournalEntry) error

	// PutConflict сохраняет конфликт (insert or replace)
	PutConflict(ctx context.Context, conflict *models.SyncConflict) error

	// Upsert записывает строку целиком, заменяя существующую
	Upsert(ctx context.Context, table string, record models.Record) error

	// Remove удаляет строку, отсутствие строки не ошибка
	Remove(ctx context.Context, table, id string) error
}

// JournalStorage долговременное хранилище журнала синхронизации
type JournalStorage interface {
	// WithJournal выполняет fn в одной локальной транзакции
	WithJournal(ctx context.Context, fn func(tx JournalTx) error) error

	// SaveJournalEntry сохраняет запись журнала
	SaveJournalEntry(ctx context.Context, entry *models.SyncJournalEntry) error

	// GetJournalEntry возвращает запись журнала по id.
	// Returns ErrNotFound if entry doesn't exist
	GetJournalEntry(ctx context.Context, id string) (*models.SyncJournalEntry, error)

	// ListJournalEntries возвращает записи с указанными статусами (все, если статусы не заданы),
	// упорядоченные по Timestamp
	ListJournalEntries(ctx context.Context, statuses ...models.JournalStatus) ([]*models.SyncJournalEntry, error)

	// PurgeSyncedBefore удаляет synced записи старше before и возвращает их число
	PurgeSyncedBefore(ctx context.Context, before time.Time) (int, error)
}

// ConflictStorage долговременное хранилище конфликтов
type ConflictStorage interface {
	SaveConflict(ctx context.Context, conflict *models.SyncConflict) error

	// GetConflict returns ErrNotFound if conflict doesn't exist
	GetConflict(ctx context.Context, id string) (*models.SyncConflict, error)

	// ListConflicts возвращает конфликты, при unresolvedOnly - только неразрешённые
	ListConflicts(ctx context.Context, unresolvedOnly bool) ([]*models.SyncConflict, error)
}

// CacheStorage операции, которыми координатор поддерживает локальный кэш облачных строк
type CacheStorage interface {
	Upsert(ctx context.Context, table string, record models.Record) error
	Remove(ctx context.Context, table, id string) error
}
