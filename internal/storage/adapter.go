package storage

import (
	"context"

	"github.com/iudanet/tillsync/internal/models"
)

// Adapter общий CRUD контракт, который одинаково реализуют edge и cloud бэкенды
type Adapter interface {
	// Select возвращает строки, подходящие под фильтры, с сортировкой,
	// offset и limit. Отсутствие совпадений - пустой результат, не ошибка.
	Select(ctx context.Context, table string, opts *SelectOptions) (*Result, error)

	// SelectOne возвращает строку по id или nil, если её нет
	SelectOne(ctx context.Context, table, id string) (models.Record, error)

	// Insert сохраняет строку, генерируя id при его отсутствии
	Insert(ctx context.Context, table string, record models.Record) (models.Record, error)

	// InsertMany вставляет строки независимо друг от друга.
	// Ошибка одной строки исключает её из результата, но не прерывает остальные.
	InsertMany(ctx context.Context, table string, records []models.Record) ([]models.Record, error)

	// Update сливает поля patch в существующую строку.
	// Returns ErrNotFound if record doesn't exist
	Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error)

	// Delete удаляет строку и возвращает её id.
	// Returns ErrNotFound if record doesn't exist
	Delete(ctx context.Context, table, id string) (string, error)

	// Transaction выполняет fn атомарно: все записи через tx фиксируются
	// вместе или не фиксируются вовсе
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx контекст транзакции. Чтения через tx видят собственные незафиксированные записи.
type Tx interface {
	Select(ctx context.Context, table string, opts *SelectOptions) (*Result, error)
	SelectOne(ctx context.Context, table, id string) (models.Record, error)
	Insert(ctx context.Context, table string, record models.Record) (models.Record, error)
	Update(ctx context.Context, table, id string, patch models.Record) (models.Record, error)
	Delete(ctx context.Context, table, id string) (string, error)
}

// Result результат select: строки страницы и общее число совпадений
type Result struct {
	Data  []models.Record `json:"data"`
	Count int             `json:"count"`
}
