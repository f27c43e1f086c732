package storage

import (
	"github.com/google/uuid"

	"github.com/iudanet/tillsync/internal/models"
)

// NewID генерирует глобально уникальный, упорядоченный по времени идентификатор (UUIDv7)
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 падает только при отказе источника случайности
		return uuid.New().String()
	}
	return id.String()
}

// EnsureID возвращает запись с id, генерируя его при отсутствии
func EnsureID(record models.Record) models.Record {
	out := record.Clone()
	if out == nil {
		out = models.Record{}
	}
	if out.ID() == "" {
		out[models.FieldID] = NewID()
	}
	return out
}
