package models

import (
	"encoding/json"
	"time"
)

// ConflictType класс расхождения, найденного при drain
type ConflictType string

const (
	// ConflictVersion облачная строка изменилась с момента локальной правки
	ConflictVersion ConflictType = "version"
	// ConflictDelete локальное удаление запрещено текущим состоянием облачной строки
	ConflictDelete ConflictType = "delete"
)

// Resolution способ разрешения конфликта
type Resolution string

const (
	ResolutionNone       Resolution = "none"
	ResolutionLocalWins  Resolution = "local_wins"
	ResolutionRemoteWins Resolution = "remote_wins"
	ResolutionManual     Resolution = "manual"
)

// Valid проверяет, что resolution применим вызывающей стороной
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionLocalWins, ResolutionRemoteWins, ResolutionManual:
		return true
	}
	return false
}

// SyncConflict фиксирует расхождение между локальной мутацией и облаком
type SyncConflict struct {
	CreatedAt     time.Time       `json:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	ID            string          `json:"id"`
	SyncJournalID string          `json:"sync_journal_id"`
	Table         string          `json:"table"`
	RecordID      string          `json:"record_id"`
	ConflictType  ConflictType    `json:"conflict_type"`
	Resolution    Resolution      `json:"resolution"`
	ResolvedBy    string          `json:"resolved_by,omitempty"`
	LocalData     json.RawMessage `json:"local_data"`
	RemoteData    json.RawMessage `json:"remote_data"`
	ResolvedData  json.RawMessage `json:"resolved_data,omitempty"`
}

// IsResolved возвращает true, если resolution уже выбран
func (c *SyncConflict) IsResolved() bool {
	return c.Resolution != "" && c.Resolution != ResolutionNone
}
