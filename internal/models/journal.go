package models

import (
	"encoding/json"
	"time"
)

// Operation тип мутации, записанной в журнал синхронизации
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid проверяет, что операция известна
func (o Operation) Valid() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// JournalStatus статус записи журнала
type JournalStatus string

const (
	StatusPending  JournalStatus = "pending"
	StatusSyncing  JournalStatus = "syncing"
	StatusSynced   JournalStatus = "synced"
	StatusConflict JournalStatus = "conflict"
	StatusFailed   JournalStatus = "failed"
)

// Drainable возвращает true для статусов, которые забирает drain loop
func (s JournalStatus) Drainable() bool {
	return s == StatusPending || s == StatusFailed
}

// SyncJournalEntry представляет одну мутацию, сделанную офлайн и ожидающую
// отправки в облако. Создаётся в той же локальной транзакции, что и запись строки.
type SyncJournalEntry struct {
	LastAttempt  *time.Time      `json:"last_attempt,omitempty"` // LastAttempt время последней попытки drain
	SyncedAt     *time.Time      `json:"synced_at,omitempty"`    // SyncedAt время успешной синхронизации
	CreatedAt    time.Time       `json:"created_at"`
	ID           string          `json:"id"`
	Operation    Operation       `json:"operation"`
	Table        string          `json:"table"`
	RecordID     string          `json:"record_id"`
	OriginNodeID string          `json:"origin_node_id"` // OriginNodeID edge узел, создавший запись
	Status       JournalStatus   `json:"status"`
	Checksum     string          `json:"checksum"` // Checksum хеш Data на момент постановки в очередь
	Error        string          `json:"error,omitempty"`
	Data         json.RawMessage `json:"data"`                // Data снимок строки после мутации (для delete - удалённая строка)
	BaseData     json.RawMessage `json:"base_data,omitempty"` // BaseData строка до мутации, nil для insert
	Timestamp    int64           `json:"timestamp"`           // Timestamp монотонное время создания, задаёт причинный порядок
	Attempts     int             `json:"attempts"`
}

// Before задаёт порядок drain: сначала Timestamp, затем ID для детерминизма
func (e *SyncJournalEntry) Before(other *SyncJournalEntry) bool {
	if e.Timestamp != other.Timestamp {
		return e.Timestamp < other.Timestamp
	}
	return e.ID < other.ID
}

// RecordKey ключ записи, в рамках которого соблюдается причинный порядок
func (e *SyncJournalEntry) RecordKey() string {
	return e.Table + "/" + e.RecordID
}

// Clone создает глубокую копию записи журнала
func (e *SyncJournalEntry) Clone() *SyncJournalEntry {
	out := *e
	out.Data = cloneRaw(e.Data)
	out.BaseData = cloneRaw(e.BaseData)
	if e.LastAttempt != nil {
		t := *e.LastAttempt
		out.LastAttempt = &t
	}
	if e.SyncedAt != nil {
		t := *e.SyncedAt
		out.SyncedAt = &t
	}
	return &out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
