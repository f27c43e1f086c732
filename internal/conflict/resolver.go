package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

var (
	// ErrAlreadyResolved конфликт уже разрешён
	ErrAlreadyResolved = errors.New("conflict already resolved")

	// ErrInvalidResolution неизвестный способ разрешения
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrPayloadRequired manual резолюция без payload и без зарегистрированного merge
	ErrPayloadRequired = errors.New("manual resolution requires a payload or a registered merge function")
)

// JournalRunner edge хранилище, в транзакции которого фиксируется результат резолюции
type JournalRunner interface {
	WithJournal(ctx context.Context, fn func(tx storage.JournalTx) error) error
}

// Request параметры явного разрешения конфликта
type Request struct {
	Conflict   *models.SyncConflict
	Entry      *models.SyncJournalEntry
	Resolution models.Resolution
	ResolvedBy string
	Payload    json.RawMessage // только для manual
}

// Resolver определяет конфликты при drain и применяет выбранную вызывающей стороной резолюцию.
// Сам способ разрешения никогда не выбирается автоматически.
type Resolver struct {
	comparators map[string]Comparator
	guards      map[string]DeleteGuard
	merges      map[string]MergeFunc
	logger      *slog.Logger
	now         func() time.Time
	mu          sync.RWMutex
}

// NewResolver создает resolver без табличных настроек (везде DefaultComparator)
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		comparators: make(map[string]Comparator),
		guards:      make(map[string]DeleteGuard),
		merges:      make(map[string]MergeFunc),
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterComparator задаёт алгоритм обнаружения version конфликтов для таблицы
func (r *Resolver) RegisterComparator(table string, cmp Comparator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comparators[table] = cmp
}

// RegisterDeleteGuard задаёт правило delete конфликтов для таблицы
func (r *Resolver) RegisterDeleteGuard(table string, guard DeleteGuard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[table] = guard
}

// RegisterMerge задаёт merge функцию, используемую manual резолюцией без payload
func (r *Resolver) RegisterMerge(table string, merge MergeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges[table] = merge
}

func (r *Resolver) comparator(table string) Comparator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmp, ok := r.comparators[table]; ok {
		return cmp
	}
	return DefaultComparator
}

func (r *Resolver) deleteGuard(table string) DeleteGuard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guards[table]
}

func (r *Resolver) merge(table string) MergeFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.merges[table]
}

// NewConflict строит запись конфликта по результату Detect
func (r *Resolver) NewConflict(entry *models.SyncJournalEntry, det Detection, remote models.Record) (*models.SyncConflict, error) {
	remoteData, err := remote.Marshal()
	if err != nil {
		return nil, err
	}
	if remoteData == nil {
		remoteData = json.RawMessage("null")
	}
	return &models.SyncConflict{
		ID:            storage.NewID(),
		SyncJournalID: entry.ID,
		Table:         entry.Table,
		RecordID:      entry.RecordID,
		ConflictType:  det.Type,
		LocalData:     entry.Data,
		RemoteData:    remoteData,
		Resolution:    models.ResolutionNone,
		CreatedAt:     r.now().UTC(),
	}, nil
}

// Resolve применяет резолюцию: пишет итоговое состояние в облако и/или локально,
// после чего в одной edge транзакции помечает запись журнала synced и фиксирует конфликт.
func (r *Resolver) Resolve(ctx context.Context, cloud storage.Adapter, edge JournalRunner, req Request) (*models.SyncConflict, error) {
	if req.Conflict == nil || req.Entry == nil {
		return nil, fmt.Errorf("conflict and journal entry are required")
	}
	if req.Conflict.IsResolved() {
		return nil, ErrAlreadyResolved
	}
	if !req.Resolution.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResolution, req.Resolution)
	}

	entry := req.Entry
	var (
		resolved   json.RawMessage
		localWrite func(ctx context.Context, tx storage.JournalTx) error
	)

	switch req.Resolution {
	case models.ResolutionLocalWins:
		if err := r.pushLocal(ctx, cloud, entry); err != nil {
			return nil, err
		}
		resolved = entry.Data

	case models.ResolutionRemoteWins:
		remote, err := cloud.SelectOne(ctx, entry.Table, entry.RecordID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cloud record: %w", err)
		}
		resolved, err = remote.Marshal()
		if err != nil {
			return nil, err
		}
		localWrite = func(ctx context.Context, tx storage.JournalTx) error {
			if remote == nil {
				return tx.Remove(ctx, entry.Table, entry.RecordID)
			}
			return tx.Upsert(ctx, entry.Table, remote)
		}

	case models.ResolutionManual:
		payload, err := r.manualPayload(ctx, cloud, req)
		if err != nil {
			return nil, err
		}
		err = cloud.Transaction(ctx, func(tx storage.Tx) error {
			return storage.Replace(ctx, tx, entry.Table, payload)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write resolved record to cloud: %w", err)
		}
		resolved, err = payload.Marshal()
		if err != nil {
			return nil, err
		}
		localWrite = func(ctx context.Context, tx storage.JournalTx) error {
			return tx.Upsert(ctx, entry.Table, payload)
		}
	}

	if resolved == nil {
		resolved = json.RawMessage("null")
	}

	now := r.now().UTC()
	updatedEntry := entry.Clone()
	updatedEntry.Status = models.StatusSynced
	updatedEntry.SyncedAt = &now
	updatedEntry.LastAttempt = &now
	updatedEntry.Error = ""

	updatedConflict := *req.Conflict
	updatedConflict.Resolution = req.Resolution
	updatedConflict.ResolvedData = resolved
	updatedConflict.ResolvedAt = &now
	updatedConflict.ResolvedBy = req.ResolvedBy

	err := edge.WithJournal(ctx, func(tx storage.JournalTx) error {
		if localWrite != nil {
			if err := localWrite(ctx, tx); err != nil {
				return fmt.Errorf("failed to write resolved record locally: %w", err)
			}
		}
		if err := tx.PutJournalEntry(ctx, updatedEntry); err != nil {
			return err
		}
		return tx.PutConflict(ctx, &updatedConflict)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist resolution: %w", err)
	}

	r.logger.Info("Conflict resolved",
		"conflict_id", updatedConflict.ID,
		"journal_id", entry.ID,
		"table", entry.Table,
		"record_id", entry.RecordID,
		"resolution", req.Resolution,
		"resolved_by", req.ResolvedBy)

	*req.Entry = *updatedEntry
	return &updatedConflict, nil
}

// pushLocal делает облачную строку равной локальному снимку из журнала
func (r *Resolver) pushLocal(ctx context.Context, cloud storage.Adapter, entry *models.SyncJournalEntry) error {
	if entry.Operation == models.OperationDelete {
		if _, err := cloud.Delete(ctx, entry.Table, entry.RecordID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete cloud record: %w", err)
		}
		return nil
	}

	local, err := models.DecodeRecord(entry.Data)
	if err != nil {
		return err
	}
	if local == nil {
		return fmt.Errorf("%w: entry %s has no local snapshot", storage.ErrInvalidRecord, entry.ID)
	}
	local[models.FieldID] = entry.RecordID

	err = cloud.Transaction(ctx, func(tx storage.Tx) error {
		return storage.Replace(ctx, tx, entry.Table, local)
	})
	if err != nil {
		return fmt.Errorf("failed to write local snapshot to cloud: %w", err)
	}
	return nil
}

// manualPayload возвращает payload вызывающей стороны или результат зарегистрированного merge
func (r *Resolver) manualPayload(ctx context.Context, cloud storage.Adapter, req Request) (models.Record, error) {
	entry := req.Entry

	payload, err := models.DecodeRecord(req.Payload)
	if err != nil {
		return nil, err
	}

	if payload == nil {
		merge := r.merge(entry.Table)
		if merge == nil {
			return nil, ErrPayloadRequired
		}
		local, err := models.DecodeRecord(entry.Data)
		if err != nil {
			return nil, err
		}
		remote, err := cloud.SelectOne(ctx, entry.Table, entry.RecordID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cloud record: %w", err)
		}
		payload, err = merge(local, remote)
		if err != nil {
			return nil, fmt.Errorf("merge failed: %w", err)
		}
	}

	payload[models.FieldID] = entry.RecordID
	return models.NormalizeRecord(payload)
}
