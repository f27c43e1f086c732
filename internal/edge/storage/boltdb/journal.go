package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// SaveJournalEntry stores or updates a journal entry
func (s *Storage) SaveJournalEntry(ctx context.Context, entry *models.SyncJournalEntry) error {
	return s.update(ctx, func(t *boltTx) error {
		return t.PutJournalEntry(ctx, entry)
	})
}

// GetJournalEntry retrieves a journal entry by ID
func (s *Storage) GetJournalEntry(ctx context.Context, id string) (*models.SyncJournalEntry, error) {
	var entry *models.SyncJournalEntry

	err := s.view(ctx, func(t *boltTx) error {
		data := t.tx.Bucket(bucketJournal).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: journal entry %s", storage.ErrNotFound, id)
		}

		entry = &models.SyncJournalEntry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("failed to unmarshal journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListJournalEntries returns entries with the given statuses ordered by timestamp.
// No statuses means all entries.
func (s *Storage) ListJournalEntries(ctx context.Context, statuses ...models.JournalStatus) ([]*models.SyncJournalEntry, error) {
	want := make(map[models.JournalStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var entries []*models.SyncJournalEntry
	err := s.view(ctx, func(t *boltTx) error {
		return forEachEntry(t.tx, func(entry *models.SyncJournalEntry) error {
			if len(want) == 0 || want[entry.Status] {
				entries = append(entries, entry)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Before(entries[j])
	})
	return entries, nil
}

// JournalStats returns the number of journal entries per status
func (s *Storage) JournalStats(ctx context.Context) (map[models.JournalStatus]int, error) {
	stats := make(map[models.JournalStatus]int)
	err := s.view(ctx, func(t *boltTx) error {
		return forEachEntry(t.tx, func(entry *models.SyncJournalEntry) error {
			stats[entry.Status]++
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return stats, nil
}

// PurgeSyncedBefore удаляет synced записи, синхронизированные раньше before.
// Записи с конфликтами остаются: на них ссылается SyncConflict.
func (s *Storage) PurgeSyncedBefore(ctx context.Context, before time.Time) (int, error) {
	var purged int

	err := s.update(ctx, func(t *boltTx) error {
		referenced := make(map[string]bool)
		err := t.tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var c models.SyncConflict
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal conflict: %w", err)
			}
			referenced[c.SyncJournalID] = true
			return nil
		})
		if err != nil {
			return err
		}

		var victims [][]byte
		err = forEachEntry(t.tx, func(entry *models.SyncJournalEntry) error {
			if entry.Status != models.StatusSynced || referenced[entry.ID] {
				return nil
			}
			if entry.SyncedAt != nil && entry.SyncedAt.Before(before) {
				victims = append(victims, []byte(entry.ID))
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Удаляем после обхода: bbolt не допускает изменения bucket внутри ForEach
		b := t.tx.Bucket(bucketJournal)
		for _, key := range victims {
			if err := b.Delete(key); err != nil {
				return fmt.Errorf("failed to delete journal entry: %w", err)
			}
		}
		purged = len(victims)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge transaction failed: %w", err)
	}

	return purged, nil
}

func forEachEntry(tx *bbolt.Tx, fn func(entry *models.SyncJournalEntry) error) error {
	return tx.Bucket(bucketJournal).ForEach(func(k, v []byte) error {
		var entry models.SyncJournalEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal journal entry: %w", err)
		}
		return fn(&entry)
	})
}
