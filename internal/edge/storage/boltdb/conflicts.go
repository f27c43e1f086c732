package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// SaveConflict stores or updates a conflict
func (s *Storage) SaveConflict(ctx context.Context, conflict *models.SyncConflict) error {
	return s.update(ctx, func(t *boltTx) error {
		return t.PutConflict(ctx, conflict)
	})
}

// GetConflict retrieves a conflict by ID
func (s *Storage) GetConflict(ctx context.Context, id string) (*models.SyncConflict, error) {
	var conflict *models.SyncConflict

	err := s.view(ctx, func(t *boltTx) error {
		data := t.tx.Bucket(bucketConflicts).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: conflict %s", storage.ErrNotFound, id)
		}

		conflict = &models.SyncConflict{}
		if err := json.Unmarshal(data, conflict); err != nil {
			return fmt.Errorf("failed to unmarshal conflict: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conflict, nil
}

// ListConflicts returns conflicts ordered by creation time
func (s *Storage) ListConflicts(ctx context.Context, unresolvedOnly bool) ([]*models.SyncConflict, error) {
	var conflicts []*models.SyncConflict

	err := s.view(ctx, func(t *boltTx) error {
		return t.tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var c models.SyncConflict
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal conflict: %w", err)
			}
			if unresolvedOnly && c.IsResolved() {
				return nil
			}
			conflicts = append(conflicts, &c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].CreatedAt.Equal(conflicts[j].CreatedAt) {
			return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflicts, nil
}
