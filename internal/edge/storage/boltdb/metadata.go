package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	keyNodeID     = "node_id"
	keyLastSyncAt = "last_sync_at"
)

// NodeID возвращает стабильный идентификатор узла, создавая его при первом вызове
func (s *Storage) NodeID(ctx context.Context) (string, error) {
	var nodeID string

	err := s.update(ctx, func(t *boltTx) error {
		bucket := t.tx.Bucket(bucketMeta)
		if v := bucket.Get([]byte(keyNodeID)); v != nil {
			nodeID = string(v)
			return nil
		}

		nodeID = uuid.NewString()
		if err := bucket.Put([]byte(keyNodeID), []byte(nodeID)); err != nil {
			return fmt.Errorf("failed to save node id: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return nodeID, nil
}

// SetNodeID сохраняет идентификатор узла, заданный конфигурацией
func (s *Storage) SetNodeID(ctx context.Context, nodeID string) error {
	return s.update(ctx, func(t *boltTx) error {
		return t.tx.Bucket(bucketMeta).Put([]byte(keyNodeID), []byte(nodeID))
	})
}

// SaveLastSyncAt saves the time of the last successful drain pass
func (s *Storage) SaveLastSyncAt(ctx context.Context, at time.Time) error {
	return s.update(ctx, func(t *boltTx) error {
		// Конвертируем время в bytes
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(at.UnixNano()))

		if err := t.tx.Bucket(bucketMeta).Put([]byte(keyLastSyncAt), buf); err != nil {
			return fmt.Errorf("failed to save last sync time: %w", err)
		}
		return nil
	})
}

// GetLastSyncAt retrieves the time of the last successful drain pass
// Returns zero time if no sync has been performed yet
func (s *Storage) GetLastSyncAt(ctx context.Context) (time.Time, error) {
	var at time.Time

	err := s.view(ctx, func(t *boltTx) error {
		buf := t.tx.Bucket(bucketMeta).Get([]byte(keyLastSyncAt))
		if buf == nil {
			// Синхронизации ещё не было
			return nil
		}
		at = time.Unix(0, int64(binary.BigEndian.Uint64(buf))).UTC()
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return at, nil
}
