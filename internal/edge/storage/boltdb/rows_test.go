package boltdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

func TestStorage_InsertAndSelectOne(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	t.Run("explicit id", func(t *testing.T) {
		rec, err := store.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1000}`))
		require.NoError(t, err)
		assert.Equal(t, "o1", rec.ID())

		got, err := store.SelectOne(ctx, models.TableOrders, "o1")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("generated id", func(t *testing.T) {
		rec, err := store.Insert(ctx, models.TableOrders, models.Record{"total_cents": 5})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID())

		got, err := store.SelectOne(ctx, models.TableOrders, rec.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := store.Insert(ctx, models.TableOrders, record(t, `{"id":"o1"}`))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})

	t.Run("absent row is not an error", func(t *testing.T) {
		got, err := store.SelectOne(ctx, models.TableOrders, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.SelectOne(ctx, "never_written", "x")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalid table", func(t *testing.T) {
		_, err := store.Insert(ctx, "Bad-Table", record(t, `{"id":"x"}`))
		assert.ErrorIs(t, err, storage.ErrInvalidRecord)
	})
}

func TestStorage_Update(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1000,"status":"open"}`))
	require.NoError(t, err)

	merged, err := store.Update(ctx, models.TableOrders, "o1", record(t, `{"status":"completed","id":"other"}`))
	require.NoError(t, err)
	assert.Equal(t, "o1", merged.ID())
	assert.Equal(t, "completed", merged.String("status"))
	total, _ := merged.Int64("total_cents")
	assert.Equal(t, int64(1000), total)

	_, err = store.Update(ctx, models.TableOrders, "missing", record(t, `{"status":"x"}`))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.Insert(ctx, models.TableOrders, record(t, `{"id":"o1"}`))
	require.NoError(t, err)

	id, err := store.Delete(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", id)

	_, err = store.Delete(ctx, models.TableOrders, "o1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Remove идемпотентен
	require.NoError(t, store.Remove(ctx, models.TableOrders, "o1"))
	require.NoError(t, store.Remove(ctx, "never_written", "o1"))
}

func TestStorage_InsertMany(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.Insert(ctx, models.TablePayments, record(t, `{"id":"p2"}`))
	require.NoError(t, err)

	inserted, err := store.InsertMany(ctx, models.TablePayments, []models.Record{
		record(t, `{"id":"p1","amount_cents":1500}`),
		record(t, `{"id":"p2","amount_cents":1500}`), // уже существует
		record(t, `{"id":"p3","amount_cents":1500}`),
	})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, "p1", inserted[0].ID())
	assert.Equal(t, "p3", inserted[1].ID())

	res, err := store.Select(ctx, models.TablePayments, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
}

func TestStorage_Select(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for _, s := range []string{
		`{"id":"o1","store_id":"s1","total_cents":300,"status":"open"}`,
		`{"id":"o2","store_id":"s1","total_cents":100,"status":"completed"}`,
		`{"id":"o3","store_id":"s2","total_cents":200,"status":"open"}`,
		`{"id":"o4","store_id":"s1","total_cents":200,"status":"open"}`,
	} {
		_, err := store.Insert(ctx, models.TableOrders, record(t, s))
		require.NoError(t, err)
	}

	opts := (&storage.SelectOptions{Limit: 2}).
		Where("store_id", storage.OpEq, "s1").
		Sort("total_cents", true).
		Sort("id", false)

	res, err := store.Select(ctx, models.TableOrders, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "o1", res.Data[0].ID())
	assert.Equal(t, "o4", res.Data[1].ID())

	res, err = store.Select(ctx, "empty_table", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.Data)

	_, err = store.Select(ctx, models.TableOrders, (&storage.SelectOptions{}).Where("id", "~", "x"))
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStorage_Transaction(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.Insert(ctx, models.TableInventory, record(t, `{"id":"s1:p1","quantity":10}`))
	require.NoError(t, err)

	t.Run("commit and read own writes", func(t *testing.T) {
		err := store.Transaction(ctx, func(tx storage.Tx) error {
			if _, err := tx.Update(ctx, models.TableInventory, "s1:p1", models.Record{"quantity": 7}); err != nil {
				return err
			}
			if _, err := tx.Insert(ctx, models.TableInventory, models.Record{"id": "s2:p1", "quantity": 3}); err != nil {
				return err
			}

			// внутри транзакции видны собственные записи
			rec, err := tx.SelectOne(ctx, models.TableInventory, "s2:p1")
			if err != nil {
				return err
			}
			if rec == nil {
				return errors.New("own write not visible")
			}
			res, err := tx.Select(ctx, models.TableInventory, nil)
			if err != nil {
				return err
			}
			if res.Count != 2 {
				return errors.New("unexpected count inside tx")
			}
			return nil
		})
		require.NoError(t, err)

		rec, err := store.SelectOne(ctx, models.TableInventory, "s1:p1")
		require.NoError(t, err)
		q, _ := rec.Int64("quantity")
		assert.Equal(t, int64(7), q)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Transaction(ctx, func(tx storage.Tx) error {
			if _, err := tx.Update(ctx, models.TableInventory, "s1:p1", models.Record{"quantity": 0}); err != nil {
				return err
			}
			if _, err := tx.Delete(ctx, models.TableInventory, "s2:p1"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		rec, err := store.SelectOne(ctx, models.TableInventory, "s1:p1")
		require.NoError(t, err)
		q, _ := rec.Int64("quantity")
		assert.Equal(t, int64(7), q)

		rec, err = store.SelectOne(ctx, models.TableInventory, "s2:p1")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})
}

func TestStorage_Upsert(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.Upsert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1,"note":"a"}`)))
	require.NoError(t, store.Upsert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":2}`)))

	rec, err := store.SelectOne(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	// Upsert заменяет строку целиком, поле note пропадает
	assert.Equal(t, record(t, `{"id":"o1","total_cents":2}`), rec)

	err = store.Upsert(ctx, models.TableOrders, models.Record{"total_cents": 3})
	assert.ErrorIs(t, err, storage.ErrInvalidRecord)
}
