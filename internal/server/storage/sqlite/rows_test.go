package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

func TestTenantStore_CRUD(t *testing.T) {
	ctx := context.Background()
	ts := setupTenant(t, "acme")

	rec, err := ts.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1000,"status":"open"}`))
	require.NoError(t, err)
	assert.Equal(t, "o1", rec.ID())

	_, err = ts.Insert(ctx, models.TableOrders, record(t, `{"id":"o1"}`))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := ts.SelectOne(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	missing, err := ts.SelectOne(ctx, models.TableOrders, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	merged, err := ts.Update(ctx, models.TableOrders, "o1", models.Record{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", merged.String("status"))
	total, _ := merged.Int64("total_cents")
	assert.Equal(t, int64(1000), total)

	_, err = ts.Update(ctx, models.TableOrders, "nope", models.Record{"status": "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	id, err := ts.Delete(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", id)

	_, err = ts.Delete(ctx, models.TableOrders, "o1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTenantStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	acme, err := s.ForTenant("acme")
	require.NoError(t, err)
	globex, err := s.ForTenant("globex")
	require.NoError(t, err)

	_, err = acme.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1}`))
	require.NoError(t, err)
	// тот же id у другого tenant - отдельная строка
	_, err = globex.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":2}`))
	require.NoError(t, err)

	res, err := globex.Select(ctx, models.TableOrders, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	total, _ := res.Data[0].Int64("total_cents")
	assert.Equal(t, int64(2), total)

	_, err = globex.Delete(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	still, err := acme.SelectOne(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestTenantStore_SelectAndInsertMany(t *testing.T) {
	ctx := context.Background()
	ts := setupTenant(t, "acme")

	inserted, err := ts.InsertMany(ctx, models.TablePayments, []models.Record{
		record(t, `{"id":"p1","order_id":"o1","amount_cents":1500,"status":"captured"}`),
		record(t, `{"id":"p1","order_id":"o1","amount_cents":1}`), // дубликат
		record(t, `{"id":"p2","order_id":"o1","amount_cents":1500,"status":"captured"}`),
		record(t, `{"id":"p3","order_id":"o2","amount_cents":700,"status":"pending"}`),
	})
	require.NoError(t, err)
	assert.Len(t, inserted, 3)

	opts := (&storage.SelectOptions{}).
		Where("order_id", storage.OpEq, "o1").
		Where("status", storage.OpIn, []any{"captured"}).
		Sort("id", true)
	res, err := ts.Select(ctx, models.TablePayments, opts)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "p2", res.Data[0].ID())

	order := record(t, `{"id":"o1","total_cents":3000}`)
	assert.True(t, models.IsOrderFullyPaid(order, res.Data))

	_, err = ts.Select(ctx, "Bad Table", nil)
	assert.ErrorIs(t, err, storage.ErrInvalidRecord)
}

func TestTenantStore_Transaction(t *testing.T) {
	ctx := context.Background()
	ts := setupTenant(t, "acme")

	_, err := ts.Insert(ctx, models.TableOrders, record(t, `{"id":"o1","total_cents":1000}`))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = ts.Transaction(ctx, func(tx storage.Tx) error {
		if _, err := tx.Update(ctx, models.TableOrders, "o1", models.Record{"total_cents": 5}); err != nil {
			return err
		}
		if _, err := tx.Insert(ctx, models.TableOrders, record(t, `{"id":"o2"}`)); err != nil {
			return err
		}
		// собственные записи видны
		o2, err := tx.SelectOne(ctx, models.TableOrders, "o2")
		if err != nil {
			return err
		}
		if o2 == nil {
			return errors.New("own write not visible")
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	o1, err := ts.SelectOne(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	total, _ := o1.Int64("total_cents")
	assert.Equal(t, int64(1000), total)

	o2, err := ts.SelectOne(ctx, models.TableOrders, "o2")
	require.NoError(t, err)
	assert.Nil(t, o2)

	err = ts.Transaction(ctx, func(tx storage.Tx) error {
		return storage.Replace(ctx, tx, models.TableOrders, record(t, `{"id":"o1","total_cents":1500}`))
	})
	require.NoError(t, err)

	o1, err = ts.SelectOne(ctx, models.TableOrders, "o1")
	require.NoError(t, err)
	assert.Equal(t, record(t, `{"id":"o1","total_cents":1500}`), o1)
}
