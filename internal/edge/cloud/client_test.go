package cloud

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/crypto"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/server"
	"github.com/iudanet/tillsync/internal/server/handlers"
	"github.com/iudanet/tillsync/internal/server/storage/sqlite"
	"github.com/iudanet/tillsync/internal/storage"
)

var testJWT = handlers.JWTConfig{Secret: []byte("cloud-client-secret"), TokenTTL: time.Hour}

// setupTestCloud поднимает настоящий сервер tillsync на in-memory sqlite
func setupTestCloud(t *testing.T) (*Client, *sqlite.TenantStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.New(context.Background(), ":memory:", sqlite.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		Logger: logger,
		Stores: server.SQLiteTenants(db),
		DB:     db,
		JWT:    testJWT,
	}))
	t.Cleanup(srv.Close)

	token, err := handlers.GenerateTenantToken(testJWT, "acme", "till-1")
	require.NoError(t, err)

	ts, err := db.ForTenant("acme")
	require.NoError(t, err)
	return New(srv.URL, token), ts
}

func TestClient_Health(t *testing.T) {
	c, _ := setupTestCloud(t)

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestClient_RowOperations(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	row, err := c.Insert(ctx, "products", models.Record{"name": "Coffee", "price_cents": 350})
	require.NoError(t, err)
	id := row.ID()
	require.NotEmpty(t, id, "id is generated when missing")

	stored, err := ts.SelectOne(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", stored.String("name"))

	_, err = c.Insert(ctx, "products", models.Record{"id": id})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	updated, err := c.Update(ctx, "products", id, models.Record{"price_cents": 400})
	require.NoError(t, err)
	price, _ := updated.Int64("price_cents")
	assert.Equal(t, int64(400), price)

	_, err = c.Update(ctx, "products", "missing", models.Record{"price_cents": 1})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := c.SelectOne(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.String("name"))

	deleted, err := c.Delete(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, id, deleted)

	got, err = c.SelectOne(ctx, "products", id)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = c.Delete(ctx, "products", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_SelectAndInsertMany(t *testing.T) {
	ctx := context.Background()
	c, _ := setupTestCloud(t)

	rows, err := c.InsertMany(ctx, "products", []models.Record{
		{"id": "a", "category": "drinks", "price_cents": 300},
		{"id": "b", "category": "food", "price_cents": 500},
		{"id": "c", "category": "drinks", "price_cents": 200},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	opts := (&storage.SelectOptions{}).
		Where("category", storage.OpEq, "drinks").
		Sort("price_cents", false)
	res, err := c.Select(ctx, "products", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "c", res.Data[0].ID())

	res, err = c.Select(ctx, "products", (&storage.SelectOptions{}).Where("id", storage.OpIn, []any{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	_, err = c.Select(ctx, "products", &storage.SelectOptions{Filters: []storage.Filter{{Column: "x", Op: "~"}}})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestClient_Transaction_ReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	_, err := ts.Insert(ctx, "customers", models.Record{"id": "c1", "name": "Ann", "tier": "gold"})
	require.NoError(t, err)

	err = c.Transaction(ctx, func(tx storage.Tx) error {
		if _, err := tx.Insert(ctx, "customers", models.Record{"id": "c2", "name": "Bob", "tier": "gold"}); err != nil {
			return err
		}
		if _, err := tx.Update(ctx, "customers", "c1", models.Record{"tier": "silver"}); err != nil {
			return err
		}

		row, err := tx.SelectOne(ctx, "customers", "c2")
		require.NoError(t, err)
		assert.Equal(t, "Bob", row.String("name"))

		res, err := tx.Select(ctx, "customers", (&storage.SelectOptions{}).Where("tier", storage.OpEq, "gold"))
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "c2", res.Data[0].ID())

		_, err = tx.Insert(ctx, "customers", models.Record{"id": "c1"})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		// Ничего не отправлено до фиксации
		remote, err := ts.SelectOne(ctx, "customers", "c2")
		require.NoError(t, err)
		assert.Nil(t, remote)
		return nil
	})
	require.NoError(t, err)

	c1, err := ts.SelectOne(ctx, "customers", "c1")
	require.NoError(t, err)
	assert.Equal(t, "silver", c1.String("tier"))
	c2, err := ts.SelectOne(ctx, "customers", "c2")
	require.NoError(t, err)
	assert.NotNil(t, c2)
}

func TestClient_Transaction_Rollback(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	errAbort := errors.New("abort")
	err := c.Transaction(ctx, func(tx storage.Tx) error {
		if _, err := tx.Insert(ctx, "customers", models.Record{"id": "c1"}); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	row, err := ts.SelectOne(ctx, "customers", "c1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestClient_Transaction_ReplaceDeleteThenInsert(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	_, err := ts.Insert(ctx, "inventory", models.Record{"id": "s1:p1", "quantity": 5, "note": "stale"})
	require.NoError(t, err)

	err = c.Transaction(ctx, func(tx storage.Tx) error {
		return storage.Replace(ctx, tx, "inventory", models.Record{"id": "s1:p1", "quantity": 9})
	})
	require.NoError(t, err)

	row, err := ts.SelectOne(ctx, "inventory", "s1:p1")
	require.NoError(t, err)
	q, _ := row.Int64("quantity")
	assert.Equal(t, int64(9), q)
	_, hasNote := row["note"]
	assert.False(t, hasNote)
}

func TestClient_CompoundOperations(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	for _, rec := range []models.Record{
		{"id": "s1", "status": "active"},
		{"id": "s2", "status": "active"},
		{"id": "s3", "status": "inactive"},
	} {
		_, err := ts.Insert(ctx, models.TableStores, rec)
		require.NoError(t, err)
	}
	_, err := ts.Insert(ctx, models.TableInventory, models.Record{"id": "s1:p1", "quantity": 10})
	require.NoError(t, err)
	_, err = ts.Insert(ctx, models.TableOrders, models.Record{
		"id": "o1", "store_id": "s1", "status": "open", "total_cents": 1200, "paid_cents": 0,
		"items": []any{map[string]any{"product_id": "p1", "quantity": 2}},
	})
	require.NoError(t, err)

	res, err := c.CompleteOrderWithPayment(ctx, models.CompleteOrderRequest{
		OrderID: "o1",
		Payment: models.Record{"amount_cents": 1200, "method": "card"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.OrderStatusCompleted, res.OrderStatus)

	_, err = c.CompleteOrderWithPayment(ctx, models.CompleteOrderRequest{
		OrderID: "o1",
		Payment: models.Record{"amount_cents": 1200},
	})
	assert.ErrorIs(t, err, storage.ErrOrderNotPayable)

	tr, err := c.TransferInventory(ctx, models.TransferRequest{
		FromStoreID: "s1",
		ToStoreID:   "s2",
		Items:       []models.TransferItem{{ProductID: "p1", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.ItemsTransferred)
	require.Len(t, tr.Transfers, 1)
	assert.Equal(t, int64(8), tr.Transfers[0].FromQuantityBefore, "2 units deducted by the completed order")
	assert.Equal(t, int64(3), tr.Transfers[0].ToQuantityAfter)

	_, err = c.TransferInventory(ctx, models.TransferRequest{
		FromStoreID: "s1",
		ToStoreID:   "s3",
		Items:       []models.TransferItem{{ProductID: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, storage.ErrStoreInaccessible)

	_, err = c.TransferInventory(ctx, models.TransferRequest{
		FromStoreID: "s1",
		ToStoreID:   "s2",
		Items:       []models.TransferItem{{ProductID: "p1", Quantity: 100}},
	})
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)
}

func TestClient_SyncBatchOperations(t *testing.T) {
	ctx := context.Background()
	c, ts := setupTestCloud(t)

	data := []byte(`{"id":"c1","name":"Ann"}`)
	sum, err := crypto.Checksum(data)
	require.NoError(t, err)

	entry := &models.SyncJournalEntry{
		ID:        "j1",
		Operation: models.OperationInsert,
		Table:     "customers",
		RecordID:  "c1",
		Data:      data,
		Checksum:  sum,
		Status:    models.StatusSyncing,
		Timestamp: 1,
	}

	res, err := c.SyncBatchOperations(ctx, models.SyncBatchRequest{Entries: []*models.SyncJournalEntry{entry}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Synced)
	require.Len(t, res.Results, 1)
	assert.Equal(t, models.StatusSynced, res.Results[0].Status)

	row, err := ts.SelectOne(ctx, "customers", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", row.String("name"))

	// Повторная отправка той же записи идемпотентна
	res, err = c.SyncBatchOperations(ctx, models.SyncBatchRequest{Entries: []*models.SyncJournalEntry{entry}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, "already applied", res.Results[0].Message)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		body    string
		status  int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"code":"internal","message":"boom"}`, wantErr: storage.ErrTransient},
		{name: "gateway html", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantErr: storage.ErrTransient},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"code":"rate_limited","message":"slow down"}`, wantErr: storage.ErrTransient},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"code":"unauthorized","message":"invalid token"}`, wantErr: ErrUnauthorized},
		{name: "policy", status: http.StatusForbidden, body: `{"code":"policy_violation","message":"no"}`, wantErr: storage.ErrPolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "token").SelectOne(context.Background(), "orders", "o1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "token", WithTimeout(time.Second)).SelectOne(context.Background(), "orders", "o1")
	assert.ErrorIs(t, err, storage.ErrTransient)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	row, err := New(srv.URL+"/", "secret-token").SelectOne(context.Background(), "orders", "o1")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}
