package cloud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/tillsync/internal/models"
)

// CompleteOrderWithPayment атомарно проводит оплату и завершает заказ на сервере
func (c *Client) CompleteOrderWithPayment(ctx context.Context, req models.CompleteOrderRequest) (*models.CompleteOrderResult, error) {
	var resp models.CompleteOrderResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/rpc/complete-order", req, &resp); err != nil {
		return nil, fmt.Errorf("complete order %s failed: %w", req.OrderID, err)
	}
	return &resp, nil
}

// TransferInventory атомарно перемещает остатки между магазинами
func (c *Client) TransferInventory(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	var resp models.TransferResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/rpc/transfer-inventory", req, &resp); err != nil {
		return nil, fmt.Errorf("transfer inventory failed: %w", err)
	}
	return &resp, nil
}

// SyncBatchOperations отправляет пачку записей журнала.
// Исход каждой записи - в BatchResult.Results.
func (c *Client) SyncBatchOperations(ctx context.Context, req models.SyncBatchRequest) (*models.BatchResult, error) {
	var resp models.BatchResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/rpc/sync-batch", req, &resp); err != nil {
		return nil, fmt.Errorf("sync batch failed: %w", err)
	}
	return &resp, nil
}
