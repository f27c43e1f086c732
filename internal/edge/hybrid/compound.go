package hybrid

import (
	"context"

	"github.com/iudanet/tillsync/internal/models"
)

// CompleteOrderWithPayment выполняет составную операцию облака целиком.
// Офлайн не раскладывается на строковые записи и отклоняется.
func (c *Coordinator) CompleteOrderWithPayment(ctx context.Context, req models.CompleteOrderRequest) (*models.CompleteOrderResult, error) {
	if !c.IsOnline() {
		return nil, c.offlineError("complete order with payment")
	}
	if req.TenantID == "" {
		req.TenantID = c.tenantID
	}

	result, err := c.cloud.CompleteOrderWithPayment(ctx, req)
	if err != nil {
		return nil, err
	}

	c.refresh(ctx, models.TableOrders, result.OrderID)
	c.refresh(ctx, models.TablePayments, result.PaymentID)
	if req.ShouldDeductInventory() {
		c.refreshOrderInventory(ctx, result.OrderID)
	}
	return result, nil
}

// TransferInventory перемещает остатки между магазинами одной операцией облака
func (c *Coordinator) TransferInventory(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	if !c.IsOnline() {
		return nil, c.offlineError("transfer inventory")
	}
	if req.TenantID == "" {
		req.TenantID = c.tenantID
	}

	result, err := c.cloud.TransferInventory(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, t := range result.Transfers {
		c.refresh(ctx, models.TableInventory, models.InventoryID(req.FromStoreID, t.ProductID, t.VariantID))
		c.refresh(ctx, models.TableInventory, models.InventoryID(req.ToStoreID, t.ProductID, t.VariantID))
	}
	return result, nil
}

// refresh перечитывает строку из облака в локальный кэш
func (c *Coordinator) refresh(ctx context.Context, table, id string) {
	if id == "" {
		return
	}
	c.mirror("refresh", table, id, func() error {
		rec, err := c.cloud.SelectOne(ctx, table, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return c.edge.Remove(ctx, table, id)
		}
		return c.edge.Upsert(ctx, table, rec)
	})
}

func (c *Coordinator) refreshOrderInventory(ctx context.Context, orderID string) {
	order, err := c.edge.SelectOne(ctx, models.TableOrders, orderID)
	if err != nil || order == nil {
		return
	}
	items, err := models.OrderItems(order)
	if err != nil {
		c.logger.Warn("Failed to read order items for cache refresh", "order_id", orderID, "error", err)
		return
	}
	storeID := order.String("store_id")
	for _, item := range items {
		c.refresh(ctx, models.TableInventory, models.InventoryID(storeID, item.ProductID, item.VariantID))
	}
}
