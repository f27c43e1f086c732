package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// CompleteOrderWithPayment атомарно проверяет, что заказ можно оплатить, записывает платёж,
// закрывает заказ, выдаёт номер чека и (по умолчанию) списывает остатки позиций заказа.
// Любая ошибка откатывает всё.
func (t *TenantStore) CompleteOrderWithPayment(ctx context.Context, req models.CompleteOrderRequest) (*models.CompleteOrderResult, error) {
	if err := t.checkTenant(req.TenantID); err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", storage.ErrInvalidRecord)
	}
	amount, ok := req.Payment.Int64("amount_cents")
	if !ok || amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount_cents must be a positive integer", storage.ErrInvalidRecord)
	}

	var result *models.CompleteOrderResult

	err := t.inTx(ctx, func(tx *sql.Tx, ops *rowOps) error {
		order, err := ops.SelectOne(ctx, models.TableOrders, req.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: order %s", storage.ErrNotFound, req.OrderID)
		}
		if models.IsOrderFinal(order) {
			return fmt.Errorf("%w: order %s is %s", storage.ErrOrderNotPayable, req.OrderID, order.String("status"))
		}

		total, _ := order.Int64("total_cents")
		paid, _ := order.Int64("paid_cents")
		outstanding := total - paid
		if amount < outstanding {
			return fmt.Errorf("%w: amount %d is less than outstanding balance %d",
				storage.ErrInsufficientBalance, amount, outstanding)
		}

		payment := storage.EnsureID(req.Payment)
		payment["order_id"] = req.OrderID
		payment["status"] = models.PaymentStatusCaptured
		payment, err = ops.Insert(ctx, models.TablePayments, payment)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		receipt, err := t.nextReceiptNumber(ctx, tx)
		if err != nil {
			return err
		}

		_, err = ops.Update(ctx, models.TableOrders, req.OrderID, models.Record{
			"status":         models.OrderStatusCompleted,
			"payment_status": models.PaymentStatusPaid,
			"paid_cents":     paid + amount,
			"receipt_number": receipt,
			"completed_at":   t.s.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if req.ShouldDeductInventory() {
			if err := deductOrderItems(ctx, ops, order); err != nil {
				return err
			}
		}

		result = &models.CompleteOrderResult{
			Success:       true,
			OrderID:       req.OrderID,
			PaymentID:     payment.ID(),
			ReceiptNumber: receipt,
			OrderStatus:   models.OrderStatusCompleted,
			PaymentStatus: models.PaymentStatusPaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.s.logger.Info("Order completed",
		"tenant_id", t.tenant,
		"order_id", result.OrderID,
		"payment_id", result.PaymentID,
		"receipt_number", result.ReceiptNumber)
	return result, nil
}

// nextReceiptNumber выдаёт номер чека R-YYYYMMDD-NNNNNN из счётчика tenant
func (t *TenantStore) nextReceiptNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	query := `
		INSERT INTO receipt_counters (tenant_id, next) VALUES (?, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET next = next + 1
		RETURNING next
	`

	var seq int64
	if err := tx.QueryRowContext(ctx, query, t.tenant).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate receipt number: %w", err)
	}
	return fmt.Sprintf("R-%s-%06d", t.s.now().UTC().Format("20060102"), seq), nil
}

// deductOrderItems списывает позиции заказа с остатков магазина заказа
func deductOrderItems(ctx context.Context, ops *rowOps, order models.Record) error {
	items, err := orderItems(order)
	if err != nil {
		return err
	}
	storeID := order.String("store_id")

	for _, item := range items {
		id := models.InventoryID(storeID, item.ProductID, item.VariantID)
		row, err := ops.SelectOne(ctx, models.TableInventory, id)
		if err != nil {
			return err
		}
		var have int64
		if row != nil {
			have, _ = row.Int64("quantity")
		}
		if row == nil || have < item.Quantity {
			return fmt.Errorf("%w: %s has %d, need %d", storage.ErrInsufficientStock, id, have, item.Quantity)
		}
		if _, err := ops.Update(ctx, models.TableInventory, id, models.Record{"quantity": have - item.Quantity}); err != nil {
			return fmt.Errorf("failed to deduct inventory: %w", err)
		}
	}
	return nil
}

// orderItems читает items заказа
func orderItems(order models.Record) ([]models.TransferItem, error) {
	items, err := models.OrderItems(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}
	return items, nil
}

// TransferInventory атомарно перемещает остатки между магазинами tenant.
// Нехватка остатка по любой позиции откатывает перемещение целиком.
func (t *TenantStore) TransferInventory(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	if err := t.checkTenant(req.TenantID); err != nil {
		return nil, err
	}
	if req.FromStoreID == "" || req.ToStoreID == "" || req.FromStoreID == req.ToStoreID {
		return nil, fmt.Errorf("%w: transfer requires two different stores", storage.ErrInvalidRecord)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: transfer has no items", storage.ErrInvalidRecord)
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: transfer item needs product_id and positive quantity", storage.ErrInvalidRecord)
		}
	}

	result := &models.TransferResult{TransferID: storage.NewID()}

	err := t.inTx(ctx, func(tx *sql.Tx, ops *rowOps) error {
		for _, storeID := range []string{req.FromStoreID, req.ToStoreID} {
			if err := checkStore(ctx, ops, storeID); err != nil {
				return err
			}
		}

		for _, item := range req.Items {
			moved, err := moveItem(ctx, ops, req.FromStoreID, req.ToStoreID, item)
			if err != nil {
				return err
			}
			result.Transfers = append(result.Transfers, *moved)
		}

		items, err := json.Marshal(req.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal transfer items: %w", err)
		}
		query := `
			INSERT INTO inventory_transfers (id, tenant_id, from_store_id, to_store_id, employee_id, notes, items, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			result.TransferID,
			t.tenant,
			req.FromStoreID,
			req.ToStoreID,
			nullString(req.EmployeeID),
			nullString(req.Notes),
			string(items),
			t.s.now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to record transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.ItemsTransferred = len(result.Transfers)

	t.s.logger.Info("Inventory transferred",
		"tenant_id", t.tenant,
		"transfer_id", result.TransferID,
		"from_store_id", req.FromStoreID,
		"to_store_id", req.ToStoreID,
		"items", result.ItemsTransferred)
	return result, nil
}

func checkStore(ctx context.Context, ops *rowOps, storeID string) error {
	store, err := ops.SelectOne(ctx, models.TableStores, storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: store %s not found", storage.ErrStoreInaccessible, storeID)
	}
	if store.String("status") == models.StoreStatusInactive {
		return fmt.Errorf("%w: store %s is inactive", storage.ErrStoreInaccessible, storeID)
	}
	return nil
}

func moveItem(ctx context.Context, ops *rowOps, from, to string, item models.TransferItem) (*models.ItemTransfer, error) {
	srcID := models.InventoryID(from, item.ProductID, item.VariantID)
	dstID := models.InventoryID(to, item.ProductID, item.VariantID)

	src, err := ops.SelectOne(ctx, models.TableInventory, srcID)
	if err != nil {
		return nil, err
	}
	var srcQty int64
	if src != nil {
		srcQty, _ = src.Int64("quantity")
	}
	if src == nil || srcQty < item.Quantity {
		return nil, fmt.Errorf("%w: %s has %d, need %d", storage.ErrInsufficientStock, srcID, srcQty, item.Quantity)
	}

	dst, err := ops.SelectOne(ctx, models.TableInventory, dstID)
	if err != nil {
		return nil, err
	}
	var dstQty int64
	if dst == nil {
		row := models.Record{
			models.FieldID: dstID,
			"store_id":     to,
			"product_id":   item.ProductID,
			"quantity":     0,
		}
		if item.VariantID != "" {
			row["variant_id"] = item.VariantID
		}
		if _, err := ops.Insert(ctx, models.TableInventory, row); err != nil {
			return nil, fmt.Errorf("failed to create destination inventory: %w", err)
		}
	} else {
		dstQty, _ = dst.Int64("quantity")
	}

	if _, err := ops.Update(ctx, models.TableInventory, srcID, models.Record{"quantity": srcQty - item.Quantity}); err != nil {
		return nil, fmt.Errorf("failed to decrement source inventory: %w", err)
	}
	if _, err := ops.Update(ctx, models.TableInventory, dstID, models.Record{"quantity": dstQty + item.Quantity}); err != nil {
		return nil, fmt.Errorf("failed to increment destination inventory: %w", err)
	}

	return &models.ItemTransfer{
		ProductID:          item.ProductID,
		VariantID:          item.VariantID,
		Quantity:           item.Quantity,
		FromQuantityBefore: srcQty,
		FromQuantityAfter:  srcQty - item.Quantity,
		ToQuantityBefore:   dstQty,
		ToQuantityAfter:    dstQty + item.Quantity,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
