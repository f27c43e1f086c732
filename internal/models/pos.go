package models

import (
	"encoding/json"
	"fmt"
)

// Таблицы и статусы POS домена, с которыми работают составные операции облака
const (
	TableOrders    = "orders"
	TablePayments  = "payments"
	TableInventory = "inventory"
	TableStores    = "stores"
)

const (
	OrderStatusOpen      = "open"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"

	PaymentStatusPending  = "pending"
	PaymentStatusCaptured = "captured"
	PaymentStatusPaid     = "paid"
	PaymentStatusPartial  = "partial"

	StoreStatusInactive = "inactive"
)

// IsOrderFinal возвращает true, если заказ уже нельзя оплачивать
func IsOrderFinal(order Record) bool {
	switch order.String("status") {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CapturedCents суммирует захваченные платежи по заказу
func CapturedCents(orderID string, payments []Record) int64 {
	var sum int64
	for _, p := range payments {
		if p.String("order_id") != orderID || p.String("status") != PaymentStatusCaptured {
			continue
		}
		amount, _ := p.Int64("amount_cents")
		sum += amount
	}
	return sum
}

// IsOrderFullyPaid возвращает true, когда сумма captured платежей покрывает total_cents
func IsOrderFullyPaid(order Record, payments []Record) bool {
	total, ok := order.Int64("total_cents")
	if !ok {
		return false
	}
	return CapturedCents(order.ID(), payments) >= total
}

// InventoryID строит идентификатор строки остатков: store:product[:variant]
func InventoryID(storeID, productID, variantID string) string {
	id := storeID + ":" + productID
	if variantID != "" {
		id += ":" + variantID
	}
	return id
}

// OrderItems читает позиции заказа: [{product_id, variant_id?, quantity}]
func OrderItems(order Record) ([]TransferItem, error) {
	raw, ok := order["items"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}
	var items []TransferItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("malformed order items: %w", err)
	}
	return items, nil
}
