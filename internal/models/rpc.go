package models

import "encoding/json"

// CompleteOrderRequest входные данные атомарного завершения заказа с оплатой
type CompleteOrderRequest struct {
	Payment         Record `json:"payment_data"`
	DeductInventory *bool  `json:"deduct_inventory,omitempty"` // nil - списывать
	OrderID         string `json:"order_id"`
	TenantID        string `json:"tenant_id,omitempty"`
}

// ShouldDeductInventory возвращает true, если нужно списать остатки (по умолчанию да)
func (r *CompleteOrderRequest) ShouldDeductInventory() bool {
	return r.DeductInventory == nil || *r.DeductInventory
}

// CompleteOrderResult результат completeOrderWithPayment
type CompleteOrderResult struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	ReceiptNumber string `json:"receipt_number"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
	Success       bool   `json:"success"`
}

// TransferItem одна позиция перемещения остатков
type TransferItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// TransferRequest входные данные атомарного перемещения остатков между магазинами
type TransferRequest struct {
	FromStoreID string         `json:"from_store_id"`
	ToStoreID   string         `json:"to_store_id"`
	TenantID    string         `json:"tenant_id,omitempty"`
	EmployeeID  string         `json:"employee_id,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Items       []TransferItem `json:"items"`
}

// ItemTransfer остатки до и после перемещения одной позиции
type ItemTransfer struct {
	ProductID          string `json:"product_id"`
	VariantID          string `json:"variant_id,omitempty"`
	Quantity           int64  `json:"quantity"`
	FromQuantityBefore int64  `json:"from_quantity_before"`
	FromQuantityAfter  int64  `json:"from_quantity_after"`
	ToQuantityBefore   int64  `json:"to_quantity_before"`
	ToQuantityAfter    int64  `json:"to_quantity_after"`
}

// TransferResult результат transferInventory
type TransferResult struct {
	TransferID       string         `json:"transfer_id"`
	Transfers        []ItemTransfer `json:"transfers"`
	ItemsTransferred int            `json:"items_transferred"`
	Success          bool           `json:"success"`
}

// SyncBatchRequest пакет записей журнала одного edge узла
type SyncBatchRequest struct {
	TenantID     string              `json:"tenant_id,omitempty"`
	OriginNodeID string              `json:"origin_node_id"`
	Entries      []*SyncJournalEntry `json:"entries"`
}

// BatchOutcome исход применения одной записи пакета
type BatchOutcome struct {
	ID      string        `json:"id"`
	Status  JournalStatus `json:"status"` // synced, conflict или failed
	Message string        `json:"message,omitempty"`
	// Для конфликта - текущая облачная строка и класс конфликта
	ConflictType ConflictType    `json:"conflict_type,omitempty"`
	Remote       json.RawMessage `json:"remote,omitempty"`
}

// BatchResult результат syncBatchOperations
type BatchResult struct {
	Results   []BatchOutcome `json:"results"`
	Synced    int            `json:"synced"`
	Failed    int            `json:"failed"`
	Conflicts int            `json:"conflicts"`
	Success   bool           `json:"success"`
}

// Add учитывает исход записи в счётчиках
func (r *BatchResult) Add(o BatchOutcome) {
	r.Results = append(r.Results, o)
	switch o.Status {
	case StatusSynced:
		r.Synced++
	case StatusConflict:
		r.Conflicts++
	default:
		r.Failed++
	}
}
