package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/tillsync/internal/models"
)

// RPCHandler обслуживает атомарные составные операции
type RPCHandler struct {
	baseHandler
}

// NewRPCHandler создает handler составных операций
func NewRPCHandler(logger *slog.Logger, stores TenantProvider) *RPCHandler {
	return &RPCHandler{baseHandler{logger: logger, stores: stores}}
}

// CompleteOrder обрабатывает POST /api/v1/rpc/complete-order
func (h *RPCHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	store, tenantID, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req models.CompleteOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID
	}

	res, err := store.CompleteOrderWithPayment(r.Context(), req)
	if err != nil {
		h.logger.Warn("Complete order rejected", "tenant_id", tenantID, "order_id", req.OrderID, "error", err)
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

// TransferInventory обрабатывает POST /api/v1/rpc/transfer-inventory
func (h *RPCHandler) TransferInventory(w http.ResponseWriter, r *http.Request) {
	store, tenantID, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID
	}

	res, err := store.TransferInventory(r.Context(), req)
	if err != nil {
		h.logger.Warn("Inventory transfer rejected",
			"tenant_id", tenantID,
			"from_store_id", req.FromStoreID,
			"to_store_id", req.ToStoreID,
			"error", err)
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

// SyncBatch обрабатывает POST /api/v1/rpc/sync-batch.
// Узел-источник по умолчанию берется из токена.
func (h *RPCHandler) SyncBatch(w http.ResponseWriter, r *http.Request) {
	store, tenantID, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req models.SyncBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TenantID == "" {
		req.TenantID = tenantID
	}
	if req.OriginNodeID == "" {
		req.OriginNodeID, _ = GetNodeID(r.Context())
	}

	res, err := store.SyncBatchOperations(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}
