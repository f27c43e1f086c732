package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/pkg/api"
)

// TenantStore облачное хранилище одного арендатора
type TenantStore interface {
	storage.Adapter
	CompleteOrderWithPayment(ctx context.Context, req models.CompleteOrderRequest) (*models.CompleteOrderResult, error)
	TransferInventory(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
	SyncBatchOperations(ctx context.Context, req models.SyncBatchRequest) (*models.BatchResult, error)
}

// TenantProvider возвращает хранилище арендатора из токена запроса
type TenantProvider func(tenantID string) (TenantStore, error)

// tenantStore достает хранилище арендатора запроса; при ошибке ответ уже записан
func tenantStore(w http.ResponseWriter, r *http.Request, h *baseHandler) (TenantStore, string, bool) {
	tenantID, ok := GetTenantID(r.Context())
	if !ok {
		h.logger.Error("Tenant not found in context")
		writeJSON(w, h.logger, http.StatusUnauthorized, api.ErrorResponse{
			Code:    "unauthorized",
			Message: "tenant is not authenticated",
		})
		return nil, "", false
	}

	store, err := h.stores(tenantID)
	if err != nil {
		writeError(w, h.logger, err)
		return nil, "", false
	}
	return store, tenantID, true
}

type baseHandler struct {
	logger *slog.Logger
	stores TenantProvider
}
