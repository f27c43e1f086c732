package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
	"github.com/iudanet/tillsync/pkg/api"
)

// RowsHandler обслуживает строковый контракт хранилища поверх HTTP
type RowsHandler struct {
	baseHandler
}

// NewRowsHandler создает handler строковых операций
func NewRowsHandler(logger *slog.Logger, stores TenantProvider) *RowsHandler {
	return &RowsHandler{baseHandler{logger: logger, stores: stores}}
}

// tableVar возвращает имя таблицы из пути; при ошибке ответ уже записан
func (h *RowsHandler) tableVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	table := mux.Vars(r)["table"]
	if err := validation.ValidateTable(table); err != nil {
		writeError(w, h.logger, err)
		return "", false
	}
	return table, true
}

// Select обрабатывает POST /api/v1/tables/{table}/select
func (h *RowsHandler) Select(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req api.SelectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	res, err := store.Select(r.Context(), table, selectOptions(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data := res.Data
	if data == nil {
		data = []models.Record{}
	}
	writeJSON(w, h.logger, http.StatusOK, api.SelectResponse{Data: data, Count: res.Count})
}

// Get обрабатывает GET /api/v1/tables/{table}/rows/{id}.
// Отсутствующая строка - 200 с data: null.
func (h *RowsHandler) Get(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	row, err := store.SelectOne(r.Context(), table, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, api.RowResponse{Data: row})
}

// Insert обрабатывает POST /api/v1/tables/{table}/rows
func (h *RowsHandler) Insert(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var rec models.Record
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, h.logger, err)
		return
	}

	row, err := store.Insert(r.Context(), table, rec)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, api.RowResponse{Data: row})
}

// InsertMany обрабатывает POST /api/v1/tables/{table}/rows:batch
func (h *RowsHandler) InsertMany(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req api.InsertManyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := store.InsertMany(r.Context(), table, req.Items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rows == nil {
		rows = []models.Record{}
	}
	writeJSON(w, h.logger, http.StatusOK, api.InsertManyResponse{Data: rows})
}

// Update обрабатывает PATCH /api/v1/tables/{table}/rows/{id}
func (h *RowsHandler) Update(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var patch models.Record
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	row, err := store.Update(r.Context(), table, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, api.RowResponse{Data: row})
}

// Delete обрабатывает DELETE /api/v1/tables/{table}/rows/{id}
func (h *RowsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	table, ok := h.tableVar(w, r)
	if !ok {
		return
	}
	store, _, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	id, err := store.Delete(r.Context(), table, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, api.DeleteResponse{ID: id})
}

// Transaction обрабатывает POST /api/v1/tx: операции применяются в одной
// транзакции, ошибка любой откатывает все
func (h *RowsHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	store, tenantID, ok := tenantStore(w, r, &h.baseHandler)
	if !ok {
		return
	}

	var req api.TxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	results := make([]models.Record, 0, len(req.Ops))
	err := store.Transaction(ctx, func(tx storage.Tx) error {
		for i, op := range req.Ops {
			res, err := applyTxOp(ctx, tx, op)
			if err != nil {
				return fmt.Errorf("op %d (%s %s): %w", i, op.Op, op.Table, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		h.logger.Warn("Transaction rejected", "tenant_id", tenantID, "ops", len(req.Ops), "error", err)
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, api.TxResponse{Results: results})
}
