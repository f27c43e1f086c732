package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/pkg/api"
)

// maxBodySize ограничение тела запроса
const maxBodySize = 8 << 20

var errBadRequest = errors.New("bad request")

// statusForCode HTTP статус для кода ошибки хранилища
func statusForCode(code string) int {
	switch code {
	case storage.CodeNotFound:
		return http.StatusNotFound
	case storage.CodeAlreadyExists, storage.CodeConflict:
		return http.StatusConflict
	case storage.CodePolicyViolation, storage.CodeTenantMismatch:
		return http.StatusForbidden
	case storage.CodeInsufficientBalance, storage.CodeInsufficientStock,
		storage.CodeOrderNotPayable, storage.CodeStoreInaccessible:
		return http.StatusUnprocessableEntity
	case storage.CodeInvalidQuery, storage.CodeInvalidRecord:
		return http.StatusBadRequest
	case storage.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON пишет ответ в формате JSON
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError переводит ошибку в api.ErrorResponse с машиночитаемым кодом.
// Внутренние ошибки не раскрываются клиенту.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, errBadRequest) {
		writeJSON(w, logger, http.StatusBadRequest, api.ErrorResponse{
			Code:    storage.CodeInvalidRecord,
			Message: err.Error(),
		})
		return
	}

	code := storage.ErrorCode(err)
	status := statusForCode(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		msg = "internal server error"
	}

	writeJSON(w, logger, status, api.ErrorResponse{Code: code, Message: msg})
}

// decodeJSON читает тело запроса в v
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}
