package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/tillsync/pkg/api"
)

// writeError пишет JSON ошибку в формате api.ErrorResponse
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Code: code, Message: message})
}
