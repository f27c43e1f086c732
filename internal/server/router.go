// Package server собирает HTTP поверхность облачного хранилища
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/tillsync/internal/server/handlers"
	"github.com/iudanet/tillsync/internal/server/middleware"
	"github.com/iudanet/tillsync/internal/server/storage/sqlite"
)

const healthPath = "/api/v1/health"

// RouterConfig зависимости маршрутизатора
type RouterConfig struct {
	Logger  *slog.Logger
	Stores  handlers.TenantProvider
	DB      handlers.Pinger
	Limiter *middleware.RateLimiter // nil - без ограничения
	Version string
	JWT     handlers.JWTConfig
}

// NewRouter регистрирует маршруты API.
// Все маршруты, кроме health, требуют токен узла.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.LoggingMiddleware(cfg.Logger, healthPath))

	health := handlers.NewHealthHandler(cfg.Logger, cfg.DB, cfg.Version)
	router.HandleFunc(healthPath, health.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.Logger, cfg.JWT))
	if cfg.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(cfg.Limiter))
	}

	rows := handlers.NewRowsHandler(cfg.Logger, cfg.Stores)
	api.HandleFunc("/tables/{table}/select", rows.Select).Methods(http.MethodPost)
	api.HandleFunc("/tables/{table}/rows", rows.Insert).Methods(http.MethodPost)
	api.HandleFunc("/tables/{table}/rows:batch", rows.InsertMany).Methods(http.MethodPost)
	api.HandleFunc("/tables/{table}/rows/{id}", rows.Get).Methods(http.MethodGet)
	api.HandleFunc("/tables/{table}/rows/{id}", rows.Update).Methods(http.MethodPatch)
	api.HandleFunc("/tables/{table}/rows/{id}", rows.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/tx", rows.Transaction).Methods(http.MethodPost)

	rpc := handlers.NewRPCHandler(cfg.Logger, cfg.Stores)
	api.HandleFunc("/rpc/complete-order", rpc.CompleteOrder).Methods(http.MethodPost)
	api.HandleFunc("/rpc/transfer-inventory", rpc.TransferInventory).Methods(http.MethodPost)
	api.HandleFunc("/rpc/sync-batch", rpc.SyncBatch).Methods(http.MethodPost)

	return router
}

// SQLiteTenants провайдер хранилищ арендаторов поверх одной sqlite базы
func SQLiteTenants(db *sqlite.Storage) handlers.TenantProvider {
	return func(tenantID string) (handlers.TenantStore, error) {
		ts, err := db.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
}
