package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

const (
	// TenantIDKey ключ для хранения tenant_id в контексте
	TenantIDKey contextKey = "tenant_id"
	// NodeIDKey ключ для хранения node_id в контексте
	NodeIDKey contextKey = "node_id"
)

// GetTenantID извлекает tenant_id из контекста запроса
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok && tenantID != ""
}

// GetNodeID извлекает node_id из контекста запроса
func GetNodeID(ctx context.Context) (string, bool) {
	nodeID, ok := ctx.Value(NodeIDKey).(string)
	return nodeID, ok
}

// WithTenant возвращает контекст с арендатором и узлом запроса
func WithTenant(ctx context.Context, tenantID, nodeID string) context.Context {
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	return context.WithValue(ctx, NodeIDKey, nodeID)
}
