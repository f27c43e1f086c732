package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/tillsync/internal/server/handlers"
)

// CodeUnauthorized код ошибки отсутствующего или невалидного токена
const CodeUnauthorized = "unauthorized"

// AuthMiddleware создает middleware для проверки токена узла.
// Арендатор и узел из токена кладутся в контекст запроса.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Warn("Invalid Authorization header format")
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token format")
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, parts[1])
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}

			ctx := handlers.WithTenant(r.Context(), claims.TenantID, claims.NodeID)
			logger.Debug("Node authenticated", "tenant_id", claims.TenantID, "node_id", claims.NodeID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
