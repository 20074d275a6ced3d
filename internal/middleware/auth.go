package middleware

import (
	"net/http"
	"strings"

	"managerconsole/common_library/ctxdata"
	"managerconsole/common_library/logging"

	"go.uber.org/zap"
)

const RoleManager = "manager"

// NewAuthMiddleware trusts the identity headers set by the upstream gateway
// and only lets managers through.
func NewAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			role := strings.TrimSpace(r.Header.Get("X-User-Role"))

			if userID == "" {
				if logger, ok := logging.GetFromContext(ctx); ok {
					logger.Info(ctx, "no user identity", zap.String("path", r.URL.Path))
				}
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if !strings.EqualFold(role, RoleManager) {
				if logger, ok := logging.GetFromContext(ctx); ok {
					logger.Info(ctx, "permission denied",
						zap.String("path", r.URL.Path),
						zap.String("role", role),
					)
				}
				writeError(w, http.StatusForbidden, "manager role required")
				return
			}

			ctx = ctxdata.WithUserID(ctx, userID)
			ctx = ctxdata.WithUserRole(ctx, RoleManager)
			if header := r.Header.Get("Authorization"); header != "" {
				ctx = ctxdata.WithAuthHeader(ctx, header)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `","level":"error"}`))
}
