package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "tokenscope/pkg/platform/middleware/request"
	"tokenscope/pkg/requestcontext"
)

const (
	// HeaderAdminToken carries the static admin API token.
	HeaderAdminToken = "X-Admin-Token"

	// ActorAdminToken is recorded as the actor for static-token callers.
	ActorAdminToken = "admin-token"
)

func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(HeaderAdminToken)
			// An empty expected token disables static-token access entirely.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			ctx = requestcontext.WithActor(ctx, ActorAdminToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
