package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"tokenscope/pkg/platform/middleware/admin"
	request "tokenscope/pkg/platform/middleware/request"
	"tokenscope/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject string
	Scopes  []string
	JTI     string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth accepts a bearer JWT that carries requiredScope and records its
// subject as the request actor.
func RequireAuth(validator JWTValidator, requiredScope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || validator == nil {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if requiredScope != "" && !slices.Contains(claims.Scopes, requiredScope) {
				logger.WarnContext(ctx, "forbidden - missing scope",
					"subject", claims.Subject,
					"scope", requiredScope,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Token lacks the required scope")
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin admits callers presenting either the static admin token or a
// bearer JWT with requiredScope. The admin token header wins when both are sent.
func RequireAdmin(adminToken string, validator JWTValidator, requiredScope string, logger *slog.Logger) func(http.Handler) http.Handler {
	byToken := admin.RequireAdminToken(adminToken, logger)
	byJWT := RequireAuth(validator, requiredScope, logger)
	return func(next http.Handler) http.Handler {
		tokenHandler := byToken(next)
		jwtHandler := byJWT(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(admin.HeaderAdminToken) != "" {
				tokenHandler.ServeHTTP(w, r)
				return
			}
			jwtHandler.ServeHTTP(w, r)
		})
	}
}
