package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tokenscope/pkg/platform/middleware/admin"
	"tokenscope/pkg/requestcontext"

	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]*JWTClaims

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

var validator = stubValidator{
	"good":     {Subject: "ops@example.com", Scopes: []string{"acl:read", "acl:admin"}},
	"readonly": {Subject: "viewer@example.com", Scopes: []string{"acl:read"}},
}

func serve(h func(http.Handler) http.Handler, headers map[string]string) (*httptest.ResponseRecorder, string) {
	var actor string
	handler := h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = requestcontext.Actor(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/acl/tokens", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, actor
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := RequireAuth(validator, "acl:admin", logger)

	t.Run("valid token with scope", func(t *testing.T) {
		rr, actor := serve(mw, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ops@example.com", actor)
	})

	t.Run("missing scope", func(t *testing.T) {
		rr, _ := serve(mw, map[string]string{"Authorization": "Bearer readonly"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), `"error":"forbidden"`)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr, _ := serve(mw, map[string]string{"Authorization": "Bearer bogus"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rr, _ := serve(mw, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("nil validator rejects bearer", func(t *testing.T) {
		rr, _ := serve(RequireAuth(nil, "acl:admin", logger), map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := RequireAdmin("static", validator, "acl:admin", logger)

	rr, actor := serve(mw, map[string]string{admin.HeaderAdminToken: "static"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, admin.ActorAdminToken, actor)

	rr, actor = serve(mw, map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ops@example.com", actor)

	rr, _ = serve(mw, map[string]string{admin.HeaderAdminToken: "wrong", "Authorization": "Bearer good"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = serve(mw, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin_Unconfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no credentials rejects everything", func(t *testing.T) {
		mw := RequireAdmin("", nil, "acl:admin", logger)

		rr, _ := serve(mw, map[string]string{admin.HeaderAdminToken: "dev-admin-token"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr, _ = serve(mw, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("jwt only ignores static tokens", func(t *testing.T) {
		mw := RequireAdmin("", validator, "acl:admin", logger)

		rr, _ := serve(mw, map[string]string{admin.HeaderAdminToken: "dev-admin-token"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr, _ = serve(mw, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
