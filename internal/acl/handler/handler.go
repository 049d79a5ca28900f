package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tokenscope/internal/acl/models"
	"tokenscope/internal/acl/search"
	dErrors "tokenscope/pkg/domain-errors"
	"tokenscope/pkg/platform/httputil"
	request "tokenscope/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// maxBodyBytes caps request bodies on write endpoints.
const maxBodyBytes = 64 << 10

// Service defines the token operations the admin API exposes.
type Service interface {
	CreateToken(ctx context.Context, req *models.CreateTokenRequest) (*models.Token, string, error)
	GetToken(ctx context.Context, accessorID string) (*models.Token, error)
	DeleteToken(ctx context.Context, accessorID string) error
	VerifySecret(ctx context.Context, accessorID, secret string) error
	SearchTokens(ctx context.Context, req *models.SearchRequest) ([]*models.Token, error)
}

// Handler serves the ACL token admin API.
type Handler struct {
	service Service
	logger  *slog.Logger
	auth    func(http.Handler) http.Handler
	verify  func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithVerifyLimiter throttles the secret verification route.
func WithVerifyLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.verify = mw
	}
}

// New creates a Handler. auth guards every route; pass nil only in tests.
func New(service Service, logger *slog.Logger, auth func(http.Handler) http.Handler, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, auth: auth}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes under /v1/acl.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/acl", func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		if h.auth != nil {
			r.Use(h.auth)
		}
		r.Get("/fields", h.handleListFields)
		r.Get("/tokens", h.handleSearchTokens)
		r.Post("/token", h.handleCreateToken)
		r.Get("/token/{accessor_id}", h.handleGetToken)
		r.Delete("/token/{accessor_id}", h.handleDeleteToken)
		if h.verify != nil {
			r.With(h.verify).Post("/token/{accessor_id}/verify", h.handleVerifySecret)
		} else {
			r.Post("/token/{accessor_id}/verify", h.handleVerifySecret)
		}
	})
}

func (h *Handler) handleListFields(w http.ResponseWriter, _ *http.Request) {
	fields := search.Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.String())
	}
	httputil.WriteJSON(w, http.StatusOK, FieldsResponse{Fields: names})
}

func (h *Handler) handleSearchTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseSearchRequest(r)
	if err != nil {
		h.writeError(ctx, w, err, "invalid token search")
		return
	}

	tokens, err := h.service.SearchTokens(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "token search failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTokenListResponse(tokens))
}

func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateTokenRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	token, secret, err := h.service.CreateToken(ctx, &req)
	if err != nil {
		h.writeError(ctx, w, err, "create token failed")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateTokenResponse{
		TokenResponse: toTokenResponse(token),
		SecretID:      secret,
	})
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.service.GetToken(ctx, chi.URLParam(r, "accessor_id"))
	if err != nil {
		h.writeError(ctx, w, err, "get token failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(token))
}

func (h *Handler) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.DeleteToken(ctx, chi.URLParam(r, "accessor_id")); err != nil {
		h.writeError(ctx, w, err, "delete token failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerifySecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifySecretRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.service.VerifySecret(ctx, chi.URLParam(r, "accessor_id"), req.Secret); err != nil {
		h.writeError(ctx, w, err, "verify secret failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifySecretResponse{Valid: true})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// writeError logs at a level matching the error class and writes the envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	attrs := []any{
		"request_id", request.GetRequestID(ctx),
		"error", err,
	}
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
