package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tokenscope/internal/acl/handler/mocks"
	"tokenscope/internal/acl/models"
	dErrors "tokenscope/pkg/domain-errors"
	"tokenscope/pkg/platform/middleware/admin"
	"tokenscope/pkg/testutil"
)

const (
	testAdminToken = "test-admin-token"
	testAccessorID = "6f4b2c1a-3d5e-4f60-8a7b-9c0d1e2f3a4b"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, admin.RequireAdminToken(testAdminToken, logger)).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewAdminRequest(s.T(), method, path, testAdminToken, body)
	return testutil.DoRequest(s.router, req)
}

func sampleToken() *models.Token {
	return &models.Token{
		AccessorID:  testAccessorID,
		SecretHash:  "$2a$10$shouldneverleak",
		Name:        "ci",
		Description: "deploys",
		Policies:    []models.PolicyLink{{ID: "pol-1", Name: "deploy"}},
		CreateTime:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestRequiresAdmin() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/v1/acl/tokens", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestSearchTokens() {
	s.Run("passes query, fields and filters", func() {
		s.service.EXPECT().SearchTokens(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *models.SearchRequest) ([]*models.Token, error) {
				s.Equal("ci deploy", req.Query)
				s.Equal([]string{"Name", "Policy", "Role"}, req.Fields)
				s.Equal(models.LocalityLocal, req.Filter.Locality)
				s.Equal("pol-1", req.Filter.PolicyID)
				s.Equal("web", req.Filter.ServiceName)
				return []*models.Token{sampleToken()}, nil
			})

		rr := s.do(http.MethodGet,
			"/v1/acl/tokens?search=ci+deploy&searchproperty=Name&searchproperty=Policy,Role&type=local&policy=pol-1&servicename=web", nil)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[TokenListResponse](s.T(), rr)
		s.Equal(1, resp.Count)
		s.Equal(testAccessorID, resp.Tokens[0].AccessorID)
		s.Equal([]models.RoleLink{}, resp.Tokens[0].Roles)
		s.NotContains(rr.Body.String(), "shouldneverleak")
		s.NotContains(rr.Body.String(), "secret")
	})

	s.Run("empty result is an empty array", func() {
		s.service.EXPECT().SearchTokens(gomock.Any(), gomock.Any()).Return(nil, nil)

		rr := s.do(http.MethodGet, "/v1/acl/tokens", nil)
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"tokens":[],"count":0}`, rr.Body.String())
	})

	s.Run("bad locality is a validation error", func() {
		rr := s.do(http.MethodGet, "/v1/acl/tokens?type=regional", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unknown search property surfaces as 400", func() {
		s.service.EXPECT().SearchTokens(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, `unknown search property "Secret"`))

		rr := s.do(http.MethodGet, "/v1/acl/tokens?search=x&searchproperty=Secret", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestCreateToken() {
	s.Run("returns secret once", func() {
		s.service.EXPECT().CreateToken(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req *models.CreateTokenRequest) (*models.Token, string, error) {
				s.Equal("ci", req.Name)
				s.Equal("24h", req.ExpirationTTL)
				return sampleToken(), "cleartext-secret", nil
			})

		rr := s.do(http.MethodPost, "/v1/acl/token", map[string]any{
			"name":           "ci",
			"expiration_ttl": "24h",
		})

		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.UnmarshalResponse[CreateTokenResponse](s.T(), rr)
		s.Equal("cleartext-secret", resp.SecretID)
		s.Equal(testAccessorID, resp.AccessorID)
		s.NotContains(rr.Body.String(), "shouldneverleak")
	})

	s.Run("unknown body field is rejected", func() {
		rr := s.do(http.MethodPost, "/v1/acl/token", map[string]any{"secret_hash": "x"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("service validation error", func() {
		s.service.EXPECT().CreateToken(gomock.Any(), gomock.Any()).
			Return(nil, "", dErrors.New(dErrors.CodeValidation, "name must be 256 characters or less"))

		rr := s.do(http.MethodPost, "/v1/acl/token", map[string]any{"name": "x"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().CreateToken(gomock.Any(), gomock.Any()).
			Return(nil, "", dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to create token"))

		rr := s.do(http.MethodPost, "/v1/acl/token", map[string]any{"name": "x"})
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.JSONEq(`{"error":"internal_error"}`, rr.Body.String())
	})
}

func (s *HandlerSuite) TestGetToken() {
	s.Run("found", func() {
		s.service.EXPECT().GetToken(gomock.Any(), testAccessorID).Return(sampleToken(), nil)

		rr := s.do(http.MethodGet, "/v1/acl/token/"+testAccessorID, nil)
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[TokenResponse](s.T(), rr)
		s.Equal("ci", resp.Name)
		s.Equal([]models.PolicyLink{{ID: "pol-1", Name: "deploy"}}, resp.Policies)
	})

	s.Run("not found", func() {
		s.service.EXPECT().GetToken(gomock.Any(), testAccessorID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "token not found"))

		rr := s.do(http.MethodGet, "/v1/acl/token/"+testAccessorID, nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestDeleteToken() {
	s.service.EXPECT().DeleteToken(gomock.Any(), testAccessorID).Return(nil)

	rr := s.do(http.MethodDelete, "/v1/acl/token/"+testAccessorID, nil)
	s.Equal(http.StatusNoContent, rr.Code)
	s.Empty(rr.Body.String())
}

func (s *HandlerSuite) TestVerifySecret() {
	s.Run("valid", func() {
		s.service.EXPECT().VerifySecret(gomock.Any(), testAccessorID, "s3cret").Return(nil)

		rr := s.do(http.MethodPost, "/v1/acl/token/"+testAccessorID+"/verify", VerifySecretRequest{Secret: "s3cret"})
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"valid":true}`, rr.Body.String())
	})

	s.Run("rejected", func() {
		s.service.EXPECT().VerifySecret(gomock.Any(), testAccessorID, "nope").
			Return(dErrors.New(dErrors.CodeUnauthorized, "invalid accessor or secret"))

		rr := s.do(http.MethodPost, "/v1/acl/token/"+testAccessorID+"/verify", VerifySecretRequest{Secret: "nope"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *HandlerSuite) TestVerifyLimiterOnlyGuardsVerify() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	s.router = chi.NewRouter()
	New(s.service, logger, admin.RequireAdminToken(testAdminToken, logger), WithVerifyLimiter(blocked)).Register(s.router)

	rr := s.do(http.MethodPost, "/v1/acl/token/"+testAccessorID+"/verify", VerifySecretRequest{Secret: "s3cret"})
	s.Equal(http.StatusTooManyRequests, rr.Code)

	s.service.EXPECT().GetToken(gomock.Any(), testAccessorID).Return(sampleToken(), nil)
	rr = s.do(http.MethodGet, "/v1/acl/token/"+testAccessorID, nil)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestListFields() {
	rr := s.do(http.MethodGet, "/v1/acl/fields", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"fields":["Name","Description","AccessorID","Role","Policy"]}`, rr.Body.String())
}
