package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tokenscope/internal/acl/models"
	"tokenscope/internal/acl/store"
	dErrors "tokenscope/pkg/domain-errors"
	audit "tokenscope/pkg/platform/audit"
	"tokenscope/pkg/platform/sentinel"
	"tokenscope/pkg/secrets"
)

// CreateToken issues a token with a fresh accessor ID and secret.
// The cleartext secret is returned once and only its bcrypt hash is stored.
func (s *Service) CreateToken(ctx context.Context, req *models.CreateTokenRequest) (_ *models.Token, _ string, err error) {
	ctx, span := startSpan(ctx, "acl.CreateToken")
	defer func() { endSpan(span, err) }()

	return s.issue(ctx, uuid.NewString(), "", req)
}

// ImportToken stores a token with a caller-chosen accessor ID and, when
// given, a caller-chosen secret. Used to bootstrap from seed files.
func (s *Service) ImportToken(ctx context.Context, seed store.SeedToken) (*models.Token, string, error) {
	if _, err := uuid.Parse(seed.AccessorID); err != nil {
		return nil, "", dErrors.New(dErrors.CodeValidation, "accessor_id must be a UUID")
	}
	req := seed.CreateTokenRequest
	return s.issue(ctx, seed.AccessorID, seed.Secret, &req)
}

// SeedTokens imports seeds, skipping accessor IDs that already exist so that
// restarts against a persistent store are idempotent. Returns the number of
// tokens created.
func (s *Service) SeedTokens(ctx context.Context, seeds []store.SeedToken) (int, error) {
	created := 0
	for _, seed := range seeds {
		_, _, err := s.ImportToken(ctx, seed)
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.logger.InfoContext(ctx, "seed token already present", "accessor_id", seed.AccessorID)
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Service) issue(ctx context.Context, accessorID, secret string, req *models.CreateTokenRequest) (*models.Token, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	now := s.now(ctx)
	spec, err := req.Spec(now)
	if err != nil {
		return nil, "", err
	}

	if secret == "" {
		secret, err = secrets.Generate()
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
		}
	}
	hash, err := secrets.Hash(secret, s.hashCost)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, "", dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	// Use constructor which validates invariants
	t, err := models.NewToken(accessorID, hash, spec, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, "", dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, "", err
	}

	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, "", translateStoreError(err, "create token")
	}

	s.logger.InfoContext(ctx, "token created",
		"accessor_id", t.AccessorID,
		"local", t.Local,
	)
	s.emitAudit(ctx, audit.EventTokenCreated, t.AccessorID)
	if s.metrics != nil {
		s.metrics.IncrementTokensCreated()
	}
	return t, secret, nil
}

// GetToken returns a token by accessor ID. Expired tokens read as not found.
func (s *Service) GetToken(ctx context.Context, accessorID string) (*models.Token, error) {
	if _, err := uuid.Parse(accessorID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "accessor_id must be a UUID")
	}
	t, err := s.tokens.FindByAccessorID(ctx, accessorID)
	if err != nil {
		return nil, translateStoreError(err, "load token")
	}
	if t.IsExpired(s.now(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return t, nil
}

func (s *Service) DeleteToken(ctx context.Context, accessorID string) error {
	if _, err := uuid.Parse(accessorID); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "accessor_id must be a UUID")
	}
	if err := s.tokens.Delete(ctx, accessorID); err != nil {
		return translateStoreError(err, "delete token")
	}

	s.logger.InfoContext(ctx, "token deleted", "accessor_id", accessorID)
	s.emitAudit(ctx, audit.EventTokenDeleted, accessorID)
	if s.metrics != nil {
		s.metrics.IncrementTokensDeleted()
	}
	return nil
}

// VerifySecret checks secret against the stored hash. Unknown, expired and
// mismatched tokens all yield CodeUnauthorized so callers cannot probe for
// accessor IDs.
func (s *Service) VerifySecret(ctx context.Context, accessorID, secret string) (err error) {
	ctx, span := startSpan(ctx, "acl.VerifySecret", attribute.String("tokenscope.accessor_id", accessorID))
	defer func() { endSpan(span, err) }()

	if secret == "" {
		return dErrors.New(dErrors.CodeBadRequest, "secret is required")
	}

	t, err := s.tokens.FindByAccessorID(ctx, accessorID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return translateStoreError(err, "load token")
	}

	reason := ""
	switch {
	case err != nil:
		reason = "unknown accessor"
	case t.IsExpired(s.now(ctx)):
		reason = "expired"
	default:
		if verr := secrets.Verify(secret, t.SecretHash); verr != nil {
			if !dErrors.HasCode(verr, dErrors.CodeUnauthorized) {
				return dErrors.Wrap(verr, dErrors.CodeInternal, "failed to verify secret")
			}
			reason = "mismatch"
		}
	}

	if reason != "" {
		s.logger.WarnContext(ctx, "token secret rejected",
			"accessor_id", accessorID,
			"reason", reason,
		)
		s.emitAudit(ctx, audit.EventTokenSecretRejected, accessorID, "decision", "deny", "reason", reason)
		s.countSecretCheck("rejected")
		return dErrors.New(dErrors.CodeUnauthorized, "invalid accessor or secret")
	}

	s.emitAudit(ctx, audit.EventTokenSecretVerified, accessorID, "decision", "allow")
	s.countSecretCheck("verified")
	return nil
}

func (s *Service) countSecretCheck(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementSecretCheck(outcome)
	}
}
