package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"tokenscope/internal/acl/models"
	"tokenscope/internal/platform/metrics"
	dErrors "tokenscope/pkg/domain-errors"
	audit "tokenscope/pkg/platform/audit"
	"tokenscope/pkg/platform/sentinel"
	"tokenscope/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks TokenStore,AuditPublisher

const tracerName = "tokenscope/acl"

type TokenStore interface {
	Create(ctx context.Context, t *models.Token) error
	FindByAccessorID(ctx context.Context, accessorID string) (*models.Token, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Token, error)
	Delete(ctx context.Context, accessorID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service administers ACL tokens: issuance, lookup, secret checks, search
// and expiry purges.
type Service struct {
	tokens         TokenStore
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	clock          func() time.Time
	hashCost       int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithClock overrides the request-scoped time. Used by tests and the purge loop.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithHashCost sets the bcrypt cost for new secrets.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func New(tokens TokenStore, opts ...Option) *Service {
	s := &Service{
		tokens:   tokens,
		logger:   slog.Default(),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

// translateStoreError maps store sentinels to coded errors.
func translateStoreError(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "token not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "accessor id already in use")
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeNotFound, "token not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

// emitAudit records an event with request metadata. Audit failures are
// logged and never fail the operation.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, subject string, attrs ...string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Timestamp: s.now(ctx),
		Action:    string(action),
		Subject:   subject,
		ActorID:   requestcontext.Actor(ctx),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		switch attrs[i] {
		case "decision":
			event.Decision = attrs[i+1]
		case "reason":
			event.Reason = attrs[i+1]
		}
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"accessor_id", subject,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		attrs = append(attrs, attribute.String("tokenscope.request_id", reqID))
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
