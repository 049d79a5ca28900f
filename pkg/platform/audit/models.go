package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by purpose so sinks can apply
// different retention and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// deletions and failed secret checks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as creation and purges.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject is the accessor ID of the token acted on.
	Subject string `json:"subject"`
	// ActorID identifies the admin principal that made the request.
	ActorID   string `json:"actor_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type AuditEvent string

const (
	EventTokenCreated        AuditEvent = "token_created"
	EventTokenDeleted        AuditEvent = "token_deleted"
	EventTokenSecretVerified AuditEvent = "token_secret_verified"
	EventTokenSecretRejected AuditEvent = "token_secret_rejected"
	EventTokensPurged        AuditEvent = "tokens_purged"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventTokenDeleted:        CategorySecurity,
	EventTokenSecretRejected: CategorySecurity,

	EventTokenCreated:        CategoryOperations,
	EventTokenSecretVerified: CategoryOperations,
	EventTokensPurged:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Sink forwards events to an external system after they are stored.
type Sink interface {
	Send(ctx context.Context, event Event) error
}
