package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	audit "tokenscope/pkg/platform/audit"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

// Store implements audit.Store on the acl_audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the audit table and indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	query := `
		INSERT INTO acl_audit_events (
			id, category, timestamp, action, subject,
			actor_id, request_id, client_ip, user_agent, decision, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		event.Action,
		event.Subject,
		event.ActorID,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Decision,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for one token, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, subject,
			   actor_id, request_id, client_ip, user_agent, decision, reason
		FROM acl_audit_events
		WHERE subject = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, subject,
			   actor_id, request_id, client_ip, user_agent, decision, reason
		FROM acl_audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&event.Subject,
			&event.ActorID,
			&event.RequestID,
			&event.ClientIP,
			&event.UserAgent,
			&event.Decision,
			&event.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
