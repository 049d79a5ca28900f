package token

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tokenscope/internal/acl/models"
	"tokenscope/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const tokenColumns = `accessor_id, secret_hash, name, description, policies, roles,
	service_identities, node_identities, local, expiration_time, create_time`

// PostgresStore persists tokens in PostgreSQL. Link lists are stored as JSONB;
// the IDs and names used by list filters are denormalised into text[] columns
// so filtering happens in the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tokens table and indexes when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply token schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, t *models.Token) error {
	if t == nil {
		return fmt.Errorf("token is required")
	}
	row, err := toRow(t)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO acl_tokens (
			accessor_id, secret_hash, name, description,
			policies, roles, service_identities, node_identities,
			policy_ids, role_ids, service_names,
			local, expiration_time, create_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (accessor_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		t.AccessorID, t.SecretHash, t.Name, t.Description,
		row.policies, row.roles, row.serviceIdentities, row.nodeIdentities,
		pq.Array(t.PolicyIDs()), pq.Array(t.RoleIDs()), pq.Array(t.ServiceNames()),
		t.Local, nullTime(t.ExpirationTime), t.CreateTime,
	)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("accessor %s: %w", t.AccessorID, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *PostgresStore) FindByAccessorID(ctx context.Context, accessorID string) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM acl_tokens WHERE accessor_id = $1`
	t, err := scanToken(s.db.QueryRowContext(ctx, query, accessorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM acl_tokens
		WHERE ($1::text = '' OR local = ($1::text = 'local'))
		  AND ($2::text = '' OR $2::text = ANY(policy_ids))
		  AND ($3::text = '' OR $3::text = ANY(role_ids))
		  AND ($4::text = '' OR $4::text = ANY(service_names))
	`
	rows, err := s.db.QueryContext(ctx, query,
		string(filter.Locality), filter.PolicyID, filter.RoleID, filter.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

func (s *PostgresStore) Delete(ctx context.Context, accessorID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM acl_tokens WHERE accessor_id = $1`, accessorID)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM acl_tokens WHERE expiration_time IS NOT NULL AND expiration_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return int(affected), nil
}

type tokenRow struct {
	policies          []byte
	roles             []byte
	serviceIdentities []byte
	nodeIdentities    []byte
}

func toRow(t *models.Token) (tokenRow, error) {
	var row tokenRow
	var err error
	if row.policies, err = marshalList(t.Policies); err != nil {
		return row, fmt.Errorf("encode policies: %w", err)
	}
	if row.roles, err = marshalList(t.Roles); err != nil {
		return row, fmt.Errorf("encode roles: %w", err)
	}
	if row.serviceIdentities, err = marshalList(t.ServiceIdentities); err != nil {
		return row, fmt.Errorf("encode service identities: %w", err)
	}
	if row.nodeIdentities, err = marshalList(t.NodeIdentities); err != nil {
		return row, fmt.Errorf("encode node identities: %w", err)
	}
	return row, nil
}

// marshalList encodes nil slices as [] to satisfy the NOT NULL columns.
func marshalList[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// unmarshalList decodes a JSONB list, mapping an empty list back to nil so
// tokens round-trip the same way through every store.
func unmarshalList[T any](data []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(sc scanner) (*models.Token, error) {
	var (
		t                                    models.Token
		policies, roles, serviceIDs, nodeIDs []byte
		expiration                           sql.NullTime
	)
	if err := sc.Scan(
		&t.AccessorID, &t.SecretHash, &t.Name, &t.Description,
		&policies, &roles, &serviceIDs, &nodeIDs,
		&t.Local, &expiration, &t.CreateTime,
	); err != nil {
		return nil, err
	}
	var err error
	if t.Policies, err = unmarshalList[models.PolicyLink](policies); err != nil {
		return nil, fmt.Errorf("decode policies: %w", err)
	}
	if t.Roles, err = unmarshalList[models.RoleLink](roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if t.ServiceIdentities, err = unmarshalList[models.ServiceIdentity](serviceIDs); err != nil {
		return nil, fmt.Errorf("decode service identities: %w", err)
	}
	if t.NodeIdentities, err = unmarshalList[models.NodeIdentity](nodeIDs); err != nil {
		return nil, fmt.Errorf("decode node identities: %w", err)
	}
	if expiration.Valid {
		exp := expiration.Time
		t.ExpirationTime = &exp
	}
	return &t, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
