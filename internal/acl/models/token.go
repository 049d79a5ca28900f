package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "tokenscope/pkg/domain-errors"
)

const (
	MaxNameLength        = 256
	MaxDescriptionLength = 1024
)

// Locality says whether a token is replicated to every datacenter (global)
// or only valid in the datacenter that created it (local).
type Locality string

const (
	LocalityGlobal Locality = "global"
	LocalityLocal  Locality = "local"
)

// ParseLocality accepts "", "local" and "global". The empty string means
// no locality constraint.
func ParseLocality(s string) (Locality, error) {
	switch Locality(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case LocalityLocal:
		return LocalityLocal, nil
	case LocalityGlobal:
		return LocalityGlobal, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "type must be local or global")
	}
}

// PolicyLink references a policy attached to a token.
type PolicyLink struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// RoleLink references a role attached to a token.
type RoleLink struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ServiceIdentity grants the templated policy for a service.
type ServiceIdentity struct {
	ServiceName string   `json:"service_name" yaml:"service_name"`
	Datacenters []string `json:"datacenters,omitempty" yaml:"datacenters,omitempty"`
}

// NodeIdentity grants the templated policy for a node in one datacenter.
type NodeIdentity struct {
	NodeName   string `json:"node_name" yaml:"node_name"`
	Datacenter string `json:"datacenter" yaml:"datacenter"`
}

// Token is an ACL token.
//
// Invariants:
//   - AccessorID is a UUID and never changes
//   - SecretHash is a bcrypt hash; the cleartext secret is never stored
//   - Name is at most 256 characters, Description at most 1024
//   - every ServiceIdentity has a ServiceName and every NodeIdentity a
//     NodeName and Datacenter
//   - ExpirationTime, when set, is after CreateTime
//
// Link and identity slices may be nil; readers treat nil as empty.
type Token struct {
	AccessorID        string            `json:"accessor_id" yaml:"accessor_id"`
	SecretHash        string            `json:"-" yaml:"secret_hash,omitempty"`
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description" yaml:"description"`
	Policies          []PolicyLink      `json:"policies,omitempty" yaml:"policies,omitempty"`
	Roles             []RoleLink        `json:"roles,omitempty" yaml:"roles,omitempty"`
	ServiceIdentities []ServiceIdentity `json:"service_identities,omitempty" yaml:"service_identities,omitempty"`
	NodeIdentities    []NodeIdentity    `json:"node_identities,omitempty" yaml:"node_identities,omitempty"`
	Local             bool              `json:"local" yaml:"local"`
	ExpirationTime    *time.Time        `json:"expiration_time,omitempty" yaml:"expiration_time,omitempty"`
	CreateTime        time.Time         `json:"create_time" yaml:"create_time"`
}

// TokenSpec holds the caller-controlled parts of a new token.
type TokenSpec struct {
	Name              string
	Description       string
	Policies          []PolicyLink
	Roles             []RoleLink
	ServiceIdentities []ServiceIdentity
	NodeIdentities    []NodeIdentity
	Local             bool
	ExpirationTime    *time.Time
}

// NewToken validates spec and builds a token created at now.
func NewToken(accessorID, secretHash string, spec TokenSpec, now time.Time) (*Token, error) {
	if _, err := uuid.Parse(accessorID); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "accessor_id must be a UUID")
	}
	if secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "secret hash cannot be empty")
	}
	t := &Token{
		AccessorID:        accessorID,
		SecretHash:        secretHash,
		Name:              spec.Name,
		Description:       spec.Description,
		Policies:          spec.Policies,
		Roles:             spec.Roles,
		ServiceIdentities: spec.ServiceIdentities,
		NodeIdentities:    spec.NodeIdentities,
		Local:             spec.Local,
		ExpirationTime:    spec.ExpirationTime,
		CreateTime:        now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the token invariants that do not depend on secret material.
func (t *Token) Validate() error {
	if utf8.RuneCountInString(t.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 256 characters or less")
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "description must be 1024 characters or less")
	}
	for _, si := range t.ServiceIdentities {
		if si.ServiceName == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "service identity requires a service name")
		}
	}
	for _, ni := range t.NodeIdentities {
		if ni.NodeName == "" || ni.Datacenter == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "node identity requires a node name and datacenter")
		}
	}
	if t.ExpirationTime != nil && !t.ExpirationTime.After(t.CreateTime) {
		return dErrors.New(dErrors.CodeInvariantViolation, "expiration time must be after creation time")
	}
	return nil
}

func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpirationTime != nil && !now.Before(*t.ExpirationTime)
}

func (t *Token) Locality() Locality {
	if t.Local {
		return LocalityLocal
	}
	return LocalityGlobal
}

// Clone returns a deep copy so stores can hand out tokens without sharing
// backing arrays.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	if t.Policies != nil {
		c.Policies = append([]PolicyLink(nil), t.Policies...)
	}
	if t.Roles != nil {
		c.Roles = append([]RoleLink(nil), t.Roles...)
	}
	if t.ServiceIdentities != nil {
		c.ServiceIdentities = make([]ServiceIdentity, len(t.ServiceIdentities))
		for i, si := range t.ServiceIdentities {
			c.ServiceIdentities[i] = ServiceIdentity{
				ServiceName: si.ServiceName,
				Datacenters: append([]string(nil), si.Datacenters...),
			}
		}
	}
	if t.NodeIdentities != nil {
		c.NodeIdentities = append([]NodeIdentity(nil), t.NodeIdentities...)
	}
	if t.ExpirationTime != nil {
		exp := *t.ExpirationTime
		c.ExpirationTime = &exp
	}
	return &c
}

func (t *Token) PolicyIDs() []string {
	ids := make([]string, 0, len(t.Policies))
	for _, p := range t.Policies {
		ids = append(ids, p.ID)
	}
	return ids
}

func (t *Token) RoleIDs() []string {
	ids := make([]string, 0, len(t.Roles))
	for _, r := range t.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

func (t *Token) ServiceNames() []string {
	names := make([]string, 0, len(t.ServiceIdentities))
	for _, si := range t.ServiceIdentities {
		names = append(names, si.ServiceName)
	}
	return names
}
