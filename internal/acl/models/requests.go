package models

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "tokenscope/pkg/domain-errors"
	tsstrings "tokenscope/pkg/platform/strings"
)

type CreateTokenRequest struct {
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description" yaml:"description"`
	Policies          []PolicyLink      `json:"policies,omitempty" yaml:"policies,omitempty"`
	Roles             []RoleLink        `json:"roles,omitempty" yaml:"roles,omitempty"`
	ServiceIdentities []ServiceIdentity `json:"service_identities,omitempty" yaml:"service_identities,omitempty"`
	NodeIdentities    []NodeIdentity    `json:"node_identities,omitempty" yaml:"node_identities,omitempty"`
	Local             bool              `json:"local" yaml:"local"`
	// ExpirationTTL is a Go duration string such as "24h".
	ExpirationTTL string `json:"expiration_ttl,omitempty" yaml:"expiration_ttl,omitempty"`
}

func (r *CreateTokenRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.ExpirationTTL = strings.TrimSpace(r.ExpirationTTL)
	for i := range r.Policies {
		r.Policies[i].ID = strings.TrimSpace(r.Policies[i].ID)
		r.Policies[i].Name = strings.TrimSpace(r.Policies[i].Name)
	}
	for i := range r.Roles {
		r.Roles[i].ID = strings.TrimSpace(r.Roles[i].ID)
		r.Roles[i].Name = strings.TrimSpace(r.Roles[i].Name)
	}
	for i := range r.ServiceIdentities {
		r.ServiceIdentities[i].ServiceName = strings.TrimSpace(r.ServiceIdentities[i].ServiceName)
		r.ServiceIdentities[i].Datacenters = tsstrings.DedupeAndTrim(r.ServiceIdentities[i].Datacenters)
	}
	for i := range r.NodeIdentities {
		r.NodeIdentities[i].NodeName = strings.TrimSpace(r.NodeIdentities[i].NodeName)
		r.NodeIdentities[i].Datacenter = strings.TrimSpace(r.NodeIdentities[i].Datacenter)
	}
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 256 characters or less")
	}
	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 1024 characters or less")
	}

	for _, p := range r.Policies {
		if p.ID == "" && p.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "policy link requires an id or name")
		}
		if p.ID != "" {
			if _, err := uuid.Parse(p.ID); err != nil {
				return dErrors.New(dErrors.CodeValidation, "policy id must be a UUID")
			}
		}
	}
	for _, role := range r.Roles {
		if role.ID == "" && role.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "role link requires an id or name")
		}
		if role.ID != "" {
			if _, err := uuid.Parse(role.ID); err != nil {
				return dErrors.New(dErrors.CodeValidation, "role id must be a UUID")
			}
		}
	}
	for _, si := range r.ServiceIdentities {
		if si.ServiceName == "" {
			return dErrors.New(dErrors.CodeValidation, "service identity requires a service_name")
		}
	}
	for _, ni := range r.NodeIdentities {
		if ni.NodeName == "" || ni.Datacenter == "" {
			return dErrors.New(dErrors.CodeValidation, "node identity requires node_name and datacenter")
		}
	}

	if _, err := r.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses ExpirationTTL. Zero means the token never expires.
func (r *CreateTokenRequest) TTL() (time.Duration, error) {
	if r.ExpirationTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(r.ExpirationTTL)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "expiration_ttl must be a duration such as 24h")
	}
	if ttl <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "expiration_ttl must be positive")
	}
	return ttl, nil
}

func (r *CreateTokenRequest) Spec(now time.Time) (TokenSpec, error) {
	ttl, err := r.TTL()
	if err != nil {
		return TokenSpec{}, err
	}
	spec := TokenSpec{
		Name:              r.Name,
		Description:       r.Description,
		Policies:          r.Policies,
		Roles:             r.Roles,
		ServiceIdentities: r.ServiceIdentities,
		NodeIdentities:    r.NodeIdentities,
		Local:             r.Local,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		spec.ExpirationTime = &exp
	}
	return spec, nil
}

// SearchRequest is a token list query: a free-text search over the named
// fields plus structural filters that stores can push down.
type SearchRequest struct {
	Query  string
	Fields []string
	Filter ListFilter
}

func (r *SearchRequest) Normalize() {
	if r == nil {
		return
	}
	r.Query = strings.TrimSpace(r.Query)
	r.Fields = tsstrings.DedupeAndTrim(tsstrings.SplitList(r.Fields))
	r.Filter.PolicyID = strings.TrimSpace(r.Filter.PolicyID)
	r.Filter.RoleID = strings.TrimSpace(r.Filter.RoleID)
	r.Filter.ServiceName = strings.TrimSpace(r.Filter.ServiceName)
}

// ListFilter narrows a token listing by locality and attachments.
// Zero-valued fields do not constrain the result.
type ListFilter struct {
	Locality    Locality
	PolicyID    string
	RoleID      string
	ServiceName string
}

// Matches reports whether t satisfies every set constraint.
func (f ListFilter) Matches(t *Token) bool {
	if t == nil {
		return false
	}
	if f.Locality != "" && t.Locality() != f.Locality {
		return false
	}
	if f.PolicyID != "" && !slices.Contains(t.PolicyIDs(), f.PolicyID) {
		return false
	}
	if f.RoleID != "" && !slices.Contains(t.RoleIDs(), f.RoleID) {
		return false
	}
	if f.ServiceName != "" && !slices.Contains(t.ServiceNames(), f.ServiceName) {
		return false
	}
	return true
}
