package handler

import (
	"time"

	"tokenscope/internal/acl/models"
)

// TokenResponse is the public view of a token. It never carries the secret
// or its hash.
type TokenResponse struct {
	AccessorID        string                   `json:"accessor_id"`
	Name              string                   `json:"name"`
	Description       string                   `json:"description"`
	Policies          []models.PolicyLink      `json:"policies"`
	Roles             []models.RoleLink        `json:"roles"`
	ServiceIdentities []models.ServiceIdentity `json:"service_identities"`
	NodeIdentities    []models.NodeIdentity    `json:"node_identities"`
	Local             bool                     `json:"local"`
	ExpirationTime    *time.Time               `json:"expiration_time,omitempty"`
	CreateTime        time.Time                `json:"create_time"`
}

// CreateTokenResponse is returned once, at creation, with the cleartext secret.
type CreateTokenResponse struct {
	TokenResponse
	SecretID string `json:"secret_id"`
}

type TokenListResponse struct {
	Tokens []TokenResponse `json:"tokens"`
	Count  int             `json:"count"`
}

type VerifySecretResponse struct {
	Valid bool `json:"valid"`
}

type FieldsResponse struct {
	Fields []string `json:"fields"`
}

func toTokenResponse(t *models.Token) TokenResponse {
	return TokenResponse{
		AccessorID:        t.AccessorID,
		Name:              t.Name,
		Description:       t.Description,
		Policies:          emptyIfNil(t.Policies),
		Roles:             emptyIfNil(t.Roles),
		ServiceIdentities: emptyIfNil(t.ServiceIdentities),
		NodeIdentities:    emptyIfNil(t.NodeIdentities),
		Local:             t.Local,
		ExpirationTime:    t.ExpirationTime,
		CreateTime:        t.CreateTime,
	}
}

func toTokenListResponse(tokens []*models.Token) TokenListResponse {
	out := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, toTokenResponse(t))
	}
	return TokenListResponse{Tokens: out, Count: len(out)}
}

// emptyIfNil keeps JSON arrays as [] rather than null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
