package handler

import (
	"net/http"

	"tokenscope/internal/acl/models"
)

// VerifySecretRequest is the body of POST /v1/acl/token/{accessor_id}/verify.
type VerifySecretRequest struct {
	Secret string `json:"secret"`
}

// parseSearchRequest reads the token list query string:
//
//	search          free-text query
//	searchproperty  field to search; repeatable or comma-separated
//	type            "local" or "global"
//	policy, role    attached policy or role ID
//	servicename     service identity name
func parseSearchRequest(r *http.Request) (*models.SearchRequest, error) {
	q := r.URL.Query()

	locality, err := models.ParseLocality(q.Get("type"))
	if err != nil {
		return nil, err
	}

	req := &models.SearchRequest{
		Query:  q.Get("search"),
		Fields: q["searchproperty"],
		Filter: models.ListFilter{
			Locality:    locality,
			PolicyID:    q.Get("policy"),
			RoleID:      q.Get("role"),
			ServiceName: q.Get("servicename"),
		},
	}
	req.Normalize()
	return req, nil
}
