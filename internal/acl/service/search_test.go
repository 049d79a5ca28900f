package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenscope/internal/acl/models"
	tokenstore "tokenscope/internal/acl/store/token"
	"tokenscope/internal/platform/metrics"
	dErrors "tokenscope/pkg/domain-errors"
)

const (
	webPolicyID = "0b9f6a3e-6f0e-4f44-9a59-0d2f3c1e7a01"
	opsRoleID   = "5c1d9b7e-2a4f-4c1b-8d3e-6f7a8b9c0d02"
)

func seedSearchStore(t *testing.T, now time.Time) *tokenstore.InMemory {
	t.Helper()
	st := tokenstore.NewInMemory()
	exp := now.Add(-time.Minute)
	tokens := []*models.Token{
		{
			AccessorID:  "00000000-0000-4000-8000-000000000001",
			Name:        "web frontend",
			Description: "Serves the public site",
			Policies:    []models.PolicyLink{{ID: webPolicyID, Name: "web-read"}},
			CreateTime:  now.Add(-3 * time.Hour),
		},
		{
			AccessorID:        "00000000-0000-4000-8000-000000000002",
			Name:              "billing worker",
			Roles:             []models.RoleLink{{ID: opsRoleID, Name: "Operators"}},
			ServiceIdentities: []models.ServiceIdentity{{ServiceName: "billing"}},
			Local:             true,
			CreateTime:        now.Add(-1 * time.Hour),
		},
		{
			AccessorID:     "00000000-0000-4000-8000-000000000003",
			Name:           "edge node",
			NodeIdentities: []models.NodeIdentity{{NodeName: "edge-web-1", Datacenter: "dc1"}},
			CreateTime:     now.Add(-1 * time.Hour),
		},
		{
			AccessorID:     "00000000-0000-4000-8000-000000000004",
			Name:           "web expired",
			ExpirationTime: &exp,
			CreateTime:     now.Add(-2 * time.Hour),
		},
	}
	for _, tok := range tokens {
		tok.SecretHash = "$2a$04$unused"
		require.NoError(t, st.Create(context.Background(), tok))
	}
	return st
}

func accessorIDs(tokens []*models.Token) []string {
	ids := make([]string, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.AccessorID)
	}
	return ids
}

func TestSearchTokens(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	svc := New(seedSearchStore(t, now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SearchRequest
		want []string
	}{
		{
			name: "empty query lists live tokens newest first",
			req:  models.SearchRequest{},
			want: []string{
				"00000000-0000-4000-8000-000000000002",
				"00000000-0000-4000-8000-000000000003",
				"00000000-0000-4000-8000-000000000001",
			},
		},
		{
			name: "all fields by default",
			req:  models.SearchRequest{Query: "WEB"},
			want: []string{
				"00000000-0000-4000-8000-000000000003",
				"00000000-0000-4000-8000-000000000001",
			},
		},
		{
			name: "name only excludes node identity match",
			req:  models.SearchRequest{Query: "web", Fields: []string{"Name"}},
			want: []string{"00000000-0000-4000-8000-000000000001"},
		},
		{
			name: "policy field covers node identities",
			req:  models.SearchRequest{Query: "edge-web", Fields: []string{"Policy"}},
			want: []string{"00000000-0000-4000-8000-000000000003"},
		},
		{
			name: "policy field covers service identities",
			req:  models.SearchRequest{Query: "billing", Fields: []string{"Policy"}},
			want: []string{"00000000-0000-4000-8000-000000000002"},
		},
		{
			name: "role names",
			req:  models.SearchRequest{Query: "operators", Fields: []string{"Role"}},
			want: []string{"00000000-0000-4000-8000-000000000002"},
		},
		{
			name: "comma separated fields",
			req:  models.SearchRequest{Query: "public", Fields: []string{"Name,Description"}},
			want: []string{"00000000-0000-4000-8000-000000000001"},
		},
		{
			name: "every term must match",
			req:  models.SearchRequest{Query: "web public", Fields: []string{"Name", "Description"}},
			want: []string{"00000000-0000-4000-8000-000000000001"},
		},
		{
			name: "accessor id fragment",
			req:  models.SearchRequest{Query: "000000000003", Fields: []string{"AccessorID"}},
			want: []string{"00000000-0000-4000-8000-000000000003"},
		},
		{
			name: "structural filter by locality",
			req:  models.SearchRequest{Filter: models.ListFilter{Locality: models.LocalityLocal}},
			want: []string{"00000000-0000-4000-8000-000000000002"},
		},
		{
			name: "structural filter by policy id with query",
			req:  models.SearchRequest{Query: "frontend", Filter: models.ListFilter{PolicyID: webPolicyID}},
			want: []string{"00000000-0000-4000-8000-000000000001"},
		},
		{
			name: "no match",
			req:  models.SearchRequest{Query: "nothing-like-this"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			got, err := svc.SearchTokens(ctx, &req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, accessorIDs(got))
		})
	}

	assert.Positive(t, promtestutil.ToFloat64(m.Searches.WithLabelValues("Policy")))
}

func TestSearchTokens_UnknownFieldIsValidationError(t *testing.T) {
	svc := New(tokenstore.NewInMemory(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.SearchTokens(context.Background(), &models.SearchRequest{Query: "x", Fields: []string{"Secret"}})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSearchTokens_NilRequestListsAll(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := New(seedSearchStore(t, now), WithClock(func() time.Time { return now }))

	got, err := svc.SearchTokens(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearchTokens_LeavesCallerRequestUntouched(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := New(seedSearchStore(t, now), WithClock(func() time.Time { return now }))

	req := &models.SearchRequest{
		Query:  "  web  ",
		Fields: []string{"Name, Policy", " Name "},
		Filter: models.ListFilter{PolicyID: " " + webPolicyID + " "},
	}
	got, err := svc.SearchTokens(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000000-0000-4000-8000-000000000001"}, accessorIDs(got))

	assert.Equal(t, "  web  ", req.Query)
	assert.Equal(t, []string{"Name, Policy", " Name "}, req.Fields)
	assert.Equal(t, " "+webPolicyID+" ", req.Filter.PolicyID)
}
