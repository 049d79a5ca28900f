package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tokenscope/internal/acl/models"
	"tokenscope/internal/acl/search"
)

// SearchTokens lists live tokens that pass the structural filter and whose
// selected fields contain every term of the query. Results are ordered
// newest first, ties broken by accessor ID.
func (s *Service) SearchTokens(ctx context.Context, req *models.SearchRequest) (_ []*models.Token, err error) {
	var normalized models.SearchRequest
	if req != nil {
		normalized = *req
	}
	normalized.Normalize()
	req = &normalized

	ctx, span := startSpan(ctx, "acl.SearchTokens",
		attribute.Int("tokenscope.search.terms", len(search.TokenizeQuery(req.Query))),
		attribute.StringSlice("tokenscope.search.fields", req.Fields),
	)
	defer func() { endSpan(span, err) }()

	fields, err := search.ParseFields(req.Fields)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates, err := s.tokens.List(ctx, req.Filter)
	if err != nil {
		return nil, translateStoreError(err, "list tokens")
	}

	now := s.now(ctx)
	live := make([]*models.Token, 0, len(candidates))
	for _, t := range candidates {
		if t != nil && !t.IsExpired(now) {
			live = append(live, t)
		}
	}

	matcher := search.NewMatcher(req.Query, fields)
	results := matcher.Filter(live)
	slices.SortFunc(results, func(a, b *models.Token) int {
		if c := b.CreateTime.Compare(a.CreateTime); c != 0 {
			return c
		}
		return cmp.Compare(a.AccessorID, b.AccessorID)
	})

	span.SetAttributes(attribute.Int("tokenscope.search.results", len(results)))
	if s.metrics != nil {
		names := make([]string, 0, len(matcher.Fields()))
		for _, f := range matcher.Fields() {
			names = append(names, f.String())
		}
		s.metrics.ObserveSearch(names, time.Since(start), len(results))
	}
	s.logger.DebugContext(ctx, "token search",
		"terms", len(matcher.Terms()),
		"candidates", len(candidates),
		"results", len(results),
	)
	return results, nil
}
