package search

import (
	"strings"

	"tokenscope/internal/acl/models"
)

// TokenizeQuery splits a query into lower-cased terms. Returns nil for
// blank input.
func TokenizeQuery(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(p))
	}
	return out
}

// Matcher tests tokens against a free-text query over a set of fields.
type Matcher struct {
	query  string
	terms  []string
	fields []Field
}

// NewMatcher builds a matcher. An empty field list searches every field.
// Fields must already be validated; unknown ones are skipped.
func NewMatcher(query string, fields []Field) *Matcher {
	if len(fields) == 0 {
		fields = Fields()
	}
	return &Matcher{
		query:  query,
		terms:  TokenizeQuery(query),
		fields: fields,
	}
}

func (m *Matcher) Terms() []string {
	return m.terms
}

func (m *Matcher) Fields() []Field {
	return m.fields
}

// Match reports whether every query term is a case-insensitive substring of
// at least one value extracted from the selected fields. A query with no
// terms matches every token.
func (m *Matcher) Match(t *models.Token) bool {
	if t == nil {
		return false
	}
	if len(m.terms) == 0 {
		return true
	}
	haystack := m.values(t)
	for _, term := range m.terms {
		if !anyContains(haystack, term) {
			return false
		}
	}
	return true
}

// Filter returns the matching tokens in input order. Nil entries are dropped.
func (m *Matcher) Filter(tokens []*models.Token) []*models.Token {
	out := make([]*models.Token, 0, len(tokens))
	for _, t := range tokens {
		if m.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Matcher) values(t *models.Token) []string {
	var values []string
	for _, f := range m.fields {
		ex, ok := Lookup(f)
		if !ok {
			continue
		}
		for _, v := range ex(t, m.query).Strings() {
			values = append(values, strings.ToLower(v))
		}
	}
	return values
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}
