// Package strings provides helpers for cleaning list-valued inputs such as
// repeated or comma-separated query parameters.
package strings

import (
	"strings"
)

// SplitList flattens comma-separated entries into individual values.
//
//	SplitList([]string{"Name,Policy", "Role"})
//	// Returns: []string{"Name", "Policy", "Role"}
func SplitList(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// DedupeAndTrim removes duplicates and blank entries, trimming whitespace
// from each element. Order of first occurrence is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
