// Package search projects ACL tokens onto the text fields an admin search
// matches against.
//
// Each searchable Field has an Extractor in a fixed registry. The registry is
// built at init and read-only afterwards, so extractors may be called from
// any number of goroutines.
package search

import (
	"fmt"

	dErrors "tokenscope/pkg/domain-errors"
)

// Field names a searchable token property.
type Field string

const (
	FieldName        Field = "Name"
	FieldDescription Field = "Description"
	FieldAccessorID  Field = "AccessorID"
	FieldRole        Field = "Role"
	FieldPolicy      Field = "Policy"
)

var fieldOrder = []Field{
	FieldName,
	FieldDescription,
	FieldAccessorID,
	FieldRole,
	FieldPolicy,
}

// Fields returns every registered field in canonical order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

func (f Field) String() string {
	return string(f)
}

// ParseField accepts the canonical spelling of a registered field.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := Lookup(f); !ok {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown search property %q", s))
	}
	return f, nil
}

// ParseFields validates every key. An empty input yields nil, which the
// matcher reads as "all fields".
func ParseFields(keys []string) ([]Field, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
