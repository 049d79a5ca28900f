package search

import "tokenscope/internal/acl/models"

// Extractor projects a token onto the value(s) matched for one field.
//
// value is the query value the caller is matching with. Extractors accept it
// so every field shares one call signature, and ignore it. token must not be
// nil.
type Extractor func(token *models.Token, value string) Value

var predicates = map[Field]Extractor{
	FieldName: func(t *models.Token, _ string) Value {
		return Scalar(t.Name)
	},
	FieldDescription: func(t *models.Token, _ string) Value {
		return Scalar(t.Description)
	},
	FieldAccessorID: func(t *models.Token, _ string) Value {
		return Scalar(t.AccessorID)
	},
	FieldRole: func(t *models.Token, _ string) Value {
		names := make([]string, 0, len(t.Roles))
		for _, r := range t.Roles {
			names = append(names, r.Name)
		}
		return List(names)
	},
	// Policy covers everything that grants policy to a token: linked
	// policies, then service identities, then node identities.
	FieldPolicy: func(t *models.Token, _ string) Value {
		names := make([]string, 0, len(t.Policies)+len(t.ServiceIdentities)+len(t.NodeIdentities))
		for _, p := range t.Policies {
			names = append(names, p.Name)
		}
		for _, si := range t.ServiceIdentities {
			names = append(names, si.ServiceName)
		}
		for _, ni := range t.NodeIdentities {
			names = append(names, ni.NodeName)
		}
		return List(names)
	},
}

// Lookup returns the extractor registered for f. Unknown fields report false;
// callers validate keys with ParseField before reaching the matcher.
func Lookup(f Field) (Extractor, bool) {
	ex, ok := predicates[f]
	return ex, ok
}
