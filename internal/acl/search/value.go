package search

// Value is what an Extractor returns: either a single string or an ordered
// list of strings.
type Value struct {
	scalar string
	list   []string
	isList bool
}

func Scalar(s string) Value {
	return Value{scalar: s}
}

// List wraps ss. A nil slice becomes an empty, non-nil list.
func List(ss []string) Value {
	if ss == nil {
		ss = []string{}
	}
	return Value{list: ss, isList: true}
}

func (v Value) IsList() bool {
	return v.isList
}

// Scalar returns the string of a scalar value and "" for lists.
func (v Value) Scalar() string {
	return v.scalar
}

// Strings returns the value as a list: the elements of a list value, or a
// one-element slice holding a scalar.
func (v Value) Strings() []string {
	if v.isList {
		return v.list
	}
	return []string{v.scalar}
}
