// Package classify assigns a semantic category to a pair of unequal values
// through an ordered rule chain. The same chain runs in Go and renders as a
// SQL CASE for in-engine classification.
package classify

// Category is a diff category tag.
type Category string

const (
	// NoDiff is only returned for equal values and never reaches a diff tuple.
	NoDiff Category = "no_diff"

	NullAdded             Category = "null_added"
	NullRemoved           Category = "null_removed"
	TypeMismatch          Category = "type_mismatch"
	CapitalizationAdded   Category = "capitalization_added"
	CapitalizationRemoved Category = "capitalization_removed"
	CapitalizationChanged Category = "capitalization_changed"
	WhitespaceOnly        Category = "whitespace_only"
	Rounding              Category = "rounding"
	SignChanged           Category = "sign_changed"
	ValueChanged          Category = "value_changed"
)

func (c Category) String() string {
	return string(c)
}
