// Package types contains shared types used across multiple packages to avoid import cycles.
package types

// DataType is the comparison family of a column. Every column and every
// diff tuple carries one explicitly; classification dispatches on it.
type DataType string

const (
	TypeString   DataType = "string"
	TypeInteger  DataType = "integer"
	TypeFloating DataType = "floating"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeOther    DataType = "other"

	// TypeUnsupported marks engine types that cannot be compared or
	// rendered as text (binary, spatial, ...). Columns of this type are
	// skipped, never compared.
	TypeUnsupported DataType = "unsupported"
)

// IsNumeric reports whether the type takes part in numeric classification rules.
func (t DataType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloating
}

// Comparable reports whether values of this type can be compared at all.
func (t DataType) Comparable() bool {
	return t != TypeUnsupported && t != ""
}

// CompatibleWith reports whether two declared types can be joined or compared
// without a text cast. Integer and floating coerce into each other.
func (t DataType) CompatibleWith(other DataType) bool {
	if !t.Comparable() || !other.Comparable() {
		return false
	}
	if t == other {
		return true
	}
	return t.IsNumeric() && other.IsNumeric()
}

// Widen returns the type two compatible types are compared as.
func (t DataType) Widen(other DataType) DataType {
	if t == other {
		return t
	}
	if t.IsNumeric() && other.IsNumeric() {
		return TypeFloating
	}
	return TypeOther
}

// String implements fmt.Stringer.
func (t DataType) String() string {
	return string(t)
}
