package classify

import (
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/types"
)

// ColumnInfo is the declared typing of one compared column.
type ColumnInfo struct {
	Name    string
	OldType types.DataType
	NewType types.DataType
}

// ColumnInfoFor builds the ColumnInfo of a shared column.
func ColumnInfoFor(c relation.ColumnPair) ColumnInfo {
	return ColumnInfo{Name: c.Name, OldType: c.OldType, NewType: c.NewType}
}

// Mismatched reports whether the two sides declare different type families.
// Such columns are compared as text.
func (c ColumnInfo) Mismatched() bool {
	return c.OldType != c.NewType && !c.OldType.CompatibleWith(c.NewType)
}

// Type is the type the column is compared and classified as.
func (c ColumnInfo) Type() types.DataType {
	if c.Mismatched() {
		return types.TypeOther
	}
	return c.OldType.Widen(c.NewType)
}

// Options carries the configurable parts of the equality and rounding policy.
type Options struct {
	Precision int
	Tolerance float64
}
