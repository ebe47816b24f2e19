package classify

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

// Equal is the Go rendition of the column equality policy: NULL equals
// NULL, strings compare byte-exact, numbers compare by value (within
// Tolerance for floating columns), mismatched columns compare as text.
func Equal(col ColumnInfo, old, new types.Value, opts Options) bool {
	if old.IsNull() || new.IsNull() {
		return old.IsNull() && new.IsNull()
	}
	if col.Mismatched() {
		return old.String == new.String
	}

	switch t := col.Type(); {
	case t.IsNumeric():
		o, ok1 := parseDecimal(old)
		n, ok2 := parseDecimal(new)
		if !ok1 || !ok2 {
			return old.String == new.String
		}
		if t == types.TypeFloating && opts.Tolerance > 0 {
			return o.Sub(n).Abs().LessThanOrEqual(decimal.NewFromFloat(opts.Tolerance))
		}
		return o.Equal(n)
	case t == types.TypeBoolean:
		o, ok1 := booleanText(old)
		n, ok2 := booleanText(new)
		if !ok1 || !ok2 {
			return old.String == new.String
		}
		return o == n
	default:
		return old.String == new.String
	}
}

// NotEqualSQL renders the column's inequality predicate over the old/new
// expressions. A diff tuple is emitted exactly when it holds.
func NotEqualSQL(d engine.Dialect, col ColumnInfo, o, n string, opts Options) string {
	if col.Mismatched() {
		return "NOT (" + d.NullSafeStrictEqual(d.CastText(o), d.CastText(n)) + ")"
	}

	switch t := col.Type(); {
	case t == types.TypeString:
		return "NOT (" + d.NullSafeStrictEqual(o, n) + ")"
	case t == types.TypeFloating && opts.Tolerance > 0:
		tol := strconv.FormatFloat(opts.Tolerance, 'f', -1, 64)
		return fmt.Sprintf("CASE WHEN %[1]s IS NULL AND %[2]s IS NULL THEN 0 "+
			"WHEN %[1]s IS NULL OR %[2]s IS NULL THEN 1 "+
			"WHEN ABS(%[1]s - %[2]s) > %[3]s THEN 1 ELSE 0 END = 1", o, n, tol)
	default:
		return "NOT (" + d.NullSafeEqual(o, n) + ")"
	}
}
