package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

// Rule is one step of the classification chain.
//
// Applies restricts the rule to column types; nil applies everywhere.
// Match is the Go rendition, SQL the engine rendition over the already
// rendered old/new expressions. SQL may return "" when the rule cannot fire
// inside the engine for the given column.
type Rule struct {
	Category Category
	Applies  func(col ColumnInfo) bool
	Match    func(col ColumnInfo, old, new types.Value, opts Options) bool
	SQL      func(d engine.Dialect, col ColumnInfo, o, n string, opts Options) string
}

func (r Rule) applies(col ColumnInfo) bool {
	return r.Applies == nil || r.Applies(col)
}

func isString(col ColumnInfo) bool  { return col.Type() == types.TypeString }
func isNumeric(col ColumnInfo) bool { return col.Type().IsNumeric() }

// lower folds with Unicode rules. A Caser is stateful, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseDecimal(v types.Value) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.String))
	return d, err == nil
}

// parses reports whether a non-null value's text is consistent with t.
func parses(t types.DataType, v types.Value) bool {
	if v.IsNull() {
		return true
	}
	switch t {
	case types.TypeInteger:
		d, ok := parseDecimal(v)
		return ok && d.IsInteger()
	case types.TypeFloating:
		_, ok := parseDecimal(v)
		return ok
	case types.TypeBoolean:
		_, ok := booleanText(v)
		return ok
	default:
		return true
	}
}

// booleanText normalizes a boolean value to "1" or "0". Integer text other
// than 0 and 1 is kept as is, since engines storing booleans as integers
// accept any integer and compare it by value.
func booleanText(v types.Value) (string, bool) {
	s := strings.TrimSpace(v.String)
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return "1", true
		}
		return "0", true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return "", false
	}
	return d.String(), true
}

// DefaultRules returns the built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: NullAdded,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				return old.IsNull() && !new.IsNull()
			},
			SQL: func(_ engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return fmt.Sprintf("%s IS NULL AND %s IS NOT NULL", o, n)
			},
		},
		{
			Category: NullRemoved,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				return !old.IsNull() && new.IsNull()
			},
			SQL: func(_ engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return fmt.Sprintf("%s IS NOT NULL AND %s IS NULL", o, n)
			},
		},
		{
			// Declared families differ, or a value does not fit its declared type.
			// The engine enforces declared types, so only the first half renders.
			Category: TypeMismatch,
			Match: func(col ColumnInfo, old, new types.Value, _ Options) bool {
				if col.Mismatched() {
					return true
				}
				return !parses(col.OldType, old) || !parses(col.NewType, new)
			},
			SQL: func(_ engine.Dialect, col ColumnInfo, _, _ string, _ Options) string {
				if col.Mismatched() {
					return "1=1"
				}
				return ""
			},
		},
		{
			// Old had no upper-case letters.
			Category: CapitalizationAdded,
			Applies:  isString,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				lo := lower(old.String)
				return lo == lower(new.String) && old.String == lo
			},
			SQL: func(d engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return fmt.Sprintf("%s AND %s",
					d.StrictEqual("LOWER("+o+")", "LOWER("+n+")"),
					d.StrictEqual(o, "LOWER("+o+")"))
			},
		},
		{
			// New has no upper-case letters.
			Category: CapitalizationRemoved,
			Applies:  isString,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				ln := lower(new.String)
				return lower(old.String) == ln && new.String == ln
			},
			SQL: func(d engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return fmt.Sprintf("%s AND %s",
					d.StrictEqual("LOWER("+o+")", "LOWER("+n+")"),
					d.StrictEqual(n, "LOWER("+n+")"))
			},
		},
		{
			Category: CapitalizationChanged,
			Applies:  isString,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				return lower(old.String) == lower(new.String)
			},
			SQL: func(d engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return d.StrictEqual("LOWER("+o+")", "LOWER("+n+")")
			},
		},
		{
			Category: WhitespaceOnly,
			Applies:  isString,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				return normalizeWhitespace(old.String) == normalizeWhitespace(new.String)
			},
			SQL: func(d engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return d.StrictEqual(d.NormalizeWhitespace(o), d.NormalizeWhitespace(n))
			},
		},
		{
			Category: Rounding,
			Applies:  isNumeric,
			Match: func(_ ColumnInfo, old, new types.Value, opts Options) bool {
				o, ok1 := parseDecimal(old)
				n, ok2 := parseDecimal(new)
				p := int32(opts.Precision)
				return ok1 && ok2 && o.Round(p).Equal(n.Round(p))
			},
			SQL: func(d engine.Dialect, _ ColumnInfo, o, n string, opts Options) string {
				return fmt.Sprintf("%s = %s", d.Round(o, opts.Precision), d.Round(n, opts.Precision))
			},
		},
		{
			Category: SignChanged,
			Applies:  isNumeric,
			Match: func(_ ColumnInfo, old, new types.Value, _ Options) bool {
				o, ok1 := parseDecimal(old)
				n, ok2 := parseDecimal(new)
				return ok1 && ok2 && o.Abs().Equal(n.Abs())
			},
			SQL: func(_ engine.Dialect, _ ColumnInfo, o, n string, _ Options) string {
				return fmt.Sprintf("ABS(%s) = ABS(%s)", o, n)
			},
		},
	}
}
