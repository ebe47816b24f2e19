package engine

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/sqlutil"
	"github.com/dbsmedya/goregress/internal/types"
)

// MySQLDialect targets MySQL 8.0+ (CTEs and window functions are required).
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return sqlutil.QuoteIdentifier(name)
}

func (d *MySQLDialect) QuoteTable(name string) (string, error) {
	return sqlutil.QuoteQualifiedSafe(name, sqlutil.QuoteIdentifier)
}

func (d *MySQLDialect) QuoteString(s string) string {
	return sqlutil.QuoteString(s, true)
}

func (d *MySQLDialect) Placeholder(index int) string {
	return "?"
}

func (d *MySQLDialect) ColumnsQuery(qualified bool) string {
	schema := "DATABASE()"
	if qualified {
		schema = "?"
	}
	return `SELECT COLUMN_NAME, COLUMN_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ` + schema + `
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`
}

// MapType accepts COLUMN_TYPE values ("decimal(10,2)", "int unsigned") as
// well as driver type names ("UNSIGNED BIGINT", "VARCHAR"). BOOL columns are
// tinyint(1) in information_schema but plain TINYINT in result metadata, so
// every tinyint maps to integer and both spellings agree.
func (d *MySQLDialect) MapType(sqlType string) types.DataType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.Index(t, "("); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(strings.NewReplacer("unsigned", "", "signed", "", "zerofill", "").Replace(t))

	switch t {
	case "char", "varchar", "text", "tinytext", "mediumtext", "longtext", "enum", "set":
		return types.TypeString
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return types.TypeInteger
	case "bool", "boolean":
		return types.TypeBoolean
	case "decimal", "numeric", "dec", "fixed", "float", "double", "real", "double precision":
		return types.TypeFloating
	case "date", "datetime", "timestamp":
		return types.TypeDate
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob", "bit",
		"geometry", "point", "linestring", "polygon", "multipoint", "multilinestring",
		"multipolygon", "geometrycollection", "vector":
		return types.TypeUnsupported
	default:
		return types.TypeOther
	}
}

func (d *MySQLDialect) NullSafeEqual(a, b string) string {
	return fmt.Sprintf("%s <=> %s", a, b)
}

// StrictEqual compares bytes; the default collations are case and
// trailing-space insensitive.
func (d *MySQLDialect) StrictEqual(a, b string) string {
	return fmt.Sprintf("CAST(%s AS BINARY) = CAST(%s AS BINARY)", a, b)
}

func (d *MySQLDialect) NullSafeStrictEqual(a, b string) string {
	return fmt.Sprintf("CAST(%s AS BINARY) <=> CAST(%s AS BINARY)", a, b)
}

func (d *MySQLDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", expr)
}

func (d *MySQLDialect) Round(expr string, precision int) string {
	return fmt.Sprintf("ROUND(CAST(%s AS DECIMAL(65,30)), %d)", expr, precision)
}

func (d *MySQLDialect) NormalizeWhitespace(expr string) string {
	return fmt.Sprintf("TRIM(REGEXP_REPLACE(%s, '[[:space:]]+', ' '))", expr)
}
