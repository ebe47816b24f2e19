package engine

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/sqlutil"
	"github.com/dbsmedya/goregress/internal/types"
)

// PostgresDialect targets PostgreSQL 11+.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return sqlutil.QuoteANSIIdentifier(name)
}

func (d *PostgresDialect) QuoteTable(name string) (string, error) {
	return sqlutil.QuoteQualifiedSafe(name, sqlutil.QuoteANSIIdentifier)
}

func (d *PostgresDialect) QuoteString(s string) string {
	return sqlutil.QuoteString(s, false)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) ColumnsQuery(qualified bool) string {
	where := "table_schema = current_schema() AND table_name = $1"
	if qualified {
		where = "table_schema = $1 AND table_name = $2"
	}
	return `SELECT column_name,
		CASE WHEN data_type IN ('USER-DEFINED', 'ARRAY') THEN udt_name ELSE data_type END
		FROM information_schema.columns
		WHERE ` + where + `
		ORDER BY ordinal_position`
}

// MapType accepts information_schema data_type values ("character varying",
// "timestamp with time zone") and driver type names ("INT4", "FLOAT8").
func (d *PostgresDialect) MapType(sqlType string) types.DataType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "text", "varchar", "character varying", "character", "char", "bpchar", "name", "citext":
		return types.TypeString
	case "smallint", "integer", "bigint", "int", "int2", "int4", "int8":
		return types.TypeInteger
	case "numeric", "decimal", "real", "double precision", "float4", "float8":
		return types.TypeFloating
	case "boolean", "bool":
		return types.TypeBoolean
	case "date", "timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone":
		return types.TypeDate
	// json and xml have no equality operator; geometric types only compare by area.
	case "bytea", "json", "xml", "point", "line", "lseg", "box", "path", "polygon", "circle":
		return types.TypeUnsupported
	default:
		return types.TypeOther
	}
}

func (d *PostgresDialect) NullSafeEqual(a, b string) string {
	return fmt.Sprintf("%s IS NOT DISTINCT FROM %s", a, b)
}

func (d *PostgresDialect) StrictEqual(a, b string) string {
	return fmt.Sprintf("%s = %s", a, b)
}

func (d *PostgresDialect) NullSafeStrictEqual(a, b string) string {
	return fmt.Sprintf("%s IS NOT DISTINCT FROM %s", a, b)
}

func (d *PostgresDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", expr)
}

func (d *PostgresDialect) Round(expr string, precision int) string {
	return fmt.Sprintf("ROUND(CAST(%s AS NUMERIC), %d)", expr, precision)
}

func (d *PostgresDialect) NormalizeWhitespace(expr string) string {
	return fmt.Sprintf(`BTRIM(REGEXP_REPLACE(%s, '\s+', ' ', 'g'))`, expr)
}
