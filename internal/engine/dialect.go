package engine

import (
	"fmt"

	"github.com/dbsmedya/goregress/internal/types"
)

// Dialect abstracts the engine-specific SQL the pipeline emits.
type Dialect interface {
	// Name returns the config driver name ("mysql", "postgres").
	Name() string
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Quoting
	QuoteIdentifier(name string) string
	QuoteTable(name string) (string, error)
	QuoteString(s string) string
	Placeholder(index int) string // 1-based: ?, $1

	// Schema introspection. ColumnsQuery selects (column_name, type_name)
	// ordered by ordinal position. Arguments are the schema (only when
	// qualified) and the table name.
	ColumnsQuery(qualified bool) string
	MapType(sqlType string) types.DataType

	// Expressions. Arguments are already rendered SQL expressions.
	NullSafeEqual(a, b string) string
	StrictEqual(a, b string) string
	NullSafeStrictEqual(a, b string) string
	CastText(expr string) string
	Round(expr string, precision int) string
	NormalizeWhitespace(expr string) string
}

// GetDialect returns the Dialect for a config driver name.
func GetDialect(driver string) (Dialect, error) {
	switch driver {
	case "mysql", "":
		return &MySQLDialect{}, nil
	case "postgres":
		return &PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine driver %q", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*MySQLDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
