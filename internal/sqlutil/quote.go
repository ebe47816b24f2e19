// Package sqlutil provides SQL quoting helpers shared by the engine dialects.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// It escapes any existing backticks by doubling them.
// Example: "my_table" -> "`my_table`"
// Example: "my`table" -> "`my“table`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteANSIIdentifier quotes an identifier with double quotes (PostgreSQL, SQL standard).
// Example: `my"col` -> `"my""col"`
func QuoteANSIIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// validIdentifierRegex matches identifier characters accepted from configuration.
// For safety, we restrict to alphanumeric and underscore only.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a valid identifier.
// It validates that the name only contains alphanumeric characters and underscores.
// This is a defense-in-depth measure against SQL injection.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteQualifiedSafe validates and quotes a possibly schema-qualified name
// ("schema.table") part by part with the given quoting function.
// Use this for table names that come from configuration.
func QuoteQualifiedSafe(name string, quote func(string) string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", &InvalidIdentifierError{Name: name}
	}
	quoted := make([]string, len(parts))
	for i, part := range parts {
		if !IsValidIdentifier(part) {
			return "", &InvalidIdentifierError{Name: name}
		}
		quoted[i] = quote(part)
	}
	return strings.Join(quoted, "."), nil
}

// SplitQualified splits "schema.table" into its parts. Schema is empty for bare names.
func SplitQualified(name string) (schema, table string) {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// QuoteString renders s as a SQL string literal. With backslashEscapes
// (MySQL default sql_mode) backslashes are doubled as well.
func QuoteString(s string, backslashEscapes bool) string {
	if backslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
