package types

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// Value is a nullable cell rendered as text by the engine.
type Value struct {
	String string
	Valid  bool
}

// NewValue returns a non-null value.
func NewValue(s string) Value {
	return Value{String: s, Valid: true}
}

// Null returns the SQL NULL value.
func Null() Value {
	return Value{}
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool {
	return !v.Valid
}

// Text renders the value for display, NULL as "NULL".
func (v Value) Text() string {
	if !v.Valid {
		return "NULL"
	}
	return v.String
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src interface{}) error {
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	v.String, v.Valid = ns.String, ns.Valid
	return nil
}

// MarshalJSON renders NULL as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.String)
}

// MarshalYAML renders NULL as YAML null.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.String, nil
}

// Key is one primary key value, one component per key column.
type Key []Value

// String renders a single-column key bare and a composite key as a tuple.
func (k Key) String() string {
	if len(k) == 1 {
		return k[0].Text()
	}
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.Text()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
