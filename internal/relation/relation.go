// Package relation describes the two sides of a regression test and
// validates that they can be aligned by primary key.
package relation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

// ErrRelationNotFound is returned when a table has no visible columns.
var ErrRelationNotFound = errors.New("relation not found")

// Column is one named, typed column of a relation.
type Column struct {
	Name    string         `json:"name" yaml:"name"`
	SQLType string         `json:"sql_type" yaml:"sql_type"`
	Type    types.DataType `json:"type" yaml:"type"`
}

// Relation is a table or a SELECT query living in the engine. Only its
// schema is held in process.
type Relation struct {
	Name    string
	Table   string
	Query   string
	Columns []Column
}

// From renders the relation as a FROM-clause operand, without alias.
func (r Relation) From(d engine.Dialect) (string, error) {
	if r.Query != "" {
		q := strings.TrimRight(strings.TrimSpace(r.Query), ";")
		return "(" + q + ")", nil
	}
	return d.QuoteTable(r.Table)
}

// Column looks a column up by name, case-insensitively.
func (r Relation) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Schema returns column name -> data type.
func (r Relation) Schema() map[string]types.DataType {
	schema := make(map[string]types.DataType, len(r.Columns))
	for _, c := range r.Columns {
		schema[c.Name] = c.Type
	}
	return schema
}

func (r Relation) String() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Table != "" {
		return r.Table
	}
	return "query"
}

// ErrSchemaMismatch is matched by *SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a primary key column that is missing or
// type-incompatible between the two relations.
type SchemaMismatchError struct {
	Relation string
	Column   string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema mismatch in %s: %s", e.Relation, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s, column %q: %s", e.Relation, e.Column, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
