package relation

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/types"
)

// ColumnPair is a column present on both sides. Name keeps the old side's
// spelling; NewName is the new side's, which matters for engines with
// case-sensitive quoted identifiers.
type ColumnPair struct {
	Name       string         `json:"name" yaml:"name"`
	NewName    string         `json:"new_name" yaml:"new_name"`
	OldType    types.DataType `json:"old_type" yaml:"old_type"`
	NewType    types.DataType `json:"new_type" yaml:"new_type"`
	OldSQLType string         `json:"old_sql_type" yaml:"old_sql_type"`
	NewSQLType string         `json:"new_sql_type" yaml:"new_sql_type"`
}

// TypeMismatch reports whether the two sides declare different type families.
func (c ColumnPair) TypeMismatch() bool {
	return c.OldType != c.NewType && !c.OldType.CompatibleWith(c.NewType)
}

// Drift lists columns present on only one side. They are reported and
// excluded from value comparison.
type Drift struct {
	OldOnly []string `json:"old_only" yaml:"old_only"`
	NewOnly []string `json:"new_only" yaml:"new_only"`
}

// Empty reports whether both schemas carry the same column names.
func (d Drift) Empty() bool {
	return len(d.OldOnly) == 0 && len(d.NewOnly) == 0
}

// Pair is a validated old/new relation pair with its primary key.
// It is immutable after NewPair returns.
type Pair struct {
	old    Relation
	new    Relation
	keys   []ColumnPair
	shared []ColumnPair
	drift  Drift
}

// NewPair validates that both relations expose every primary key column
// with compatible types.
func NewPair(old, new Relation, pk []string) (*Pair, error) {
	if len(pk) == 0 {
		return nil, &SchemaMismatchError{Relation: "pair", Reason: "primary key requires at least one column"}
	}

	p := &Pair{old: old, new: new}
	isKey := make(map[string]bool, len(pk))

	for _, name := range pk {
		lower := strings.ToLower(name)
		if isKey[lower] {
			return nil, &SchemaMismatchError{Relation: "pair", Column: name, Reason: "primary key column listed twice"}
		}
		isKey[lower] = true

		oc, ok := old.Column(name)
		if !ok {
			return nil, &SchemaMismatchError{Relation: old.String(), Column: name, Reason: "primary key column missing"}
		}
		nc, ok := new.Column(name)
		if !ok {
			return nil, &SchemaMismatchError{Relation: new.String(), Column: name, Reason: "primary key column missing"}
		}
		if !oc.Type.CompatibleWith(nc.Type) {
			return nil, &SchemaMismatchError{
				Relation: "pair",
				Column:   oc.Name,
				Reason:   fmt.Sprintf("incompatible key types %s (%s) and %s (%s)", oc.Type, oc.SQLType, nc.Type, nc.SQLType),
			}
		}
		p.keys = append(p.keys, columnPair(oc, nc))
	}

	for _, oc := range old.Columns {
		nc, ok := new.Column(oc.Name)
		switch {
		case !ok:
			p.drift.OldOnly = append(p.drift.OldOnly, oc.Name)
		case !isKey[strings.ToLower(oc.Name)]:
			p.shared = append(p.shared, columnPair(oc, nc))
		}
	}
	for _, nc := range new.Columns {
		if _, ok := old.Column(nc.Name); !ok {
			p.drift.NewOnly = append(p.drift.NewOnly, nc.Name)
		}
	}

	return p, nil
}

func columnPair(oc, nc Column) ColumnPair {
	return ColumnPair{
		Name:       oc.Name,
		NewName:    nc.Name,
		OldType:    oc.Type,
		NewType:    nc.Type,
		OldSQLType: oc.SQLType,
		NewSQLType: nc.SQLType,
	}
}

func (p *Pair) Old() Relation { return p.old }
func (p *Pair) New() Relation { return p.new }

// OldSchema returns the old side's column name -> data type.
func (p *Pair) OldSchema() map[string]types.DataType { return p.old.Schema() }

// NewSchema returns the new side's column name -> data type.
func (p *Pair) NewSchema() map[string]types.DataType { return p.new.Schema() }

// PKColumns returns the key column names in key order, old-side spelling.
func (p *Pair) PKColumns() []string {
	names := make([]string, len(p.keys))
	for i, k := range p.keys {
		names[i] = k.Name
	}
	return names
}

// Keys returns the key columns with both sides' spelling and types.
func (p *Pair) Keys() []ColumnPair {
	return append([]ColumnPair(nil), p.keys...)
}

// SharedColumns returns the non-key columns present on both sides, in the
// old side's ordinal order.
func (p *Pair) SharedColumns() []ColumnPair {
	return append([]ColumnPair(nil), p.shared...)
}

// Drift returns the schema drift between the two sides.
func (p *Pair) Drift() Drift {
	return Drift{
		OldOnly: append([]string(nil), p.drift.OldOnly...),
		NewOnly: append([]string(nil), p.drift.NewOnly...),
	}
}
