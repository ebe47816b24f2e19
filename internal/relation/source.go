package relation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/sqlutil"
)

// Source yields a Relation with a known schema.
type Source interface {
	Resolve(ctx context.Context, sess *engine.Session) (Relation, error)
}

// FromConfig returns the Source described by a test's relation config.
func FromConfig(name string, rc config.RelationConfig) Source {
	if rc.Query != "" {
		return QuerySource{Name: name, Query: rc.Query}
	}
	return TableSource{Table: rc.Table}
}

// TableSource reads a table's schema from information_schema.
type TableSource struct {
	Table string
}

func (s TableSource) Resolve(ctx context.Context, sess *engine.Session) (Relation, error) {
	d := sess.Dialect()
	if _, err := d.QuoteTable(s.Table); err != nil {
		return Relation{}, err
	}

	schema, table := sqlutil.SplitQualified(s.Table)
	args := []interface{}{table}
	if schema != "" {
		args = []interface{}{schema, table}
	}

	rel := Relation{Name: s.Table, Table: s.Table}
	err := sess.Each(ctx, "describe", d.ColumnsQuery(schema != ""), func(rows *sql.Rows) error {
		var c Column
		if err := rows.Scan(&c.Name, &c.SQLType); err != nil {
			return err
		}
		c.Type = d.MapType(c.SQLType)
		rel.Columns = append(rel.Columns, c)
		return nil
	}, args...)
	if err != nil {
		return Relation{}, fmt.Errorf("failed to describe table %s: %w", s.Table, err)
	}

	if len(rel.Columns) == 0 {
		return Relation{}, fmt.Errorf("%w: table %s", ErrRelationNotFound, s.Table)
	}
	return rel, nil
}

// QuerySource derives a query's schema from an empty probe of its result.
type QuerySource struct {
	Name  string
	Query string
}

func (s QuerySource) Resolve(ctx context.Context, sess *engine.Session) (Relation, error) {
	rel := Relation{Name: s.Name, Query: s.Query}
	from, err := rel.From(sess.Dialect())
	if err != nil {
		return Relation{}, err
	}

	rows, err := sess.Query(ctx, "describe", "SELECT * FROM "+from+" probe WHERE 1=0")
	if err != nil {
		return Relation{}, fmt.Errorf("failed to probe query %s: %w", s.Name, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return Relation{}, fmt.Errorf("failed to read column types of %s: %w", s.Name, err)
	}

	for _, ct := range colTypes {
		rel.Columns = append(rel.Columns, Column{
			Name:    ct.Name(),
			SQLType: ct.DatabaseTypeName(),
			Type:    sess.Dialect().MapType(ct.DatabaseTypeName()),
		})
	}
	return rel, nil
}
