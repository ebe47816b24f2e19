package compare

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

// DiffAlias is the name the diff relation is bound to by Wrap.
const DiffAlias = "d"

// DiffTuple is one value-level difference for a (key, column) pair.
type DiffTuple struct {
	Key       types.Key         `json:"key" yaml:"key"`
	Column    string            `json:"column" yaml:"column"`
	DataType  types.DataType    `json:"data_type" yaml:"data_type"`
	Old       types.Value       `json:"old_value" yaml:"old_value"`
	New       types.Value       `json:"new_value" yaml:"new_value"`
	Category  classify.Category `json:"diff_category" yaml:"diff_category"`
	Duplicate bool              `json:"is_duplicate" yaml:"is_duplicate"`
}

// DiffRelation is the relation of all diff tuples, kept as SQL. Its columns
// are pk_1..pk_k, column_name, data_type, old_value, new_value,
// diff_category and is_duplicate.
type DiffRelation struct {
	With  string
	Body  string
	PK    []string
	Empty bool
}

// SQL returns the standalone statement.
func (r DiffRelation) SQL() string {
	return "WITH " + r.With + "\n" + r.Body
}

// Wrap binds the relation to DiffAlias and appends the outer statement,
// which selects FROM d.
func (r DiffRelation) Wrap(outer string) string {
	return fmt.Sprintf("WITH %s,\n%s AS (\n%s\n)\n%s", r.With, DiffAlias, r.Body, outer)
}

// Columns returns the output column list qualified by alias.
func (r DiffRelation) Columns(alias string) string {
	return align.KeyList(alias, len(r.PK)) + ", " + strings.Join([]string{
		alias + ".column_name",
		alias + ".data_type",
		alias + ".old_value",
		alias + ".new_value",
		alias + ".diff_category",
		alias + ".is_duplicate",
	}, ", ")
}

// Filter narrows the diff relation. Zero fields match everything.
type Filter struct {
	Column    string
	Category  classify.Category
	Duplicate *bool
}

func (f Filter) where(d engine.Dialect) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s.%s = %s", DiffAlias, col, d.Placeholder(len(args))))
	}
	if f.Column != "" {
		add("column_name", f.Column)
	}
	if f.Category != "" {
		add("diff_category", string(f.Category))
	}
	if f.Duplicate != nil {
		dup := 0
		if *f.Duplicate {
			dup = 1
		}
		add("is_duplicate", dup)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Count returns the number of tuples matching f.
func (r DiffRelation) Count(ctx context.Context, sess *engine.Session, f Filter) (int64, error) {
	where, args := f.where(sess.Dialect())
	query := r.Wrap("SELECT COUNT(*) FROM " + DiffAlias + where)

	var n int64
	if err := sess.QueryOne(ctx, "diff", query, []interface{}{&n}, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// FetchSQL returns the statement Fetch executes and its arguments.
func (r DiffRelation) FetchSQL(d engine.Dialect, f Filter, limit int) (string, []interface{}) {
	where, args := f.where(d)
	order := DiffAlias + ".column_name, " + align.KeyList(DiffAlias, len(r.PK)) + ", " + DiffAlias + ".diff_category"
	return r.Wrap(fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d",
		r.Columns(DiffAlias), DiffAlias, where, order, limit)), args
}

// Fetch realizes at most limit tuples matching f, ordered by column then key.
func (r DiffRelation) Fetch(ctx context.Context, sess *engine.Session, f Filter, limit int) ([]DiffTuple, error) {
	if limit <= 0 {
		return nil, errors.New("fetch requires a positive limit")
	}
	query, args := r.FetchSQL(sess.Dialect(), f, limit)

	var tuples []DiffTuple
	err := sess.Each(ctx, "diff", query, func(rows *sql.Rows) error {
		t, err := ScanTuple(rows, len(r.PK))
		if err != nil {
			return err
		}
		tuples = append(tuples, t)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return tuples, nil
}

// ScanTuple scans one row laid out as Columns into a DiffTuple. Extra
// trailing columns are scanned into extra.
func ScanTuple(rows *sql.Rows, k int, extra ...interface{}) (DiffTuple, error) {
	var t DiffTuple
	var dataType, category string
	t.Key = make(types.Key, k)

	dest := make([]interface{}, 0, k+6+len(extra))
	for i := range t.Key {
		dest = append(dest, &t.Key[i])
	}
	dest = append(dest, &t.Column, &dataType, &t.Old, &t.New, &category, &t.Duplicate)
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return DiffTuple{}, err
	}
	t.DataType = types.DataType(dataType)
	t.Category = classify.Category(category)
	return t, nil
}
