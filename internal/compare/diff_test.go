package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

var tupleColumns = []string{"pk_1", "column_name", "data_type", "old_value", "new_value", "diff_category", "is_duplicate"}

func testDiff() DiffRelation {
	return DiffRelation{With: "ok AS (x), nk AS (y), m AS (z)", Body: "SELECT 1", PK: []string{"id"}}
}

func TestDiffRelation_Wrap(t *testing.T) {
	r := testDiff()
	assert.Equal(t, "WITH ok AS (x), nk AS (y), m AS (z)\nSELECT 1", r.SQL())
	assert.Equal(t, "WITH ok AS (x), nk AS (y), m AS (z),\nd AS (\nSELECT 1\n)\nSELECT COUNT(*) FROM d", r.Wrap("SELECT COUNT(*) FROM d"))
}

func TestDiffRelation_FetchSQL(t *testing.T) {
	dup := true
	query, args := testDiff().FetchSQL(&engine.PostgresDialect{}, Filter{Column: "name", Duplicate: &dup}, 10)

	assert.Contains(t, query, "SELECT d.pk_1, d.column_name, d.data_type, d.old_value, d.new_value, d.diff_category, d.is_duplicate FROM d")
	assert.Contains(t, query, "WHERE d.column_name = $1 AND d.is_duplicate = $2")
	assert.Contains(t, query, "ORDER BY d.column_name, d.pk_1, d.diff_category LIMIT 10")
	assert.Equal(t, []interface{}{"name", 1}, args)
}

func TestDiffRelation_Count(t *testing.T) {
	sess, mock := newSession(t, &engine.MySQLDialect{})

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM d WHERE d.diff_category = \\?").
		WithArgs("rounding").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	n, err := testDiff().Count(context.Background(), sess, Filter{Category: classify.Rounding})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiffRelation_Fetch(t *testing.T) {
	sess, mock := newSession(t, &engine.MySQLDialect{})

	mock.ExpectQuery("FROM d WHERE d.column_name = \\? ORDER BY d.column_name, d.pk_1, d.diff_category LIMIT 2").
		WithArgs("name").
		WillReturnRows(sqlmock.NewRows(tupleColumns).
			AddRow("1", "name", "string", "flauta", "Flauta", "capitalization_added", 0).
			AddRow("2", "name", "string", nil, "x", "null_added", 1))

	tuples, err := testDiff().Fetch(context.Background(), sess, Filter{Column: "name"}, 2)
	require.NoError(t, err)
	require.Len(t, tuples, 2)

	assert.Equal(t, DiffTuple{
		Key:      types.Key{types.NewValue("1")},
		Column:   "name",
		DataType: types.TypeString,
		Old:      types.NewValue("flauta"),
		New:      types.NewValue("Flauta"),
		Category: classify.CapitalizationAdded,
	}, tuples[0])
	assert.True(t, tuples[1].Old.IsNull())
	assert.True(t, tuples[1].Duplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiffRelation_FetchRequiresLimit(t *testing.T) {
	sess, _ := newSession(t, &engine.MySQLDialect{})
	_, err := testDiff().Fetch(context.Background(), sess, Filter{}, 0)
	assert.Error(t, err)
}

func TestDiffRelation_FetchEngineFailure(t *testing.T) {
	sess, mock := newSession(t, &engine.MySQLDialect{})
	mock.ExpectQuery("FROM d").WillReturnError(errors.New("lost connection"))

	_, err := testDiff().Fetch(context.Background(), sess, Filter{}, 5)
	assert.True(t, errors.Is(err, engine.ErrEngineFailure))
}

func TestUnsupportedTypeError(t *testing.T) {
	err := &UnsupportedTypeError{Column: "photo", Side: "new", SQLType: "blob"}
	assert.Equal(t, `column "photo" has unsupported new type blob`, err.Error())
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}
