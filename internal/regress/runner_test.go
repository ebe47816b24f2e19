package regress

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/report"
	"github.com/dbsmedya/goregress/internal/types"
)

var (
	describeColumns  = []string{"COLUMN_NAME", "COLUMN_TYPE"}
	partitionColumns = []string{"records_old", "records_new", "pk_old", "pk_new", "matched", "old_only", "new_only", "duplicate_old", "duplicate_new", "matched_pairs"}
	groupColumns     = []string{"column_name", "diff_category", "is_duplicate", "cnt"}
	sampleColumns    = []string{"pk_1", "column_name", "data_type", "old_value", "new_value", "diff_category", "is_duplicate", "rn"}
)

func newSession(t *testing.T) (*engine.Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return engine.NewSession(db, &engine.MySQLDialect{}, logger.NewNop()), mock
}

func tacoTest() *config.TestConfig {
	return &config.TestConfig{
		Old:        config.RelationConfig{Table: "tacos_v1"},
		New:        config.RelationConfig{Table: "tacos_v2"},
		PrimaryKey: []string{"id"},
	}
}

func defaultCompare() config.CompareConfig {
	return config.DefaultConfig().Compare
}

func expectDescribe(mock sqlmock.Sqlmock, table string, rows ...[2]string) {
	r := sqlmock.NewRows(describeColumns)
	for _, row := range rows {
		r.AddRow(row[0], row[1])
	}
	mock.ExpectQuery("SELECT COLUMN_NAME, COLUMN_TYPE\\s+FROM information_schema.COLUMNS").
		WithArgs(table).
		WillReturnRows(r)
}

func expectTacoSchemas(mock sqlmock.Sqlmock) {
	schema := [][2]string{{"id", "int"}, {"name", "varchar(64)"}, {"price", "decimal(10,3)"}}
	expectDescribe(mock, "tacos_v1", schema...)
	expectDescribe(mock, "tacos_v2", schema...)
}

func TestNewRunner_Validation(t *testing.T) {
	sess, _ := newSession(t)

	_, err := NewRunner(nil, "t", tacoTest(), defaultCompare())
	assert.Error(t, err)

	_, err = NewRunner(sess, "t", nil, defaultCompare())
	assert.Error(t, err)

	r, err := NewRunner(sess, "t", tacoTest(), defaultCompare())
	require.NoError(t, err)
	assert.Equal(t, "t", r.TestName())
	assert.Equal(t, 5, r.CompareConfig().SampleSize)
}

func TestRun_TacoScenario(t *testing.T) {
	sess, mock := newSession(t)
	expectTacoSchemas(mock)

	mock.ExpectQuery("WITH ok AS .* AS records_old").
		WillReturnRows(sqlmock.NewRows(partitionColumns).AddRow(3, 3, 3, 3, 3, 0, 0, 0, 0, 3))
	mock.ExpectQuery("GROUP BY d.column_name, d.diff_category, d.is_duplicate").
		WillReturnRows(sqlmock.NewRows(groupColumns).
			AddRow("name", "capitalization_added", 0, 1).
			AddRow("price", "rounding", 0, 1))
	mock.ExpectQuery("ROW_NUMBER\\(\\) OVER").
		WillReturnRows(sqlmock.NewRows(sampleColumns).
			AddRow("3", "name", "string", "flauta", "Flauta", "capitalization_added", 0, 1).
			AddRow("1", "price", "floating", "3.001", "3.000", "rounding", 0, 1))

	r, err := NewRunner(sess, "tacos", tacoTest(), defaultCompare())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.VerdictFailure, rep.Verdict())
	assert.Equal(t, []string{"name", "price"}, rep.ColumnsDiff())
	assert.Equal(t, report.Counts{RecordOld: 3, RecordNew: 3, PKOld: 3, PKNew: 3}, rep.Counts())
	assert.Equal(t, []string{"id"}, rep.PK())
	assert.Equal(t, 0, rep.Disagreements())

	stat, ok := rep.Group("price", classify.Rounding)
	require.True(t, ok)
	assert.Equal(t, "33.3", stat.PercentDisplay())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_Reflexive(t *testing.T) {
	sess, mock := newSession(t)
	schema := [][2]string{{"id", "int"}, {"name", "varchar(64)"}}
	expectDescribe(mock, "tacos", schema...)
	expectDescribe(mock, "tacos", schema...)

	mock.ExpectQuery("WITH ok AS").
		WillReturnRows(sqlmock.NewRows(partitionColumns).AddRow(3, 3, 3, 3, 3, 0, 0, 0, 0, 3))
	mock.ExpectQuery("GROUP BY").
		WillReturnRows(sqlmock.NewRows(groupColumns))

	test := &config.TestConfig{
		Old:        config.RelationConfig{Table: "tacos"},
		New:        config.RelationConfig{Table: "tacos"},
		PrimaryKey: []string{"id"},
	}
	r, err := NewRunner(sess, "self", test, defaultCompare())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Passed())
	assert.Empty(t, rep.ColumnsDiff())
	assert.Empty(t, rep.Groups())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_MissingRows(t *testing.T) {
	sess, mock := newSession(t)
	expectTacoSchemas(mock)

	mock.ExpectQuery("WITH ok AS").
		WillReturnRows(sqlmock.NewRows(partitionColumns).AddRow(3, 2, 3, 2, 2, 1, 0, 0, 0, 2))
	mock.ExpectQuery("SELECT ok.pk_1 FROM ok WHERE NOT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"pk_1"}).AddRow("3"))
	mock.ExpectQuery("GROUP BY").
		WillReturnRows(sqlmock.NewRows(groupColumns))

	cmp := defaultCompare()
	cmp.FailOnMissingRows = true
	r, err := NewRunner(sess, "tacos", tacoTest(), cmp)
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.VerdictFailure, rep.Verdict())
	assert.Empty(t, rep.ColumnsDiff())
	assert.Equal(t, []types.Key{{types.NewValue("3")}}, rep.OldOnlyKeys())
	assert.Empty(t, rep.NewOnlyKeys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SchemaMismatch(t *testing.T) {
	sess, mock := newSession(t)
	expectDescribe(mock, "tacos_v1", [2]string{"id", "int"}, [2]string{"name", "text"})
	expectDescribe(mock, "tacos_v2", [2]string{"taco_id", "int"}, [2]string{"name", "text"})

	r, err := NewRunner(sess, "tacos", tacoTest(), defaultCompare())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, relation.ErrSchemaMismatch))
	assert.NoError(t, mock.ExpectationsWereMet(), "no comparison statement may run")
}

func TestRun_EngineFailure(t *testing.T) {
	sess, mock := newSession(t)
	expectTacoSchemas(mock)
	mock.ExpectQuery("WITH ok AS").WillReturnError(errors.New("connection reset"))

	r, err := NewRunner(sess, "tacos", tacoTest(), defaultCompare())
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrEngineFailure))

	var ef *engine.EngineFailure
	require.True(t, errors.As(err, &ef))
	assert.Equal(t, "align", ef.Stage)
}

func TestRun_IgnoreAndSkip(t *testing.T) {
	sess, mock := newSession(t)
	schema := [][2]string{{"id", "int"}, {"photo", "blob"}, {"updated_at", "datetime"}}
	expectDescribe(mock, "tacos_v1", schema...)
	expectDescribe(mock, "tacos_v2", schema...)
	mock.ExpectQuery("WITH ok AS").
		WillReturnRows(sqlmock.NewRows(partitionColumns).AddRow(1, 1, 1, 1, 1, 0, 0, 0, 0, 1))

	test := tacoTest()
	test.IgnoreColumns = []string{"UPDATED_AT"}
	r, err := NewRunner(sess, "tacos", test, defaultCompare())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.Passed())
	assert.Equal(t, []string{"updated_at"}, rep.Ignored())
	require.Len(t, rep.Skipped(), 1)
	assert.Equal(t, "photo", rep.Skipped()[0].Column)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing to aggregate without comparable columns")
}

func TestPlan(t *testing.T) {
	sess, mock := newSession(t)
	expectTacoSchemas(mock)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `tacos_v1` r").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `tacos_v2` r").
		WillReturnError(errors.New("denied"))

	r, err := NewRunner(sess, "tacos", tacoTest(), defaultCompare())
	require.NoError(t, err)

	res, err := r.Plan(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.RowsOld)
	assert.Equal(t, int64(-1), res.RowsNew)

	var stages []string
	for _, s := range res.Statements {
		stages = append(stages, s.Stage)
		assert.NotEmpty(t, s.SQL)
	}
	assert.Equal(t, []string{"align", "align", "align", "compare", "aggregate", "aggregate"}, stages)
	assert.True(t, strings.HasPrefix(res.Statements[3].SQL, "WITH ok AS"))
	assert.Len(t, res.Plan.Columns, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlan_NoSamples(t *testing.T) {
	sess, mock := newSession(t)
	expectTacoSchemas(mock)

	cmp := defaultCompare()
	cmp.SampleSize = 0
	r, err := NewRunner(sess, "tacos", tacoTest(), cmp)
	require.NoError(t, err)

	res, err := r.Plan(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, res.Statements, 3)
	assert.Equal(t, "diff groups", res.Statements[2].Name)
	assert.Equal(t, int64(-1), res.RowsOld)
	assert.NoError(t, mock.ExpectationsWereMet())
}
