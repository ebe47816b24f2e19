package regress

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/compare"
	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
)

// integrationEngine reads TEST_MYSQL_HOST, TEST_MYSQL_PORT, TEST_MYSQL_USER,
// TEST_MYSQL_PASSWORD and TEST_MYSQL_DATABASE.
func integrationEngine(t *testing.T) *config.EngineConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	password := os.Getenv("TEST_MYSQL_PASSWORD")
	if password == "" {
		t.Skip("TEST_MYSQL_PASSWORD not set, skipping MySQL integration test")
	}

	cfg := config.DefaultConfig().Engine
	cfg.Host = envOr("TEST_MYSQL_HOST", "127.0.0.1")
	cfg.User = envOr("TEST_MYSQL_USER", "root")
	cfg.Password = password
	cfg.Database = envOr("TEST_MYSQL_DATABASE", "goregress_test")
	cfg.TLS = "disable"
	if port, err := strconv.Atoi(os.Getenv("TEST_MYSQL_PORT")); err == nil {
		cfg.Port = port
	}
	return &cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadFixtures creates the test database and applies testdata/scenarios.sql.
func loadFixtures(t *testing.T, cfg *config.EngineConfig) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/?timeout=5s&multiStatements=true", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		t.Skipf("MySQL not reachable at %s:%d: %v", cfg.Host, cfg.Port, err)
	}

	_, err = db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS `"+cfg.Database+"`")
	require.NoError(t, err)

	fixture, err := os.ReadFile("testdata/scenarios.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "USE `"+cfg.Database+"`; "+string(fixture))
	require.NoError(t, err)
}

func TestIntegration_Scenarios(t *testing.T) {
	cfg := integrationEngine(t)
	loadFixtures(t, cfg)

	ctx := context.Background()
	sess, err := engine.Open(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	run := func(t *testing.T, oldTable, newTable string, pk []string, mutate func(*config.CompareConfig)) *Runner {
		t.Helper()
		cmp := config.DefaultConfig().Compare
		if mutate != nil {
			mutate(&cmp)
		}
		r, err := NewRunner(sess, oldTable+"_vs_"+newTable, &config.TestConfig{
			Old:        config.RelationConfig{Table: oldTable},
			New:        config.RelationConfig{Table: newTable},
			PrimaryKey: pk,
		}, cmp)
		require.NoError(t, err)
		return r
	}

	t.Run("value differences", func(t *testing.T) {
		rep, err := run(t, "tacos_v1", "tacos_v2", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)

		assert.False(t, rep.Passed())
		assert.Equal(t, []string{"name", "price"}, rep.ColumnsDiff())
		name, ok := rep.Group("name", classify.CapitalizationAdded)
		require.True(t, ok)
		assert.Equal(t, int64(1), name.Count)
		price, ok := rep.Group("price", classify.Rounding)
		require.True(t, ok)
		assert.Equal(t, int64(1), price.Count)
		assert.Equal(t, 0, rep.Disagreements())
	})

	t.Run("missing row", func(t *testing.T) {
		rep, err := run(t, "tacos_extra", "tacos_v2", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), rep.Alignment().OldOnly)
		assert.Equal(t, int64(4), rep.Counts().RecordOld)
		assert.Equal(t, int64(2), rep.TotalDiffs(), "a missing row yields no diff tuple")
		require.Len(t, rep.OldOnlyKeys(), 1)
		assert.Equal(t, "4", rep.OldOnlyKeys()[0].String())

		n, err := rep.Diffs().Count(ctx, sess, compare.Filter{Column: "name"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("duplicate key", func(t *testing.T) {
		rep, err := run(t, "dup_v1", "dup_v2", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)

		stat, ok := rep.Group("name", classify.ValueChanged)
		require.True(t, ok)
		assert.Equal(t, int64(2), stat.Count)
		assert.Equal(t, int64(2), stat.DuplicateCount)
		for _, s := range rep.SamplesFor("name", classify.ValueChanged, true) {
			assert.True(t, s.Duplicate)
		}
	})

	t.Run("rounding precision", func(t *testing.T) {
		rep, err := run(t, "num_v1", "num_v2", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)

		_, ok := rep.Group("amount", classify.Rounding)
		assert.True(t, ok)
		_, ok = rep.Group("amount", classify.ValueChanged)
		assert.False(t, ok)
	})

	t.Run("reflexive", func(t *testing.T) {
		rep, err := run(t, "tacos_v1", "tacos_v1", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)
		assert.True(t, rep.Passed())
		assert.Empty(t, rep.Groups())
	})

	t.Run("empty relations", func(t *testing.T) {
		rep, err := run(t, "empty_v1", "empty_v2", []string{"id"}, nil).Run(ctx)
		require.NoError(t, err)
		assert.True(t, rep.Passed())
		assert.Equal(t, int64(0), rep.Counts().RecordOld)
	})

	t.Run("null key components", func(t *testing.T) {
		rep, err := run(t, "nullkey_v1", "nullkey_v2", []string{"id", "region"}, nil).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rep.Alignment().Matched)

		rep, err = run(t, "nullkey_v1", "nullkey_v2", []string{"id", "region"}, func(c *config.CompareConfig) {
			strict := false
			c.NullSafeKeys = &strict
		}).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rep.Alignment().Matched)
		assert.Equal(t, int64(1), rep.Alignment().OldOnly)
		assert.Equal(t, int64(1), rep.Alignment().NewOnly)
	})
}
