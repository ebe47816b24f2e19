// Package regress runs one configured regression test end to end: resolve
// both relations, align keys, compare columns, aggregate and report.
package regress

import (
	"context"
	"fmt"
	"time"

	"github.com/dbsmedya/goregress/internal/aggregate"
	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/compare"
	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/report"
	"github.com/dbsmedya/goregress/internal/types"
)

// Runner coordinates the pipeline stages of a single test. Stages run
// sequentially on the caller's goroutine.
type Runner struct {
	sess     *engine.Session
	testName string
	test     *config.TestConfig
	compare  config.CompareConfig
	chain    *classify.Chain
	logger   *logger.Logger
}

// NewRunner creates a runner for the named test. cmp is the effective
// compare config (see config.Config.ApplyTestOverrides).
func NewRunner(sess *engine.Session, testName string, test *config.TestConfig, cmp config.CompareConfig) (*Runner, error) {
	if sess == nil {
		return nil, fmt.Errorf("engine session is nil")
	}
	if test == nil {
		return nil, fmt.Errorf("test config is nil")
	}

	return &Runner{
		sess:     sess,
		testName: testName,
		test:     test,
		compare:  cmp,
		chain:    classify.DefaultChain(),
		logger:   sess.Logger().WithTest(testName),
	}, nil
}

// SetChain replaces the classification rules. A nil chain restores the
// default rules.
func (r *Runner) SetChain(chain *classify.Chain) {
	if chain == nil {
		chain = classify.DefaultChain()
	}
	r.chain = chain
}

// TestName returns the name of the test this runner executes.
func (r *Runner) TestName() string {
	return r.testName
}

// CompareConfig returns the effective compare config.
func (r *Runner) CompareConfig() config.CompareConfig {
	return r.compare
}

// Prepare resolves both relations and builds the relation pair. A schema
// mismatch is returned before any comparison statement runs.
func (r *Runner) Prepare(ctx context.Context) (*relation.Pair, error) {
	oldRel, err := relation.FromConfig("old", r.test.Old).Resolve(ctx, r.sess)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve old relation: %w", err)
	}
	newRel, err := relation.FromConfig("new", r.test.New).Resolve(ctx, r.sess)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve new relation: %w", err)
	}

	pair, err := relation.NewPair(oldRel, newRel, r.test.PrimaryKey)
	if err != nil {
		return nil, err
	}

	drift := pair.Drift()
	if !drift.Empty() {
		r.logger.Warnw("Schema drift between relations",
			"old_only", drift.OldOnly,
			"new_only", drift.NewOnly)
	}
	return pair, nil
}

func (r *Runner) compareOptions() compare.Options {
	return compare.Options{
		Classify: classify.Options{
			Precision: r.compare.Precision(),
			Tolerance: r.compare.FloatTolerance,
		},
		NullSafeKeys:  r.compare.NullSafe(),
		IgnoreColumns: r.test.IgnoreColumns,
	}
}

// Run executes the test and returns its report. A FAILURE verdict is not an
// error; errors mean the test could not be evaluated.
func (r *Runner) Run(ctx context.Context) (*report.SummaryReport, error) {
	startedAt := time.Now()
	r.logger.Infow("Starting regression test")

	pair, err := r.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	aligner := align.NewAligner(r.sess, pair, align.Options{NullSafeKeys: r.compare.NullSafe()})
	partition, err := aligner.Align(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to align relations: %w", err)
	}

	var oldOnly, newOnly []types.Key
	if partition.OldOnly > 0 {
		if oldOnly, err = aligner.OnlyKeys(ctx, align.SideOld, r.compare.SampleSize); err != nil {
			return nil, fmt.Errorf("failed to sample old-only keys: %w", err)
		}
	}
	if partition.NewOnly > 0 {
		if newOnly, err = aligner.OnlyKeys(ctx, align.SideNew, r.compare.SampleSize); err != nil {
			return nil, fmt.Errorf("failed to sample new-only keys: %w", err)
		}
	}

	plan, err := compare.NewComparator(r.sess, pair, r.chain, r.compareOptions()).Plan()
	if err != nil {
		return nil, fmt.Errorf("failed to plan comparison: %w", err)
	}

	result, err := aggregate.NewAggregator(r.sess, plan, partition, aggregate.Options{
		SampleSize: r.compare.SampleSize,
	}).Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate differences: %w", err)
	}

	rep := report.New(report.Input{
		TestName:          r.testName,
		PK:                pair.PKColumns(),
		Partition:         partition,
		Plan:              plan,
		Result:            result,
		Drift:             pair.Drift(),
		OldOnlyKeys:       oldOnly,
		NewOnlyKeys:       newOnly,
		FailOnMissingRows: r.compare.FailOnMissingRows,
	})

	r.logger.Infow("Regression test complete",
		"run_id", rep.RunID(),
		"verdict", rep.Verdict(),
		"columns_diff", rep.ColumnsDiff(),
		"total_diffs", rep.TotalDiffs(),
		"duration", time.Since(startedAt))

	return rep, nil
}
