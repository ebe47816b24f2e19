package regress

import (
	"context"
	"fmt"

	"github.com/dbsmedya/goregress/internal/aggregate"
	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/compare"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/relation"
)

// Statement is one SQL statement of a run, labelled by pipeline stage.
type Statement struct {
	Stage string
	Name  string
	SQL   string
}

// PlanResult describes what Run would execute, without running the
// comparison statements.
type PlanResult struct {
	TestName   string
	Pair       *relation.Pair
	Plan       *compare.Plan
	Statements []Statement
	// RowsOld and RowsNew are COUNT(*) estimates; -1 when counting failed
	// or was not requested.
	RowsOld int64
	RowsNew int64
}

// Plan resolves the relations and renders every statement Run would issue.
// With estimate set, each side is counted once.
func (r *Runner) Plan(ctx context.Context, estimate bool) (*PlanResult, error) {
	pair, err := r.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	aligner := align.NewAligner(r.sess, pair, align.Options{NullSafeKeys: r.compare.NullSafe()})
	alignSQL, err := aligner.AlignSQL()
	if err != nil {
		return nil, err
	}

	plan, err := compare.NewComparator(r.sess, pair, r.chain, r.compareOptions()).Plan()
	if err != nil {
		return nil, fmt.Errorf("failed to plan comparison: %w", err)
	}

	result := &PlanResult{
		TestName: r.testName,
		Pair:     pair,
		Plan:     plan,
		RowsOld:  -1,
		RowsNew:  -1,
	}
	result.Statements = append(result.Statements, Statement{Stage: "align", Name: "alignment", SQL: alignSQL})

	if r.compare.SampleSize > 0 {
		for _, side := range []align.Side{align.SideOld, align.SideNew} {
			q, err := aligner.OnlyKeysSQL(side, r.compare.SampleSize)
			if err != nil {
				return nil, err
			}
			result.Statements = append(result.Statements, Statement{
				Stage: "align",
				Name:  fmt.Sprintf("%s-only keys (only when present)", side),
				SQL:   q,
			})
		}
	}

	if plan.Diff.Empty {
		result.Statements = append(result.Statements, Statement{Stage: "compare", Name: "diff relation (no comparable columns)", SQL: plan.Diff.SQL()})
	} else {
		agg := aggregate.NewAggregator(r.sess, plan, &align.Partition{}, aggregate.Options{SampleSize: r.compare.SampleSize})
		result.Statements = append(result.Statements,
			Statement{Stage: "compare", Name: "diff relation", SQL: plan.Diff.SQL()},
			Statement{Stage: "aggregate", Name: "diff groups", SQL: agg.GroupSQL()},
		)
		if r.compare.SampleSize > 0 {
			result.Statements = append(result.Statements, Statement{Stage: "aggregate", Name: "samples", SQL: agg.SampleSQL()})
		}
	}

	if estimate {
		result.RowsOld = r.estimateRows(ctx, pair.Old())
		result.RowsNew = r.estimateRows(ctx, pair.New())
	}

	return result, nil
}

// estimateRows counts a relation's rows, returning -1 on failure.
func (r *Runner) estimateRows(ctx context.Context, rel relation.Relation) int64 {
	count, err := CountRows(ctx, r.sess, rel)
	if err != nil {
		r.logger.Warnf("Failed to estimate row count for %s: %v", rel.String(), err)
		return -1
	}
	return count
}

// CountRows returns COUNT(*) of a relation.
func CountRows(ctx context.Context, sess *engine.Session, rel relation.Relation) (int64, error) {
	from, err := rel.From(sess.Dialect())
	if err != nil {
		return 0, err
	}

	var count int64
	if err := sess.QueryOne(ctx, "estimate", "SELECT COUNT(*) FROM "+from+" r", []interface{}{&count}); err != nil {
		return 0, err
	}
	return count, nil
}
