// Package aggregate reduces the diff relation to grouped counts and bounded
// samples. Only the grouped table and at most N samples per group are
// realized in process.
package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/shopspring/decimal"

	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/compare"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
)

// DefaultSampleSize is the number of samples kept per group.
const DefaultSampleSize = 5

// Options controls aggregation.
type Options struct {
	// SampleSize is N, the per-group sample cap. Zero disables samples.
	SampleSize int
}

// GroupKey identifies a row of the diff group table.
type GroupKey struct {
	Column   string
	Category classify.Category
}

// SampleKey identifies a sample group.
type SampleKey struct {
	Column    string
	Category  classify.Category
	Duplicate bool
}

// GroupStat is one row of the diff group table.
type GroupStat struct {
	Count          int64
	DuplicateCount int64
	// Percent is Count / RecordsOld * 100, zero when the old side is empty.
	Percent decimal.Decimal
}

// PercentDisplay rounds Percent to one decimal place.
func (g GroupStat) PercentDisplay() string {
	return g.Percent.StringFixed(1)
}

// Result is the aggregation outcome.
type Result struct {
	Groups      *orderedmap.OrderedMap[GroupKey, GroupStat]
	Samples     *orderedmap.OrderedMap[SampleKey, []compare.DiffTuple]
	ColumnsDiff []string
	TotalDiffs  int64
	// Disagreements counts samples whose Go classification differs from
	// the engine's.
	Disagreements int
}

// Aggregator computes the Result of a planned comparison.
type Aggregator struct {
	sess      *engine.Session
	plan      *compare.Plan
	partition *align.Partition
	opts      Options
	logger    *logger.Logger
}

// NewAggregator creates a new aggregator.
func NewAggregator(sess *engine.Session, plan *compare.Plan, partition *align.Partition, opts Options) *Aggregator {
	return &Aggregator{
		sess:      sess,
		plan:      plan,
		partition: partition,
		opts:      opts,
		logger:    sess.Logger().WithStage("aggregate"),
	}
}

type groupRow struct {
	key   SampleKey
	count int64
}

// Aggregate runs the group and sample statements. An empty diff relation
// yields an empty Result.
func (a *Aggregator) Aggregate(ctx context.Context) (*Result, error) {
	res := &Result{
		Groups:  orderedmap.NewOrderedMap[GroupKey, GroupStat](),
		Samples: orderedmap.NewOrderedMap[SampleKey, []compare.DiffTuple](),
	}
	if a.plan.Diff.Empty {
		a.logger.Infow("No comparable columns, nothing to aggregate")
		return res, nil
	}

	rows, err := a.groups(ctx)
	if err != nil {
		return nil, err
	}
	a.sortRows(rows)

	columns := make(map[string]bool)
	for _, r := range rows {
		gk := GroupKey{Column: r.key.Column, Category: r.key.Category}
		stat, _ := res.Groups.Get(gk)
		stat.Count += r.count
		if r.key.Duplicate {
			stat.DuplicateCount += r.count
		}
		res.Groups.Set(gk, stat)
		res.TotalDiffs += r.count
		columns[r.key.Column] = true
	}

	for el := res.Groups.Front(); el != nil; el = el.Next() {
		stat := el.Value
		stat.Percent = Percent(stat.Count, a.partition.RecordsOld)
		res.Groups.Set(el.Key, stat)
	}

	for col := range columns {
		res.ColumnsDiff = append(res.ColumnsDiff, col)
	}
	sort.Strings(res.ColumnsDiff)

	if a.opts.SampleSize > 0 && len(rows) > 0 {
		for _, r := range rows {
			res.Samples.Set(r.key, nil)
		}
		if err := a.samples(ctx, res); err != nil {
			return nil, err
		}
	}

	a.logger.Infow("Aggregation complete",
		"groups", res.Groups.Len(),
		"columns_diff", res.ColumnsDiff,
		"total_diffs", res.TotalDiffs)

	return res, nil
}

// Percent returns count / total * 100, or zero when total is zero.
func Percent(count, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(count).Div(decimal.NewFromInt(total)).Mul(decimal.NewFromInt(100))
}

// GroupSQL returns the grouping statement.
func (a *Aggregator) GroupSQL() string {
	return a.plan.Diff.Wrap("SELECT d.column_name, d.diff_category, d.is_duplicate, COUNT(*) AS cnt FROM d " +
		"GROUP BY d.column_name, d.diff_category, d.is_duplicate")
}

// SampleSQL returns the bounded sample statement.
func (a *Aggregator) SampleSQL() string {
	k := len(a.plan.Diff.PK)
	return a.plan.Diff.Wrap(fmt.Sprintf(
		"SELECT %s, s.rn FROM (SELECT %s, ROW_NUMBER() OVER (PARTITION BY d.column_name, d.diff_category, d.is_duplicate "+
			"ORDER BY %s, d.old_value, d.new_value) AS rn FROM d) s WHERE s.rn <= %d "+
			"ORDER BY s.column_name, s.diff_category, s.is_duplicate, s.rn",
		a.plan.Diff.Columns("s"),
		a.plan.Diff.Columns("d"),
		align.KeyList("d", k),
		a.opts.SampleSize))
}

func (a *Aggregator) groups(ctx context.Context) ([]groupRow, error) {
	var rows []groupRow
	err := a.sess.Each(ctx, "aggregate", a.GroupSQL(), func(r *sql.Rows) error {
		var g groupRow
		var category string
		if err := r.Scan(&g.key.Column, &category, &g.key.Duplicate, &g.count); err != nil {
			return err
		}
		g.key.Category = classify.Category(category)
		rows = append(rows, g)
		return nil
	})
	return rows, err
}

// sortRows orders groups by column position, then chain priority, then
// non-duplicate before duplicate.
func (a *Aggregator) sortRows(rows []groupRow) {
	colPos := make(map[string]int, len(a.plan.Columns))
	for i, c := range a.plan.Columns {
		colPos[c.Name] = i
	}
	catPos := make(map[classify.Category]int)
	for i, c := range a.plan.Chain.Categories() {
		catPos[c] = i
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := rows[i].key, rows[j].key
		if colPos[ki.Column] != colPos[kj.Column] {
			return colPos[ki.Column] < colPos[kj.Column]
		}
		if catPos[ki.Category] != catPos[kj.Category] {
			return catPos[ki.Category] < catPos[kj.Category]
		}
		return !ki.Duplicate && kj.Duplicate
	})
}

func (a *Aggregator) samples(ctx context.Context, res *Result) error {
	k := len(a.plan.Diff.PK)
	return a.sess.Each(ctx, "aggregate", a.SampleSQL(), func(r *sql.Rows) error {
		var rn int64
		t, err := compare.ScanTuple(r, k, &rn)
		if err != nil {
			return err
		}
		a.reclassify(res, t)

		sk := SampleKey{Column: t.Column, Category: t.Category, Duplicate: t.Duplicate}
		list, _ := res.Samples.Get(sk)
		res.Samples.Set(sk, append(list, t))
		return nil
	})
}

func (a *Aggregator) reclassify(res *Result, t compare.DiffTuple) {
	info, ok := a.plan.Column(t.Column)
	if !ok {
		return
	}
	got := a.plan.Chain.Classify(info, t.Old, t.New, a.plan.Options)
	if got != t.Category {
		res.Disagreements++
		a.logger.WithColumn(t.Column).Warnw("Engine and local classification disagree",
			"key", t.Key.String(),
			"engine_category", t.Category,
			"local_category", got)
	}
}
