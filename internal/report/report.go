// Package report holds the immutable result of one regression test run.
package report

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"

	"github.com/dbsmedya/goregress/internal/aggregate"
	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/compare"
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/types"
)

// Verdict is the overall outcome of a run.
type Verdict string

const (
	VerdictSuccess Verdict = "SUCCESS"
	VerdictFailure Verdict = "FAILURE"
)

// Counts are the record and key counts of both sides.
type Counts struct {
	RecordOld int64 `json:"record_old" yaml:"record_old"`
	RecordNew int64 `json:"record_new" yaml:"record_new"`
	PKOld     int64 `json:"pk_old" yaml:"pk_old"`
	PKNew     int64 `json:"pk_new" yaml:"pk_new"`
}

// SkippedColumn is a shared column left out of the comparison.
type SkippedColumn struct {
	Column  string `json:"column" yaml:"column"`
	Side    string `json:"side" yaml:"side"`
	SQLType string `json:"sql_type" yaml:"sql_type"`
	Reason  string `json:"reason" yaml:"reason"`
}

// Group is one row of the diff group table.
type Group struct {
	Column         string            `json:"column" yaml:"column"`
	Category       classify.Category `json:"diff_category" yaml:"diff_category"`
	Count          int64             `json:"count" yaml:"count"`
	DuplicateCount int64             `json:"duplicate_count" yaml:"duplicate_count"`
	Percent        string            `json:"percent_of_total" yaml:"percent_of_total"`
}

// SampleGroup is the bounded sample of one (column, category, duplicate) group.
type SampleGroup struct {
	Column    string              `json:"column" yaml:"column"`
	Category  classify.Category   `json:"diff_category" yaml:"diff_category"`
	Duplicate bool                `json:"is_duplicate" yaml:"is_duplicate"`
	Tuples    []compare.DiffTuple `json:"samples" yaml:"samples"`
}

// Input gathers the pipeline outputs a report is built from.
type Input struct {
	TestName          string
	PK                []string
	Partition         *align.Partition
	Plan              *compare.Plan
	Result            *aggregate.Result
	Drift             relation.Drift
	OldOnlyKeys       []types.Key
	NewOnlyKeys       []types.Key
	FailOnMissingRows bool
}

// SummaryReport is built once per run and never modified. It is safe for
// concurrent readers.
type SummaryReport struct {
	runID         string
	runTime       time.Time
	testName      string
	pk            []string
	alignment     align.Partition
	columnsDiff   []string
	groups        *orderedmap.OrderedMap[aggregate.GroupKey, aggregate.GroupStat]
	samples       *orderedmap.OrderedMap[aggregate.SampleKey, []compare.DiffTuple]
	totalDiffs    int64
	disagreements int
	drift         relation.Drift
	skipped       []SkippedColumn
	ignored       []string
	oldOnlyKeys   []types.Key
	newOnlyKeys   []types.Key
	missingRows   bool
	verdict       Verdict
	diffs         compare.DiffRelation
}

// New stamps a run ID and time and derives the verdict. The report takes
// ownership of in.Result.
func New(in Input) *SummaryReport {
	r := &SummaryReport{
		runID:       uuid.New().String(),
		runTime:     time.Now().UTC(),
		testName:    in.TestName,
		pk:          append([]string(nil), in.PK...),
		drift:       in.Drift,
		oldOnlyKeys: in.OldOnlyKeys,
		newOnlyKeys: in.NewOnlyKeys,
		missingRows: in.FailOnMissingRows,
	}
	if in.Partition != nil {
		r.alignment = *in.Partition
	}

	if in.Result != nil {
		r.columnsDiff = append([]string(nil), in.Result.ColumnsDiff...)
		r.groups = in.Result.Groups
		r.samples = in.Result.Samples
		r.totalDiffs = in.Result.TotalDiffs
		r.disagreements = in.Result.Disagreements
	}
	if r.groups == nil {
		r.groups = orderedmap.NewOrderedMap[aggregate.GroupKey, aggregate.GroupStat]()
	}
	if r.samples == nil {
		r.samples = orderedmap.NewOrderedMap[aggregate.SampleKey, []compare.DiffTuple]()
	}

	if in.Plan != nil {
		r.diffs = in.Plan.Diff
		r.ignored = append([]string(nil), in.Plan.Ignored...)
		for _, s := range in.Plan.Skipped {
			r.skipped = append(r.skipped, SkippedColumn{
				Column:  s.Column,
				Side:    s.Side,
				SQLType: s.SQLType,
				Reason:  s.Error(),
			})
		}
	}

	r.verdict = VerdictSuccess
	if len(r.columnsDiff) > 0 {
		r.verdict = VerdictFailure
	}
	if r.missingRows && (r.alignment.OldOnly > 0 || r.alignment.NewOnly > 0) {
		r.verdict = VerdictFailure
	}
	return r
}

func (r *SummaryReport) RunID() string         { return r.runID }
func (r *SummaryReport) RunTime() time.Time    { return r.runTime }
func (r *SummaryReport) TestName() string      { return r.testName }
func (r *SummaryReport) Verdict() Verdict      { return r.verdict }
func (r *SummaryReport) Passed() bool          { return r.verdict == VerdictSuccess }
func (r *SummaryReport) TotalDiffs() int64     { return r.totalDiffs }
func (r *SummaryReport) Disagreements() int    { return r.disagreements }
func (r *SummaryReport) Drift() relation.Drift { return r.drift }

// PK returns the primary key columns.
func (r *SummaryReport) PK() []string {
	return append([]string(nil), r.pk...)
}

// Counts returns record and distinct key counts of both sides.
func (r *SummaryReport) Counts() Counts {
	return Counts{
		RecordOld: r.alignment.RecordsOld,
		RecordNew: r.alignment.RecordsNew,
		PKOld:     r.alignment.PKOld,
		PKNew:     r.alignment.PKNew,
	}
}

// Alignment returns the full key partition.
func (r *SummaryReport) Alignment() align.Partition {
	return r.alignment
}

// ColumnsDiff returns the sorted names of columns with at least one diff.
func (r *SummaryReport) ColumnsDiff() []string {
	return append([]string(nil), r.columnsDiff...)
}

// Groups returns the diff group table in display order.
func (r *SummaryReport) Groups() []Group {
	groups := make([]Group, 0, r.groups.Len())
	for el := r.groups.Front(); el != nil; el = el.Next() {
		groups = append(groups, Group{
			Column:         el.Key.Column,
			Category:       el.Key.Category,
			Count:          el.Value.Count,
			DuplicateCount: el.Value.DuplicateCount,
			Percent:        el.Value.PercentDisplay(),
		})
	}
	return groups
}

// Group looks up one (column, category) row.
func (r *SummaryReport) Group(column string, category classify.Category) (aggregate.GroupStat, bool) {
	return r.groups.Get(aggregate.GroupKey{Column: column, Category: category})
}

// Samples returns every sample group in display order.
func (r *SummaryReport) Samples() []SampleGroup {
	out := make([]SampleGroup, 0, r.samples.Len())
	for el := r.samples.Front(); el != nil; el = el.Next() {
		out = append(out, SampleGroup{
			Column:    el.Key.Column,
			Category:  el.Key.Category,
			Duplicate: el.Key.Duplicate,
			Tuples:    append([]compare.DiffTuple(nil), el.Value...),
		})
	}
	return out
}

// SamplesFor returns the samples of one group.
func (r *SummaryReport) SamplesFor(column string, category classify.Category, duplicate bool) []compare.DiffTuple {
	tuples, _ := r.samples.Get(aggregate.SampleKey{Column: column, Category: category, Duplicate: duplicate})
	return append([]compare.DiffTuple(nil), tuples...)
}

// Skipped returns the columns left out for unsupported types.
func (r *SummaryReport) Skipped() []SkippedColumn {
	return append([]SkippedColumn(nil), r.skipped...)
}

// Ignored returns the columns excluded by configuration.
func (r *SummaryReport) Ignored() []string {
	return append([]string(nil), r.ignored...)
}

// OldOnlyKeys returns a bounded sample of keys removed in the new relation.
func (r *SummaryReport) OldOnlyKeys() []types.Key {
	return append([]types.Key(nil), r.oldOnlyKeys...)
}

// NewOnlyKeys returns a bounded sample of keys added in the new relation.
func (r *SummaryReport) NewOnlyKeys() []types.Key {
	return append([]types.Key(nil), r.newOnlyKeys...)
}

// Diffs returns the relation of all diff tuples for ad-hoc filtering
// through DiffRelation.Count and DiffRelation.Fetch.
func (r *SummaryReport) Diffs() compare.DiffRelation {
	return r.diffs
}
