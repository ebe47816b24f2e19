// Package compare builds the diff relation: one engine statement that joins
// matched rows and emits a classified tuple for every unequal column value.
package compare

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/classify"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
	"github.com/dbsmedya/goregress/internal/relation"
)

// Options controls the comparison.
type Options struct {
	Classify      classify.Options
	NullSafeKeys  bool
	IgnoreColumns []string
}

// Plan is the outcome of planning a comparison.
type Plan struct {
	Columns []classify.ColumnInfo
	Skipped []*UnsupportedTypeError
	Ignored []string
	Diff    DiffRelation
	Chain   *classify.Chain
	Options classify.Options
}

// Column returns the compared column with the given name.
func (p *Plan) Column(name string) (classify.ColumnInfo, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return classify.ColumnInfo{}, false
}

// Comparator plans the per-column comparison of a relation pair.
type Comparator struct {
	sess   *engine.Session
	pair   *relation.Pair
	chain  *classify.Chain
	opts   Options
	logger *logger.Logger
}

// NewComparator creates a new comparator. A nil chain uses the default rules.
func NewComparator(sess *engine.Session, pair *relation.Pair, chain *classify.Chain, opts Options) *Comparator {
	if chain == nil {
		chain = classify.DefaultChain()
	}
	return &Comparator{
		sess:   sess,
		pair:   pair,
		chain:  chain,
		opts:   opts,
		logger: sess.Logger().WithStage("compare"),
	}
}

// Plan selects the comparable columns and renders the diff relation.
func (c *Comparator) Plan() (*Plan, error) {
	plan := &Plan{Chain: c.chain, Options: c.opts.Classify}

	ignored := make(map[string]bool, len(c.opts.IgnoreColumns))
	for _, name := range c.opts.IgnoreColumns {
		ignored[strings.ToLower(name)] = true
	}

	var shared []relation.ColumnPair
	for _, col := range c.pair.SharedColumns() {
		switch {
		case ignored[strings.ToLower(col.Name)]:
			plan.Ignored = append(plan.Ignored, col.Name)
		case !col.OldType.Comparable():
			plan.Skipped = append(plan.Skipped, &UnsupportedTypeError{Column: col.Name, Side: "old", SQLType: col.OldSQLType})
		case !col.NewType.Comparable():
			plan.Skipped = append(plan.Skipped, &UnsupportedTypeError{Column: col.Name, Side: "new", SQLType: col.NewSQLType})
		default:
			shared = append(shared, col)
			plan.Columns = append(plan.Columns, classify.ColumnInfoFor(col))
		}
	}

	for _, skip := range plan.Skipped {
		c.logger.WithColumn(skip.Column).Warnw("Skipping column", "reason", skip.Error())
	}

	diff, err := c.buildDiff(shared, plan.Columns)
	if err != nil {
		return nil, err
	}
	plan.Diff = diff

	c.logger.Infow("Planned column comparison",
		"compared", len(plan.Columns),
		"skipped", len(plan.Skipped),
		"ignored", len(plan.Ignored))

	return plan, nil
}

func (c *Comparator) buildDiff(shared []relation.ColumnPair, infos []classify.ColumnInfo) (DiffRelation, error) {
	d := c.sess.Dialect()
	k := len(c.pair.Keys())

	ctes, err := align.KeyCTEs(d, c.pair)
	if err != nil {
		return DiffRelation{}, err
	}
	oldFrom, _ := c.pair.Old().From(d)
	newFrom, _ := c.pair.New().From(d)
	oldKeys, newKeys := align.KeyExprs(d, c.pair)

	// m: every old-row x new-row combination of matched keys.
	sel := make([]string, 0, k+2*len(shared)+2)
	for i, key := range oldKeys {
		sel = append(sel, key+" AS "+align.KeyAlias(i+1))
	}
	for i, col := range shared {
		sel = append(sel,
			fmt.Sprintf("%s.%s AS o_%d", align.OldAlias, d.QuoteIdentifier(col.Name), i+1),
			fmt.Sprintf("%s.%s AS n_%d", align.NewAlias, d.QuoteIdentifier(col.NewName), i+1))
	}
	sel = append(sel, "ok.n AS n_old", "nk.n AS n_new")

	okKeys := make([]string, k)
	nkKeys := make([]string, k)
	for i := 1; i <= k; i++ {
		okKeys[i-1] = align.OldKeys + "." + align.KeyAlias(i)
		nkKeys[i-1] = align.NewKeys + "." + align.KeyAlias(i)
	}
	nullSafe := c.opts.NullSafeKeys
	m := fmt.Sprintf("m AS (SELECT %s FROM %s %s JOIN %s %s ON %s JOIN ok ON %s JOIN nk ON %s)",
		strings.Join(sel, ", "),
		oldFrom, align.OldAlias,
		newFrom, align.NewAlias,
		align.Match(d, oldKeys, newKeys, nullSafe),
		align.Match(d, okKeys, oldKeys, nullSafe),
		align.Match(d, nkKeys, newKeys, nullSafe))

	keyList := align.KeyList("m", k)
	dup := "CASE WHEN m.n_old > 1 OR m.n_new > 1 THEN 1 ELSE 0 END AS is_duplicate"

	var branches []string
	for i, info := range infos {
		o := fmt.Sprintf("m.o_%d", i+1)
		n := fmt.Sprintf("m.n_%d", i+1)
		branches = append(branches, fmt.Sprintf(
			"SELECT %s, %s AS column_name, %s AS data_type, %s AS old_value, %s AS new_value, %s AS diff_category, %s FROM m WHERE %s",
			keyList,
			d.QuoteString(info.Name),
			d.QuoteString(info.Type().String()),
			d.CastText(o),
			d.CastText(n),
			c.chain.CaseSQL(d, info, o, n, c.opts.Classify),
			dup,
			classify.NotEqualSQL(d, info, o, n, c.opts.Classify)))
	}

	if len(branches) == 0 {
		branches = append(branches, fmt.Sprintf(
			"SELECT %s, %s AS column_name, %s AS data_type, %s AS old_value, %s AS new_value, %s AS diff_category, 0 AS is_duplicate FROM m WHERE 1=0",
			keyList,
			d.QuoteString(""),
			d.QuoteString(""),
			d.CastText("NULL"),
			d.CastText("NULL"),
			d.QuoteString("")))
	}

	return DiffRelation{
		With:  ctes + ",\n" + m,
		Body:  strings.Join(branches, "\nUNION ALL\n"),
		PK:    c.pair.PKColumns(),
		Empty: len(infos) == 0,
	}, nil
}
