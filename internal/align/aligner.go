// Package align partitions primary keys into matched, old-only and new-only
// sets and detects duplicated keys, entirely inside the engine.
package align

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/types"
)

// Side selects one relation of a pair.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

// Options controls key matching.
type Options struct {
	// NullSafeKeys makes NULL key components equal to each other. Without it
	// a key with a NULL component never matches and lands in old_only/new_only.
	NullSafeKeys bool
}

// Partition holds the alignment counts. Keys are counted after GROUP BY,
// so an all-NULL key counts as one key.
type Partition struct {
	RecordsOld   int64 `json:"records_old" yaml:"records_old"`
	RecordsNew   int64 `json:"records_new" yaml:"records_new"`
	PKOld        int64 `json:"pk_old" yaml:"pk_old"`
	PKNew        int64 `json:"pk_new" yaml:"pk_new"`
	Matched      int64 `json:"matched" yaml:"matched"`
	OldOnly      int64 `json:"old_only" yaml:"old_only"`
	NewOnly      int64 `json:"new_only" yaml:"new_only"`
	DuplicateOld int64 `json:"duplicate_old" yaml:"duplicate_old"`
	DuplicateNew int64 `json:"duplicate_new" yaml:"duplicate_new"`
	// MatchedPairs counts every old-row x new-row combination of matched keys.
	MatchedPairs int64 `json:"matched_pairs" yaml:"matched_pairs"`
}

// HasDuplicates reports whether either side repeats a key.
func (p Partition) HasDuplicates() bool {
	return p.DuplicateOld > 0 || p.DuplicateNew > 0
}

// Aligner computes the key partition of a relation pair.
type Aligner struct {
	sess   *engine.Session
	pair   *relation.Pair
	opts   Options
	logger *logger.Logger
}

// NewAligner creates a new aligner.
func NewAligner(sess *engine.Session, pair *relation.Pair, opts Options) *Aligner {
	return &Aligner{
		sess:   sess,
		pair:   pair,
		opts:   opts,
		logger: sess.Logger().WithStage("align"),
	}
}

// AlignSQL returns the single statement Align executes.
func (a *Aligner) AlignSQL() (string, error) {
	d := a.sess.Dialect()
	ctes, err := KeyCTEs(d, a.pair)
	if err != nil {
		return "", err
	}
	k := len(a.pair.Keys())
	match := KeyMatch(d, OldKeys, NewKeys, k, a.opts.NullSafeKeys)

	var b strings.Builder
	b.WriteString("WITH " + ctes + "\nSELECT\n")
	b.WriteString("  (SELECT COALESCE(SUM(n), 0) FROM ok) AS records_old,\n")
	b.WriteString("  (SELECT COALESCE(SUM(n), 0) FROM nk) AS records_new,\n")
	b.WriteString("  (SELECT COUNT(*) FROM ok) AS pk_old,\n")
	b.WriteString("  (SELECT COUNT(*) FROM nk) AS pk_new,\n")
	fmt.Fprintf(&b, "  (SELECT COUNT(*) FROM ok JOIN nk ON %s) AS matched,\n", match)
	fmt.Fprintf(&b, "  (SELECT COUNT(*) FROM ok WHERE NOT EXISTS (SELECT 1 FROM nk WHERE %s)) AS old_only,\n", match)
	fmt.Fprintf(&b, "  (SELECT COUNT(*) FROM nk WHERE NOT EXISTS (SELECT 1 FROM ok WHERE %s)) AS new_only,\n", match)
	b.WriteString("  (SELECT COUNT(*) FROM ok WHERE n > 1) AS duplicate_old,\n")
	b.WriteString("  (SELECT COUNT(*) FROM nk WHERE n > 1) AS duplicate_new,\n")
	fmt.Fprintf(&b, "  (SELECT COALESCE(SUM(ok.n * nk.n), 0) FROM ok JOIN nk ON %s) AS matched_pairs", match)
	return b.String(), nil
}

// Align runs the alignment statement. Empty relations yield all-zero counts.
func (a *Aligner) Align(ctx context.Context) (*Partition, error) {
	query, err := a.AlignSQL()
	if err != nil {
		return nil, err
	}

	a.logger.Infow("Aligning relations",
		"old", a.pair.Old().String(),
		"new", a.pair.New().String(),
		"primary_key", a.pair.PKColumns(),
		"null_safe_keys", a.opts.NullSafeKeys)

	p := &Partition{}
	dest := []interface{}{
		&p.RecordsOld, &p.RecordsNew, &p.PKOld, &p.PKNew,
		&p.Matched, &p.OldOnly, &p.NewOnly,
		&p.DuplicateOld, &p.DuplicateNew, &p.MatchedPairs,
	}
	if err := a.sess.QueryOne(ctx, "align", query, dest); err != nil {
		return nil, err
	}

	a.logger.Infow("Alignment complete",
		"records_old", p.RecordsOld,
		"records_new", p.RecordsNew,
		"matched", p.Matched,
		"old_only", p.OldOnly,
		"new_only", p.NewOnly,
		"duplicate_old", p.DuplicateOld,
		"duplicate_new", p.DuplicateNew)

	return p, nil
}

// OnlyKeysSQL returns the statement OnlyKeys executes.
func (a *Aligner) OnlyKeysSQL(side Side, limit int) (string, error) {
	d := a.sess.Dialect()
	ctes, err := KeyCTEs(d, a.pair)
	if err != nil {
		return "", err
	}
	k := len(a.pair.Keys())

	this, other := OldKeys, NewKeys
	switch side {
	case SideOld:
	case SideNew:
		this, other = NewKeys, OldKeys
	default:
		return "", fmt.Errorf("unknown side %q", side)
	}

	return fmt.Sprintf("WITH %s\nSELECT %s FROM %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)\nORDER BY %s\nLIMIT %d",
		ctes,
		KeyList(this, k),
		this,
		other,
		KeyMatch(d, this, other, k, a.opts.NullSafeKeys),
		KeyList(this, k),
		limit), nil
}

// OnlyKeys returns up to limit keys present on one side only, in ascending
// key order. A non-positive limit returns nothing without querying.
func (a *Aligner) OnlyKeys(ctx context.Context, side Side, limit int) ([]types.Key, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, err := a.OnlyKeysSQL(side, limit)
	if err != nil {
		return nil, err
	}

	k := len(a.pair.Keys())
	var keys []types.Key
	err = a.sess.Each(ctx, "align", query, func(rows *sql.Rows) error {
		key := make(types.Key, k)
		dest := make([]interface{}, k)
		for i := range key {
			dest[i] = &key[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
