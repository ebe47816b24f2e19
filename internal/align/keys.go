package align

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/relation"
)

// Table aliases shared by every statement built on KeyCTEs.
const (
	OldAlias = "o"
	NewAlias = "n"
	OldKeys  = "ok"
	NewKeys  = "nk"
)

// KeyAlias names the i-th (1-based) key column in generated statements.
func KeyAlias(i int) string {
	return fmt.Sprintf("pk_%d", i)
}

// KeyCTEs renders the two multiplicity CTEs, without the leading WITH:
//
//	ok(pk_1..pk_k, n) = SELECT pk, COUNT(*) FROM old GROUP BY pk
//	nk(pk_1..pk_k, n) = SELECT pk, COUNT(*) FROM new GROUP BY pk
//
// GROUP BY always collapses NULL key components into one group.
func KeyCTEs(d engine.Dialect, pair *relation.Pair) (string, error) {
	oldFrom, err := pair.Old().From(d)
	if err != nil {
		return "", fmt.Errorf("old relation: %w", err)
	}
	newFrom, err := pair.New().From(d)
	if err != nil {
		return "", fmt.Errorf("new relation: %w", err)
	}

	oldCols, newCols := KeyExprs(d, pair)
	oldSel := make([]string, len(oldCols))
	newSel := make([]string, len(newCols))
	for i := range oldCols {
		oldSel[i] = oldCols[i] + " AS " + KeyAlias(i+1)
		newSel[i] = newCols[i] + " AS " + KeyAlias(i+1)
	}

	cte := func(name, from, alias string, sel, cols []string) string {
		return fmt.Sprintf("%s AS (SELECT %s, COUNT(*) AS n FROM %s %s GROUP BY %s)",
			name, strings.Join(sel, ", "), from, alias, strings.Join(cols, ", "))
	}

	return cte(OldKeys, oldFrom, OldAlias, oldSel, oldCols) + ",\n" +
		cte(NewKeys, newFrom, NewAlias, newSel, newCols), nil
}

// KeyExprs returns the key columns qualified by OldAlias and NewAlias.
func KeyExprs(d engine.Dialect, pair *relation.Pair) (oldCols, newCols []string) {
	for _, k := range pair.Keys() {
		oldCols = append(oldCols, OldAlias+"."+d.QuoteIdentifier(k.Name))
		newCols = append(newCols, NewAlias+"."+d.QuoteIdentifier(k.NewName))
	}
	return oldCols, newCols
}

// KeyMatch renders the equi-join condition on pk_1..pk_k between two
// aliases. With nullSafe, NULL key components match each other.
func KeyMatch(d engine.Dialect, left, right string, k int, nullSafe bool) string {
	lefts := make([]string, k)
	rights := make([]string, k)
	for i := 1; i <= k; i++ {
		lefts[i-1] = left + "." + KeyAlias(i)
		rights[i-1] = right + "." + KeyAlias(i)
	}
	return Match(d, lefts, rights, nullSafe)
}

// Match renders pairwise equality of two expression lists joined by AND.
func Match(d engine.Dialect, lefts, rights []string, nullSafe bool) string {
	conds := make([]string, len(lefts))
	for i := range lefts {
		if nullSafe {
			conds[i] = d.NullSafeEqual(lefts[i], rights[i])
		} else {
			conds[i] = lefts[i] + " = " + rights[i]
		}
	}
	return strings.Join(conds, " AND ")
}

// KeyList renders alias.pk_1, ..., alias.pk_k.
func KeyList(alias string, k int) string {
	cols := make([]string, k)
	for i := 1; i <= k; i++ {
		cols[i-1] = alias + "." + KeyAlias(i)
	}
	return strings.Join(cols, ", ")
}
