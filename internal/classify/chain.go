package classify

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/types"
)

// Chain is an ordered, immutable list of rules. The first matching rule
// wins; ValueChanged is the fallback.
type Chain struct {
	rules []Rule
}

// NewChain builds a chain from rules in priority order.
func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: append([]Rule(nil), rules...)}
}

// DefaultChain returns the built-in classification chain.
func DefaultChain() *Chain {
	return NewChain(DefaultRules()...)
}

// Rules returns a copy of the rules in priority order.
func (c *Chain) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Categories returns the categories in priority order, fallback last.
func (c *Chain) Categories() []Category {
	cats := make([]Category, 0, len(c.rules)+1)
	for _, r := range c.rules {
		cats = append(cats, r.Category)
	}
	return append(cats, ValueChanged)
}

// Insert returns a new chain with r placed immediately before the rule for
// category before. Existing rules keep their relative order.
func (c *Chain) Insert(before Category, r Rule) (*Chain, error) {
	if err := c.checkNew(r); err != nil {
		return nil, err
	}
	for i, existing := range c.rules {
		if existing.Category == before {
			rules := make([]Rule, 0, len(c.rules)+1)
			rules = append(rules, c.rules[:i]...)
			rules = append(rules, r)
			rules = append(rules, c.rules[i:]...)
			return &Chain{rules: rules}, nil
		}
	}
	if before == ValueChanged {
		return c.Append(r)
	}
	return nil, fmt.Errorf("category %q is not in the chain", before)
}

// Append returns a new chain with r placed after every existing rule.
func (c *Chain) Append(r Rule) (*Chain, error) {
	if err := c.checkNew(r); err != nil {
		return nil, err
	}
	return &Chain{rules: append(c.Rules(), r)}, nil
}

func (c *Chain) checkNew(r Rule) error {
	if r.Category == "" || r.Category == NoDiff || r.Category == ValueChanged {
		return fmt.Errorf("rule category %q is reserved", r.Category)
	}
	if r.Match == nil {
		return fmt.Errorf("rule %q has no Match function", r.Category)
	}
	for _, existing := range c.rules {
		if existing.Category == r.Category {
			return fmt.Errorf("category %q is already in the chain", r.Category)
		}
	}
	return nil
}

// Classify assigns a category to an old/new pair. Equal values yield NoDiff.
func (c *Chain) Classify(col ColumnInfo, old, new types.Value, opts Options) Category {
	if Equal(col, old, new, opts) {
		return NoDiff
	}
	for _, r := range c.rules {
		if r.applies(col) && r.Match(col, old, new, opts) {
			return r.Category
		}
	}
	return ValueChanged
}

// CaseSQL renders the chain as one CASE expression yielding the category
// name, for rows already known to differ.
func (c *Chain) CaseSQL(d engine.Dialect, col ColumnInfo, o, n string, opts Options) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, r := range c.rules {
		if !r.applies(col) || r.SQL == nil {
			continue
		}
		cond := r.SQL(d, col, o, n, opts)
		if cond == "" {
			continue
		}
		fmt.Fprintf(&b, " WHEN %s THEN %s", cond, d.QuoteString(string(r.Category)))
	}
	fmt.Fprintf(&b, " ELSE %s END", d.QuoteString(string(ValueChanged)))
	return b.String()
}
