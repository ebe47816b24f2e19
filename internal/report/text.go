package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goregress/internal/types"
)

// TextOptions controls WriteText.
type TextOptions struct {
	// Color enables ANSI colors for the verdict and headings.
	Color bool
	// MaxValueWidth truncates sample values wider than this. Zero means 40.
	MaxValueWidth int
}

const defaultMaxValueWidth = 40

// textWriter keeps the first write error so the render code can stay linear.
type textWriter struct {
	w    io.Writer
	opts TextOptions
	err  error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) paint(c color.Color, s string) string {
	if !t.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func (t *textWriter) header(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	line := strings.Repeat("=", runewidth.StringWidth(title)+4)
	t.printf("%s\n  %s\n%s\n", line, t.paint(color.Bold, title), line)
}

func (t *textWriter) section(title string) {
	t.printf("\n%s\n%s\n", t.paint(color.Cyan, "["+title+"]"), strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// table prints rows with columns padded to their display width.
func (t *textWriter) table(indent string, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		sb.WriteString(indent)
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		t.printf("%s\n", strings.TrimRight(sb.String(), " "))
	}
}

// sideBySide prints two blocks next to each other.
func (t *textWriter) sideBySide(left, right []string, padding int) {
	leftWidth := 0
	for _, line := range left {
		if w := runewidth.StringWidth(line); w > leftWidth {
			leftWidth = w
		}
	}
	height := len(left)
	if len(right) > height {
		height = len(right)
	}
	for i := 0; i < height; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		if r == "" {
			t.printf("%s\n", l)
			continue
		}
		t.printf("%s%s\n", runewidth.FillRight(l, leftWidth+padding), r)
	}
}

func (t *textWriter) value(s string) string {
	limit := t.opts.MaxValueWidth
	if limit <= 0 {
		limit = defaultMaxValueWidth
	}
	return runewidth.Truncate(s, limit, "...")
}

// WriteText writes the human-readable summary.
func (r *SummaryReport) WriteText(w io.Writer, opts TextOptions) error {
	t := &textWriter{w: w, opts: opts}

	t.header("Regression Test: %s", r.testName)
	t.printf("Run ID:      %s\n", r.runID)
	t.printf("Run Time:    %s\n", r.runTime.Format("2006-01-02 15:04:05 MST"))
	t.printf("Primary Key: %s\n", strings.Join(r.pk, ", "))

	verdict := string(r.verdict)
	if r.Passed() {
		verdict = t.paint(color.Green, verdict)
	} else {
		verdict = t.paint(color.Red, verdict)
	}
	t.printf("Verdict:     %s\n", verdict)

	t.section("Counts")
	p := r.alignment
	t.sideBySide(
		[]string{
			fmt.Sprintf("Records (old): %d", p.RecordsOld),
			fmt.Sprintf("Records (new): %d", p.RecordsNew),
			fmt.Sprintf("Keys (old):    %d", p.PKOld),
			fmt.Sprintf("Keys (new):    %d", p.PKNew),
		},
		[]string{
			fmt.Sprintf("Matched:       %d", p.Matched),
			fmt.Sprintf("Old only:      %d", p.OldOnly),
			fmt.Sprintf("New only:      %d", p.NewOnly),
			fmt.Sprintf("Duplicated:    %d old, %d new", p.DuplicateOld, p.DuplicateNew),
		},
		6,
	)

	t.section("Columns With Differences")
	if len(r.columnsDiff) == 0 {
		t.printf("  (none)\n")
	} else {
		t.printf("  %s\n", strings.Join(r.columnsDiff, ", "))
	}

	t.section("Diff Groups")
	groups := r.Groups()
	if len(groups) == 0 {
		t.printf("  (none)\n")
	} else {
		rows := [][]string{{"COLUMN", "CATEGORY", "COUNT", "DUPLICATES", "% OF OLD"}}
		for _, g := range groups {
			rows = append(rows, []string{
				g.Column,
				string(g.Category),
				fmt.Sprintf("%d", g.Count),
				fmt.Sprintf("%d", g.DuplicateCount),
				g.Percent,
			})
		}
		t.table("  ", rows)
		t.printf("  Total differences: %d\n", r.totalDiffs)
	}

	samples := r.Samples()
	if len(samples) > 0 {
		t.section("Samples")
		for _, s := range samples {
			label := fmt.Sprintf("%s / %s", s.Column, s.Category)
			if s.Duplicate {
				label += " (duplicate key)"
			}
			t.printf("  %s\n", t.paint(color.Bold, label))
			rows := [][]string{{"KEY", "OLD", "NEW"}}
			for _, tuple := range s.Tuples {
				rows = append(rows, []string{
					t.value(tuple.Key.String()),
					t.value(tuple.Old.Text()),
					t.value(tuple.New.Text()),
				})
			}
			t.table("    ", rows)
		}
	}

	if p.OldOnly > 0 || p.NewOnly > 0 {
		t.section("Unmatched Keys")
		r.writeKeys(t, "Old only", p.OldOnly, r.oldOnlyKeys)
		r.writeKeys(t, "New only", p.NewOnly, r.newOnlyKeys)
	}

	if !r.drift.Empty() {
		t.section("Schema Drift")
		if len(r.drift.OldOnly) > 0 {
			t.printf("  Old only: %s\n", strings.Join(r.drift.OldOnly, ", "))
		}
		if len(r.drift.NewOnly) > 0 {
			t.printf("  New only: %s\n", strings.Join(r.drift.NewOnly, ", "))
		}
	}

	if len(r.skipped) > 0 || len(r.ignored) > 0 {
		t.section("Excluded Columns")
		rows := [][]string{}
		for _, s := range r.skipped {
			rows = append(rows, []string{s.Column, "skipped", fmt.Sprintf("unsupported %s type %s", s.Side, s.SQLType)})
		}
		for _, c := range r.ignored {
			rows = append(rows, []string{c, "ignored", "configured"})
		}
		t.table("  ", rows)
	}

	if r.disagreements > 0 {
		t.printf("\n%s %d sampled tuple(s) were classified differently in process\n",
			t.paint(color.Yellow, "Warning:"), r.disagreements)
	}

	return t.err
}

func (r *SummaryReport) writeKeys(t *textWriter, label string, total int64, keys []types.Key) {
	if total == 0 {
		return
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = t.value(k.String())
	}
	line := strings.Join(parts, ", ")
	switch {
	case len(keys) == 0:
		line = fmt.Sprintf("%d key(s)", total)
	case int64(len(keys)) < total:
		line += fmt.Sprintf(", ... (%d total)", total)
	}
	t.printf("  %s: %s\n", label, line)
}
