package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/goregress/internal/align"
	"github.com/dbsmedya/goregress/internal/relation"
	"github.com/dbsmedya/goregress/internal/types"
)

// Document is the serializable form of a SummaryReport.
type Document struct {
	RunID         string          `json:"run_id" yaml:"run_id"`
	RunTime       time.Time       `json:"run_time" yaml:"run_time"`
	TestName      string          `json:"test_name" yaml:"test_name"`
	PK            []string        `json:"primary_key" yaml:"primary_key"`
	Verdict       Verdict         `json:"verdict" yaml:"verdict"`
	Counts        Counts          `json:"counts" yaml:"counts"`
	Alignment     align.Partition `json:"alignment" yaml:"alignment"`
	ColumnsDiff   []string        `json:"columns_diff" yaml:"columns_diff"`
	TotalDiffs    int64           `json:"total_diffs" yaml:"total_diffs"`
	Groups        []Group         `json:"groups" yaml:"groups"`
	Samples       []SampleGroup   `json:"samples" yaml:"samples"`
	OldOnlyKeys   []types.Key     `json:"old_only_keys,omitempty" yaml:"old_only_keys,omitempty"`
	NewOnlyKeys   []types.Key     `json:"new_only_keys,omitempty" yaml:"new_only_keys,omitempty"`
	Drift         relation.Drift  `json:"schema_drift" yaml:"schema_drift"`
	Skipped       []SkippedColumn `json:"skipped_columns,omitempty" yaml:"skipped_columns,omitempty"`
	Ignored       []string        `json:"ignored_columns,omitempty" yaml:"ignored_columns,omitempty"`
	Disagreements int             `json:"classification_disagreements" yaml:"classification_disagreements"`
}

// Document returns the serializable form of the report.
func (r *SummaryReport) Document() Document {
	columns := r.ColumnsDiff()
	if columns == nil {
		columns = []string{}
	}
	return Document{
		RunID:         r.runID,
		RunTime:       r.runTime,
		TestName:      r.testName,
		PK:            r.PK(),
		Verdict:       r.verdict,
		Counts:        r.Counts(),
		Alignment:     r.alignment,
		ColumnsDiff:   columns,
		TotalDiffs:    r.totalDiffs,
		Groups:        r.Groups(),
		Samples:       r.Samples(),
		OldOnlyKeys:   r.OldOnlyKeys(),
		NewOnlyKeys:   r.NewOnlyKeys(),
		Drift:         r.drift,
		Skipped:       r.Skipped(),
		Ignored:       r.Ignored(),
		Disagreements: r.disagreements,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *SummaryReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Document()); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML.
func (r *SummaryReport) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Document()); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return enc.Close()
}
