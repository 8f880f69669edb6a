package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// SourceDiff represents differences between two label sources
type SourceDiff struct {
	// SourceA is the path of the first source
	SourceA string `json:"source_a"`
	// SourceB is the path of the second source
	SourceB string `json:"source_b"`
	// MissingInA contains label IDs present in B but not in A
	MissingInA []string `json:"missing_in_a,omitempty"`
	// MissingInB contains label IDs present in A but not in B
	MissingInB []string `json:"missing_in_b,omitempty"`
	// ParentMismatch contains labels attached to different parents
	ParentMismatch []FieldDifference `json:"parent_mismatch,omitempty"`
	// LabelMismatch contains labels whose display text differs
	LabelMismatch []FieldDifference `json:"label_mismatch,omitempty"`
	// CountA is the number of labels in source A
	CountA int `json:"count_a"`
	// CountB is the number of labels in source B
	CountB int `json:"count_b"`
}

// FieldDifference is a single field that differs for one label
type FieldDifference struct {
	ID string `json:"id"`
	A  string `json:"a"`
	B  string `json:"b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 ||
		len(d.ParentMismatch) > 0 || len(d.LabelMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d labels each)", d.CountA)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)

	if d.CountA != d.CountB {
		fmt.Fprintf(&sb, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	writeIDs := func(ids []string, in, notIn string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  - %d labels in %s but not %s\n", len(ids), in, notIn)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&sb, "    - %s\n", id)
			}
		}
	}
	writeIDs(d.MissingInA, d.SourceB, d.SourceA)
	writeIDs(d.MissingInB, d.SourceA, d.SourceB)

	writeFields := func(diffs []FieldDifference, what string) {
		if len(diffs) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  - %d labels with different %s\n", len(diffs), what)
		if len(diffs) <= 5 {
			for _, m := range diffs {
				fmt.Fprintf(&sb, "    - %s: %q vs %q\n", m.ID, m.A, m.B)
			}
		}
	}
	writeFields(d.ParentMismatch, "parent")
	writeFields(d.LabelMismatch, "label")

	return sb.String()
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// CompareLabels also reports differing label text
	CompareLabels bool
	// MaxDifferences limits the number of differences tracked per kind (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		CompareLabels:  true,
		MaxDifferences: 100,
	}
}

// DetectInconsistencies compares two label sets. The first record wins for
// duplicate IDs, matching how the tree resolves them. Results are sorted by ID.
func DetectInconsistencies(labelsA, labelsB []model.LabelRecord, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{
		SourceA: sourceA,
		SourceB: sourceB,
	}

	mapA := firstByID(labelsA)
	mapB := firstByID(labelsB)
	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	room := func(n int) bool {
		return opts.MaxDifferences == 0 || n < opts.MaxDifferences
	}

	for _, id := range sortedKeys(mapA) {
		if _, ok := mapB[id]; !ok && room(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}

	for _, id := range sortedKeys(mapB) {
		b := mapB[id]
		a, ok := mapA[id]
		if !ok {
			if room(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}
		if a.Parent != b.Parent && room(len(diff.ParentMismatch)) {
			diff.ParentMismatch = append(diff.ParentMismatch, FieldDifference{ID: id, A: a.Parent, B: b.Parent})
		}
		if opts.CompareLabels && a.Label != b.Label && room(len(diff.LabelMismatch)) {
			diff.LabelMismatch = append(diff.LabelMismatch, FieldDifference{ID: id, A: a.Label, B: b.Label})
		}
	}

	return diff
}

// CompareSources loads and compares two data sources
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	defer metrics.Timer(metrics.LabelLoad)()

	labelsA, err := LoadFromSource(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}

	labelsB, err := LoadFromSource(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}

	diff := DetectInconsistencies(labelsA, labelsB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

func firstByID(records []model.LabelRecord) map[string]model.LabelRecord {
	m := make(map[string]model.LabelRecord, len(records))
	for _, r := range records {
		if _, ok := m[r.ID]; !ok {
			m[r.ID] = r
		}
	}
	return m
}

func sortedKeys(m map[string]model.LabelRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
