package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// FindingKind classifies a validation finding.
type FindingKind string

const (
	FindingInvalid        FindingKind = "invalid_record"
	FindingDuplicateID    FindingKind = "duplicate_id"
	FindingDanglingParent FindingKind = "dangling_parent"
	FindingCycle          FindingKind = "cycle"
	FindingUnreachable    FindingKind = "unreachable"
	FindingLowestLayer    FindingKind = "lowest_layer_mismatch"
	FindingLayerOrder     FindingKind = "layer_order"
)

// Severity of a finding. Errors hide records from the tree; warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

var kindSeverity = map[FindingKind]Severity{
	FindingInvalid:        SeverityError,
	FindingDuplicateID:    SeverityWarning,
	FindingDanglingParent: SeverityError,
	FindingCycle:          SeverityError,
	FindingUnreachable:    SeverityError,
	FindingLowestLayer:    SeverityWarning,
	FindingLayerOrder:     SeverityWarning,
}

// Finding is one reported problem.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	ID       string      `json:"id"`
	Detail   string      `json:"detail"`
}

// Report summarizes a validation run.
type Report struct {
	RecordCount int            `json:"record_count"`
	UniqueCount int            `json:"unique_count"`
	TopLevel    int            `json:"top_level"`
	Rendered    int            `json:"rendered"`
	MaxDepth    int            `json:"max_depth"`
	RootLayerNo int            `json:"root_layer_no"`
	Counts      map[string]int `json:"counts"`
	Findings    []Finding      `json:"findings"`
}

// Options bounds the report size.
type Options struct {
	// MaxFindings caps Findings (0 = unlimited). Counts stay exact.
	MaxFindings int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{MaxFindings: 200}
}

// Validate runs every structural check over records.
func Validate(records []model.LabelRecord, opts Options) Report {
	a := NewAnalyzer(records)
	depths := a.Depths()

	r := Report{
		RecordCount: len(records),
		UniqueCount: a.NodeCount(),
		TopLevel:    a.TopLevel(),
		Rendered:    len(depths),
		RootLayerNo: model.RootLayerNo(records),
		Counts:      make(map[string]int),
	}
	for _, d := range depths {
		r.MaxDepth = max(r.MaxDepth, d)
	}

	add := func(kind FindingKind, id, format string, args ...any) {
		r.Counts[string(kind)]++
		if opts.MaxFindings > 0 && len(r.Findings) >= opts.MaxFindings {
			return
		}
		r.Findings = append(r.Findings, Finding{
			Kind:     kind,
			Severity: kindSeverity[kind],
			ID:       id,
			Detail:   fmt.Sprintf(format, args...),
		})
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			add(FindingInvalid, records[i].ID, "%v", err)
		}
	}

	for _, id := range a.Duplicates() {
		add(FindingDuplicateID, id, "repeated id %s; the first occurrence is used", id)
	}

	flagged := make(map[string]bool)
	for _, id := range a.Dangling() {
		rec, _ := a.Record(id)
		add(FindingDanglingParent, id, "parent %s does not exist", rec.Parent)
		flagged[id] = true
	}

	for _, cycle := range a.Cycles() {
		add(FindingCycle, cycle[0], "parent cycle: %s", strings.Join(cycle, " → "))
		for _, id := range cycle {
			flagged[id] = true
		}
	}

	var unreachable []string
	for id := range a.recordMap {
		if _, ok := depths[id]; !ok && !flagged[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	for _, id := range unreachable {
		rec, _ := a.Record(id)
		add(FindingUnreachable, id, "ancestor of %s never reaches the root", rec.Parent)
	}

	for _, id := range sortedIDs(depths) {
		rec, _ := a.Record(id)
		children := a.Children(id)
		switch {
		case rec.LowestLayer && len(children) > 0:
			add(FindingLowestLayer, id, "marked lowest_layer but has %d children", len(children))
		case !rec.LowestLayer && len(children) == 0:
			add(FindingLowestLayer, id, "not marked lowest_layer but has no children")
		}
		for _, c := range children {
			child, _ := a.Record(c)
			if child.LayerNo >= rec.LayerNo {
				add(FindingLayerOrder, c, "layer_no %d is not below parent %s (layer_no %d)", child.LayerNo, id, rec.LayerNo)
			}
		}
	}

	return r
}

// OK reports whether no error-severity findings were recorded.
func (r Report) OK() bool {
	for kind, n := range r.Counts {
		if n > 0 && kindSeverity[FindingKind(kind)] == SeverityError {
			return false
		}
	}
	return true
}

// Count returns how many findings of kind were seen.
func (r Report) Count(kind FindingKind) int { return r.Counts[string(kind)] }

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summary returns a human-readable report.
func (r Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d records (%d unique), %d top-level, %d rendered, max depth %d, root layer %d\n",
		r.RecordCount, r.UniqueCount, r.TopLevel, r.Rendered, r.MaxDepth, r.RootLayerNo)

	if len(r.Findings) == 0 {
		sb.WriteString("No problems found\n")
		return sb.String()
	}

	kinds := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&sb, "  %-22s %d\n", k, r.Counts[k])
	}
	for _, f := range r.Findings {
		fmt.Fprintf(&sb, "  [%s] %s %s: %s\n", f.Severity, f.Kind, f.ID, f.Detail)
	}
	if total := r.total(); total > len(r.Findings) {
		fmt.Fprintf(&sb, "  ... %d more\n", total-len(r.Findings))
	}
	return sb.String()
}

func (r Report) total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

func sortedIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
