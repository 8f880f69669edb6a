package model

import (
	"fmt"
	"math"
	"strings"
)

// RootID is the parent value carried by top-level records.
const RootID = "base"

// unlabeledSuffix marks records that stand in for unlabeled clusters.
const unlabeledSuffix = "-1"

// Bounds is a spatial bounding box ordered [minX, maxX, minY, maxY].
type Bounds [4]float64

// MinX returns the left edge.
func (b Bounds) MinX() float64 { return b[0] }

// MaxX returns the right edge.
func (b Bounds) MaxX() float64 { return b[1] }

// MinY returns the bottom edge.
func (b Bounds) MinY() float64 { return b[2] }

// MaxY returns the top edge.
func (b Bounds) MaxY() float64 { return b[3] }

// Width returns the horizontal extent (never negative).
func (b Bounds) Width() float64 { return math.Abs(b[1] - b[0]) }

// Height returns the vertical extent (never negative).
func (b Bounds) Height() float64 { return math.Abs(b[3] - b[2]) }

// Center returns the midpoint of the box.
func (b Bounds) Center() (x, y float64) {
	return (b[0] + b[1]) / 2, (b[2] + b[3]) / 2
}

// IsFinite reports whether every edge is a finite number.
func (b Bounds) IsFinite() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		math.Min(b[0], o[0]),
		math.Max(b[1], o[1]),
		math.Min(b[2], o[2]),
		math.Max(b[3], o[3]),
	}
}

// LabelRecord is one entry of the flat label sequence that feeds the topic tree.
type LabelRecord struct {
	ID          string `json:"id"`
	Parent      string `json:"parent"`
	LayerNo     int    `json:"layer_no"`
	LowestLayer bool   `json:"lowest_layer"`
	Label       string `json:"label,omitempty"`
	Bounds      Bounds `json:"bounds"`
}

// DisplayLabel returns the label text, falling back to the ID.
func (r LabelRecord) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.ID
}

// IsTopLevel reports whether the record hangs directly off the root.
func (r LabelRecord) IsTopLevel() bool {
	return r.Parent == RootID
}

// IsUnlabeled reports whether the record represents an unlabeled cluster.
func (r LabelRecord) IsUnlabeled() bool {
	return strings.HasSuffix(r.ID, unlabeledSuffix)
}

// Validate checks the record for values that can never be rendered.
// Dangling parents are not an error here; the tree tolerates them.
func (r *LabelRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("label ID cannot be empty")
	}
	if r.ID == RootID {
		return fmt.Errorf("label ID %q is reserved for the root", RootID)
	}
	if r.Parent == "" {
		return fmt.Errorf("label %s has no parent (use %q for top-level labels)", r.ID, RootID)
	}
	if !r.Bounds.IsFinite() {
		return fmt.Errorf("label %s has non-finite bounds %v", r.ID, r.Bounds)
	}
	return nil
}

// RootLayerNo returns the highest layer number across records, or 0 when empty.
func RootLayerNo(records []LabelRecord) int {
	if len(records) == 0 {
		return 0
	}
	maxLayer := records[0].LayerNo
	for _, r := range records[1:] {
		if r.LayerNo > maxLayer {
			maxLayer = r.LayerNo
		}
	}
	return maxLayer
}

// IDs returns the record IDs in input order.
func IDs(records []LabelRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
