package toc

import (
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// Hierarchy is the parent->children adjacency of a flat record list plus an
// id table for parent lookups. It is built once and never mutated.
type Hierarchy struct {
	records  []model.LabelRecord
	children map[string][]*model.LabelRecord
	byID     map[string]*model.LabelRecord
}

// BuildHierarchy groups records under their parent id in a single pass,
// keeping input order within each sibling group. When ids repeat, the first
// record owns the id table slot; every record still appears as a child.
func BuildHierarchy(records []model.LabelRecord) *Hierarchy {
	defer metrics.Timer(metrics.HierarchyBuild)()

	h := &Hierarchy{
		records:  make([]model.LabelRecord, len(records)),
		children: make(map[string][]*model.LabelRecord),
		byID:     make(map[string]*model.LabelRecord, len(records)),
	}
	copy(h.records, records)
	for i := range h.records {
		r := &h.records[i]
		h.children[r.Parent] = append(h.children[r.Parent], r)
		if _, dup := h.byID[r.ID]; !dup {
			h.byID[r.ID] = r
		}
	}
	return h
}

// Children returns the direct children of parentID in input order.
func (h *Hierarchy) Children(parentID string) []*model.LabelRecord {
	return h.children[parentID]
}

// Record looks up a record by id.
func (h *Hierarchy) Record(id string) (*model.LabelRecord, bool) {
	r, ok := h.byID[id]
	return r, ok
}

// Records returns the records in input order.
func (h *Hierarchy) Records() []model.LabelRecord {
	return h.records
}

// Len returns the number of records.
func (h *Hierarchy) Len() int {
	return len(h.records)
}

// ParentIDs returns every key of the children map, the root sentinel included.
func (h *Hierarchy) ParentIDs() []string {
	ids := make([]string, 0, len(h.children))
	for id := range h.children {
		ids = append(ids, id)
	}
	return ids
}

type renderer struct {
	surface Surface
	h       *Hierarchy
	opts    Options
	visited map[string]bool
	nodes   int
}

// render appends the nested list for parentID under parent. A parent with no
// children contributes nothing. Each id is expanded at most once, so
// duplicated or cyclic ids cannot recurse forever.
func (r *renderer) render(parent Element, parentID string) Element {
	children := r.h.Children(parentID)
	if len(children) == 0 {
		return nil
	}
	list := r.surface.CreateElement("ul")
	list.AddClass(ClassNested)
	for _, rec := range children {
		list.AppendChild(r.item(rec))
	}
	parent.AppendChild(list)
	return list
}

func (r *renderer) item(rec *model.LabelRecord) Element {
	r.nodes++
	li := r.surface.CreateElement("li")

	marker := r.surface.CreateElement("span")
	if rec.LowestLayer {
		marker.AddClass(ClassBullet)
	} else {
		marker.AddClass(ClassCaret)
	}
	if rec.IsUnlabeled() {
		marker.AddClass(ClassUnlabeled)
	}
	marker.SetAttr(AttrElementID, rec.ID)
	li.AppendChild(marker)

	if r.opts.Buttons {
		btn := r.surface.CreateElement("button")
		btn.AddClass(ClassButton)
		btn.SetAttr(AttrLabelID, rec.ID)
		btn.SetText(r.opts.ButtonIcon)
		li.AppendChild(btn)
	}

	label := r.surface.CreateElement("span")
	label.AddClass(ClassLabel)
	label.SetAttr(AttrBounds, encodeBounds(rec.Bounds))
	label.SetAttr(AttrLabelID, rec.ID)
	label.SetText(rec.DisplayLabel())
	li.AppendChild(label)

	if !r.visited[rec.ID] {
		r.visited[rec.ID] = true
		r.render(li, rec.ID)
	}
	return li
}

func encodeBounds(b model.Bounds) string {
	data, err := json.Marshal(b)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeBounds parses a data-bounds attribute value.
func DecodeBounds(s string) (model.Bounds, error) {
	var b model.Bounds
	err := json.Unmarshal([]byte(s), &b)
	return b, err
}
