package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// labelSource adapts records to fuzzy.Source. Each record is matched on its
// display label followed by its id so either can be typed.
type labelSource []model.LabelRecord

func (s labelSource) String(i int) string {
	r := s[i]
	if r.Label == "" {
		return r.ID
	}
	return r.Label + " " + r.ID
}

func (s labelSource) Len() int { return len(s) }

// SearchLabels returns the ids of records fuzzily matching query, best match
// first. A blank query matches nothing.
func SearchLabels(records []model.LabelRecord, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" || len(records) == 0 {
		return nil
	}
	matches := fuzzy.FindFrom(query, labelSource(records))
	ids := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		id := records[m.Index].ID
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
