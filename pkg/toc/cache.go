package toc

import (
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// SpanCache maps a record id to its display node.
type SpanCache struct {
	spans map[string]Element
}

// Rebuild scans the surface for every element carrying data-element-id and
// replaces the cache contents in one step. The first element wins on
// repeated ids.
func (c *SpanCache) Rebuild(surface Surface) {
	defer metrics.Timer(metrics.SpanCacheBuild)()

	found := surface.FindAllWithAttribute(AttrElementID)
	spans := make(map[string]Element, len(found))
	for _, el := range found {
		id, ok := el.Attr(AttrElementID)
		if !ok {
			continue
		}
		if _, dup := spans[id]; !dup {
			spans[id] = el
		}
	}
	c.spans = spans
}

// Get returns the display node for id.
func (c *SpanCache) Get(id string) (Element, bool) {
	el, ok := c.spans[id]
	return el, ok
}

// Len returns the number of cached nodes.
func (c *SpanCache) Len() int {
	return len(c.spans)
}

// ChainCache maps a record id to its ancestor ids, immediate parent first.
type ChainCache struct {
	chains map[string][]string
}

// Rebuild recomputes every ancestor chain from h and swaps the result in.
func (c *ChainCache) Rebuild(h *Hierarchy) {
	defer metrics.Timer(metrics.ChainCacheBuild)()

	chains := make(map[string][]string, h.Len())
	for _, rec := range h.Records() {
		if _, dup := chains[rec.ID]; dup {
			continue
		}
		chains[rec.ID] = AncestorChain(h, rec.ID)
	}
	c.chains = chains
}

// Get returns the cached chain for id.
func (c *ChainCache) Get(id string) ([]string, bool) {
	chain, ok := c.chains[id]
	return chain, ok
}

// Len returns the number of cached chains.
func (c *ChainCache) Len() int {
	return len(c.chains)
}

// AncestorChain follows parent links from id. The walk stops at the root
// sentinel (not included), after an id that resolves to no record (included),
// or when an id repeats.
func AncestorChain(h *Hierarchy, id string) []string {
	rec, ok := h.Record(id)
	if !ok {
		return nil
	}
	var chain []string
	seen := map[string]bool{id: true}
	for parent := rec.Parent; parent != "" && parent != model.RootID; {
		if seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		next, ok := h.Record(parent)
		if !ok {
			break
		}
		parent = next.Parent
	}
	return chain
}
