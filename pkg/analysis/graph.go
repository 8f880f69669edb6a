// Package analysis inspects a label hierarchy for structural problems the
// table of contents tolerates silently: dangling parents, cycles, duplicate
// ids and inconsistent layer metadata.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// Analyzer holds the parent graph of a record set. Edges run parent -> child
// and top-level records hang off a synthetic root node.
type Analyzer struct {
	g         *simple.DirectedGraph
	root      graph.Node
	idToNode  map[string]int64
	nodeToID  map[int64]string
	recordMap map[string]model.LabelRecord

	// selfParented lists ids whose parent is themselves; simple graphs
	// cannot hold self edges.
	selfParented []string
	duplicates   []string
	dangling     []string
}

// NewAnalyzer builds the graph. The first record wins for repeated ids.
func NewAnalyzer(records []model.LabelRecord) *Analyzer {
	g := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(records))
	nodeToID := make(map[int64]string, len(records))
	recordMap := make(map[string]model.LabelRecord, len(records))

	root := g.NewNode()
	g.AddNode(root)

	a := &Analyzer{
		g:         g,
		root:      root,
		idToNode:  idToNode,
		nodeToID:  nodeToID,
		recordMap: recordMap,
	}

	// 1. Add Nodes
	var unique []model.LabelRecord
	for _, rec := range records {
		if _, seen := recordMap[rec.ID]; seen {
			a.duplicates = append(a.duplicates, rec.ID)
			continue
		}
		recordMap[rec.ID] = rec
		n := g.NewNode()
		g.AddNode(n)
		idToNode[rec.ID] = n.ID()
		nodeToID[n.ID()] = rec.ID
		unique = append(unique, rec)
	}

	// 2. Add Edges (parent -> child)
	for _, rec := range unique {
		child := g.Node(idToNode[rec.ID])
		switch {
		case rec.Parent == model.RootID:
			g.SetEdge(g.NewEdge(root, child))
		case rec.Parent == rec.ID:
			a.selfParented = append(a.selfParented, rec.ID)
		default:
			p, ok := idToNode[rec.Parent]
			if !ok {
				a.dangling = append(a.dangling, rec.ID)
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(p), child))
		}
	}

	return a
}

// NodeCount returns the number of distinct records.
func (a *Analyzer) NodeCount() int { return len(a.idToNode) }

// EdgeCount returns the number of resolved parent links, including root links.
func (a *Analyzer) EdgeCount() int { return a.g.Edges().Len() }

// Record returns the first record with id.
func (a *Analyzer) Record(id string) (model.LabelRecord, bool) {
	r, ok := a.recordMap[id]
	return r, ok
}

// Duplicates returns repeated ids in input order (one entry per extra copy).
func (a *Analyzer) Duplicates() []string { return a.duplicates }

// Dangling returns ids whose parent is neither the root nor a known record.
func (a *Analyzer) Dangling() []string { return a.dangling }

// Cycles returns each parent cycle as a sorted id list. Self-parented records
// form single-element cycles. The result is sorted by first id.
func (a *Analyzer) Cycles() [][]string {
	var cycles [][]string
	for _, id := range a.selfParented {
		cycles = append(cycles, []string{id})
	}
	for _, scc := range topo.TarjanSCC(a.g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, a.nodeToID[n.ID()])
		}
		sort.Strings(ids)
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// Depths returns the depth of every record reachable from the root; top-level
// records have depth 1. Records missing from the map are never rendered.
func (a *Analyzer) Depths() map[string]int {
	depths := make(map[string]int, len(a.idToNode))
	bfs := traverse.BreadthFirst{}
	bfs.Walk(a.g, a.root, func(n graph.Node, d int) bool {
		if id, ok := a.nodeToID[n.ID()]; ok {
			depths[id] = d
		}
		return false
	})
	return depths
}

// Children returns the ids of a record's resolved children, sorted.
func (a *Analyzer) Children(id string) []string {
	n, ok := a.idToNode[id]
	if !ok {
		return nil
	}
	var out []string
	to := a.g.From(n)
	for to.Next() {
		out = append(out, a.nodeToID[to.Node().ID()])
	}
	sort.Strings(out)
	return out
}

// TopLevel returns the number of records attached to the root.
func (a *Analyzer) TopLevel() int {
	return a.g.From(a.root.ID()).Len()
}
