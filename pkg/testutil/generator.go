// Package testutil provides deterministic label hierarchy fixtures and
// assertion helpers shared by the package tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// GraphFixture is an abstract parent graph. Each edge [child, parent] makes
// Nodes[child] a child of Nodes[parent]; nodes without an edge are top-level.
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"`
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	HasCycles     bool `json:"has_cycles,omitempty"`
	ExpectedDepth int  `json:"expected_depth,omitempty"`
	TopLevel      int  `json:"top_level,omitempty"`
}

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed      int64   // random seed (0 = 42)
	IDPrefix  string  // prefix for record ids (default "L")
	LabelRate float64 // fraction of records given a display label
	Extent    float64 // side of the square the bounds are drawn from (default 100)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		IDPrefix:  "L",
		LabelRate: 1,
		Extent:    100,
	}
}

// Generator creates fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "L"
	}
	if cfg.Extent <= 0 {
		cfg.Extent = 100
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Chain creates n0 <- n1 <- ... <- n{size-1}, with n0 top-level.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i, i - 1})
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Chain of %d labels", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: size - 1, TopLevel: min(size, 1)},
	}
}

// Star creates one top-level hub with the given number of children.
func (g *Generator) Star(spokes int) GraphFixture {
	nodes := []string{"hub"}
	edges := make([][2]int, 0, spokes)
	for i := 1; i <= spokes; i++ {
		nodes = append(nodes, fmt.Sprintf("spoke%d", i))
		edges = append(edges, [2]int{i, 0})
	}
	depth := 0
	if spokes > 0 {
		depth = 1
	}
	return GraphFixture{
		Description: fmt.Sprintf("Hub with %d children", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: depth, TopLevel: 1},
	}
}

// Tree creates a single top-level root where every inner node has breadth children.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	depth = max(depth, 1)
	breadth = max(breadth, 1)

	nodes := []string{"n0"}
	var edges [][2]int
	level := []int{0}
	for d := 0; d < depth; d++ {
		var next []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				child := len(nodes)
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{child, parent})
				next = append(next, child)
			}
		}
		level = next
	}
	return GraphFixture{
		Description: fmt.Sprintf("Tree depth=%d breadth=%d (%d labels)", depth, breadth, len(nodes)),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{ExpectedDepth: depth, TopLevel: 1},
	}
}

// Forest creates several independent trees side by side.
func (g *Generator) Forest(trees, depth, breadth int) GraphFixture {
	var out GraphFixture
	for tr := 0; tr < trees; tr++ {
		sub := g.Tree(depth, breadth)
		offset := len(out.Nodes)
		for _, n := range sub.Nodes {
			out.Nodes = append(out.Nodes, fmt.Sprintf("t%d%s", tr, n))
		}
		for _, e := range sub.Edges {
			out.Edges = append(out.Edges, [2]int{e[0] + offset, e[1] + offset})
		}
	}
	out.Description = fmt.Sprintf("Forest of %d trees (%d labels)", trees, len(out.Nodes))
	out.Properties = Properties{ExpectedDepth: max(depth, 1), TopLevel: trees}
	return out
}

// Cycle creates labels whose parent links form a loop. None of them reach the root.
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("c%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Parent cycle of %d labels", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{HasCycles: true},
	}
}

// RandomForest attaches each node to a random earlier node, or to the root
// with probability rootRate.
func (g *Generator) RandomForest(size int, rootRate float64) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int
	top := 0
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i == 0 || g.rng.Float64() < rootRate {
			top++
			continue
		}
		edges = append(edges, [2]int{i, g.rng.Intn(i)})
	}
	return GraphFixture{
		Description: fmt.Sprintf("Random forest of %d labels", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties:  Properties{TopLevel: top},
	}
}

// ToRecords converts a fixture to label records in node order. Layer numbers
// count down from the deepest level so top-level records carry the largest
// value, and records without children are marked lowest_layer.
func (g *Generator) ToRecords(gf GraphFixture) []model.LabelRecord {
	parent := make(map[int]int, len(gf.Edges))
	hasChild := make(map[int]bool)
	for _, e := range gf.Edges {
		parent[e[0]] = e[1]
		hasChild[e[1]] = true
	}

	depth := make([]int, len(gf.Nodes))
	maxDepth := 0
	for i := range gf.Nodes {
		d, cur := 0, i
		for seen := 0; seen <= len(gf.Nodes); seen++ {
			p, ok := parent[cur]
			if !ok {
				break
			}
			d++
			cur = p
		}
		depth[i] = d
		maxDepth = max(maxDepth, d)
	}

	records := make([]model.LabelRecord, len(gf.Nodes))
	for i, name := range gf.Nodes {
		r := model.LabelRecord{
			ID:          g.id(name),
			Parent:      model.RootID,
			LayerNo:     maxDepth - depth[i],
			LowestLayer: !hasChild[i],
			Bounds:      g.bounds(),
		}
		if p, ok := parent[i]; ok {
			r.Parent = g.id(gf.Nodes[p])
		}
		if g.rng.Float64() < g.cfg.LabelRate {
			r.Label = "Topic " + name
		}
		records[i] = r
	}
	return records
}

func (g *Generator) id(name string) string {
	return fmt.Sprintf("%s-%s", g.cfg.IDPrefix, name)
}

func (g *Generator) bounds() model.Bounds {
	x := g.rng.Float64() * g.cfg.Extent
	y := g.rng.Float64() * g.cfg.Extent
	w := 1 + g.rng.Float64()*g.cfg.Extent/10
	h := 1 + g.rng.Float64()*g.cfg.Extent/10
	return model.Bounds{x, x + w, y, y + h}
}

// ToJSONL converts records to JSONL (one object per line).
func ToJSONL(records []model.LabelRecord) string {
	var sb strings.Builder
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// QuickTree creates a tree fixture with default settings.
func QuickTree(depth, breadth int) []model.LabelRecord {
	gen := NewDefault()
	return gen.ToRecords(gen.Tree(depth, breadth))
}

// QuickChain creates a chain fixture with default settings.
func QuickChain(size int) []model.LabelRecord {
	gen := NewDefault()
	return gen.ToRecords(gen.Chain(size))
}

// QuickForest creates a forest fixture with default settings.
func QuickForest(trees, depth, breadth int) []model.LabelRecord {
	gen := NewDefault()
	return gen.ToRecords(gen.Forest(trees, depth, breadth))
}

// QuickCycle creates a cycle fixture with default settings.
func QuickCycle(size int) []model.LabelRecord {
	gen := NewDefault()
	return gen.ToRecords(gen.Cycle(size))
}

// ScenarioRecords is the two-record hierarchy used across the docs:
// base -> base-1 -> A.
func ScenarioRecords() []model.LabelRecord {
	return []model.LabelRecord{
		{ID: "base-1", Parent: model.RootID, LayerNo: 1, Bounds: model.Bounds{0, 0, 10, 10}},
		{ID: "A", Parent: "base-1", LayerNo: 0, LowestLayer: true, Bounds: model.Bounds{1, 1, 2, 2}},
	}
}

// Empty returns no records.
func Empty() []model.LabelRecord {
	return []model.LabelRecord{}
}
