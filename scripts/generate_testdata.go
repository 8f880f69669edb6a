//go:build ignore
// +build ignore

// generate_testdata.go creates standard label datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   tests/testdata/benchmark/small.jsonl   (100 labels)
//   tests/testdata/benchmark/medium.jsonl  (1000 labels)
//   tests/testdata/benchmark/large.jsonl   (5000 labels)
//   tests/testdata/benchmark/huge.jsonl    (20000 labels)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	desc string
}

var datasets = []datasetSpec{
	{"small", 100, "100 labels, shallow random forest"},
	{"medium", 1000, "1000 labels, random forest"},
	{"large", 5000, "5000 labels, deep random forest"},
	{"huge", 20000, "20000 labels, deep random forest"},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%s)...\n", ds.name, ds.desc)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:      int64(ds.size), // reproducible per size
			IDPrefix:  "BENCH",
			LabelRate: 0.9,
			Extent:    1000,
		})
		gf := gen.RandomForest(ds.size, rootRate(ds.size))
		records := gen.ToRecords(gf)
		nameTopLevel(records, ds.name)

		jsonl := testutil.ToJSONL(records)
		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(outputPath, []byte(jsonl), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d top-level labels)\n", outputPath, len(jsonl), gf.Properties.TopLevel)
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}

// rootRate shrinks with size so larger sets nest deeper.
func rootRate(size int) float64 {
	switch {
	case size <= 100:
		return 0.1
	case size <= 1000:
		return 0.03
	case size <= 5000:
		return 0.01
	default:
		return 0.005
	}
}

var topics = []string{
	"Rivers", "Lakes", "Mountains", "Forests", "Deserts",
	"Coastlines", "Wetlands", "Glaciers", "Plateaus", "Valleys",
}

func nameTopLevel(records []model.LabelRecord, dataset string) {
	n := 0
	for i := range records {
		if records[i].Parent != model.RootID {
			continue
		}
		records[i].Label = fmt.Sprintf("[%s] %s %d", dataset, topics[n%len(topics)], n)
		n++
	}
}
