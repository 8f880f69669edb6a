package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []model.LabelRecord, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertNoDuplicateIDs verifies all record IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, records []model.LabelRecord) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.ID] {
			t.Errorf("duplicate label ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
}

// AssertAllValid verifies all records pass validation.
func AssertAllValid(t *testing.T, records []model.LabelRecord) {
	t.Helper()
	for i := range records {
		if err := records[i].Validate(); err != nil {
			t.Errorf("record %d (%s) invalid: %v", i, records[i].ID, err)
		}
	}
}

// AssertChainEndsAtRoot verifies that following parent links from id reaches
// the root sentinel without a dangling reference or a loop.
func AssertChainEndsAtRoot(t *testing.T, records []model.LabelRecord, id string) {
	t.Helper()
	byID := BuildRecordMap(records)
	cur, ok := byID[id]
	if !ok {
		t.Errorf("record %s not found", id)
		return
	}
	for steps := 0; steps <= len(records); steps++ {
		if cur.Parent == model.RootID {
			return
		}
		next, ok := byID[cur.Parent]
		if !ok {
			t.Errorf("record %s: parent %s does not resolve", id, cur.Parent)
			return
		}
		cur = next
	}
	t.Errorf("record %s: parent chain loops", id)
}

// AssertSameIDs compares two id lists, order included.
func AssertSameIDs(t *testing.T, expected, actual []string) {
	t.Helper()
	if strings.Join(expected, ",") != strings.Join(actual, ",") {
		t.Errorf("ids mismatch:\nexpected: %v\nactual:   %v", expected, actual)
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		// Update golden file
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	// Compare against golden file
	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
					i+1, expLine, actLine, string(expected), actual)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual any) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// WriteLabelsFile writes records as JSONL to path, creating parent directories.
func WriteLabelsFile(t *testing.T, path string, records []model.LabelRecord) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSONL(records)), 0644); err != nil {
		t.Fatalf("failed to write labels file: %v", err)
	}
	return path
}

// WriteLabelsJSON writes records as a JSON array to path.
func WriteLabelsJSON(t *testing.T, path string, records []model.LabelRecord) string {
	t.Helper()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal records: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write labels file: %v", err)
	}
	return path
}

// BuildRecordMap creates a map from ID to record. The first record wins on repeats.
func BuildRecordMap(records []model.LabelRecord) map[string]*model.LabelRecord {
	m := make(map[string]*model.LabelRecord, len(records))
	for i := range records {
		if _, ok := m[records[i].ID]; !ok {
			m[records[i].ID] = &records[i]
		}
	}
	return m
}

// FindRecord returns the record with the given ID, or nil if not found.
func FindRecord(records []model.LabelRecord, id string) *model.LabelRecord {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}

// LabelID generates a standard test label ID with the given index.
func LabelID(index int) string {
	return fmt.Sprintf("L-n%d", index)
}
