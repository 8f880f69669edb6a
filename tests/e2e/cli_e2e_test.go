package main_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

var geoLines = []string{
	`{"id":"R","parent":"base","layer_no":2,"lowest_layer":false,"label":"Rivers","bounds":[0,10,0,10]}`,
	`{"id":"L","parent":"R","layer_no":1,"lowest_layer":true,"label":"Lakes","bounds":[0,2,0,2]}`,
	`{"id":"M","parent":"base","layer_no":2,"lowest_layer":false,"label":"Mountains","bounds":[20,30,20,30]}`,
	`{"id":"P","parent":"M","layer_no":1,"lowest_layer":true,"label":"Peaks","bounds":[25,26,25,26]}`,
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestPrintCollapsedTree(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	out, err := ttCommand(t, dir, "--print", labels).Output()
	if err != nil {
		t.Fatalf("tt --print failed: %v", err)
	}
	want := "▸ Rivers *\n▸ Mountains *\n"
	if string(out) != want {
		t.Errorf("got %q\nwant %q", out, want)
	}
}

func TestPrintHighlightExpandsAndWarns(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	cmd := ttCommand(t, dir, "--print", "--highlight", "L,ghost", labels)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("tt --print --highlight failed: %v\n%s", err, stderr.String())
	}
	want := "▾ Rivers *\n  • Lakes *\n▸ Mountains\n"
	if string(out) != want {
		t.Errorf("got %q\nwant %q", out, want)
	}
	if !strings.Contains(stderr.String(), `unknown label id "ghost"`) {
		t.Errorf("expected warning for ghost, stderr=%q", stderr.String())
	}
}

func TestPrintAllFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeLabels(t, dir, "01.jsonl", geoLines[:2]...)
	writeLabels(t, dir, "02.jsonl", geoLines[2:]...)

	out, err := ttCommand(t, dir, "--print", "--all", dir).Output()
	if err != nil {
		t.Fatalf("tt --print --all failed: %v", err)
	}
	for _, want := range []string{"Rivers", "  • Lakes", "Mountains", "  • Peaks"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", append(geoLines,
		`{"id":"X","parent":"ghost","layer_no":1,"lowest_layer":true,"bounds":[0,1,0,1]}`)...)

	out, err := ttCommand(t, dir, "--validate", "--json", labels).Output()
	if code := exitCode(err); code != 1 {
		t.Fatalf("dangling parent should exit 1, got %d (%v)", code, err)
	}
	var report struct {
		RecordCount int `json:"record_count"`
		Findings    []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if report.RecordCount != 5 {
		t.Errorf("record_count = %d, want 5", report.RecordCount)
	}
	found := false
	for _, f := range report.Findings {
		if f.ID == "X" {
			found = true
		}
	}
	if !found {
		t.Errorf("no finding for X: %+v", report.Findings)
	}
}

func TestValidateClean(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	out, err := ttCommand(t, dir, "--validate", labels).Output()
	if err != nil {
		t.Fatalf("clean labels should validate: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "No problems found") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestDiffSources(t *testing.T) {
	dir := t.TempDir()
	a := writeLabels(t, dir, "a.jsonl", geoLines...)
	b := writeLabels(t, dir, "b.jsonl", geoLines...)
	c := writeLabels(t, dir, "c.jsonl", geoLines[:3]...)

	out, err := ttCommand(t, dir, "--diff", a, b).Output()
	if err != nil {
		t.Fatalf("identical sources should match: %v", err)
	}
	if !strings.Contains(string(out), "Sources match") {
		t.Errorf("unexpected diff output %q", out)
	}

	out, err = ttCommand(t, dir, "--diff", "--json", a, c).Output()
	if code := exitCode(err); code != 1 {
		t.Fatalf("differing sources should exit 1, got %d", code)
	}
	var diff map[string]any
	if err := json.Unmarshal(out, &diff); err != nil {
		t.Fatalf("diff is not JSON: %v\n%s", err, out)
	}
	if _, ok := diff["missing_in_b"]; !ok {
		t.Errorf("diff lacks missing_in_b: %s", out)
	}

	if code := exitCode(ttCommand(t, dir, "--diff", a).Run()); code != 2 {
		t.Errorf("one source should exit 2, got %d", code)
	}
}

func TestExportFormats(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	cases := []struct {
		file string
		want string
	}{
		{"tree.svg", "<svg"},
		{"tree.html", "<html"},
		{"tree.md", "Rivers"},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			if out, err := ttCommand(t, dir, "--export", path, "--all", labels).CombinedOutput(); err != nil {
				t.Fatalf("export failed: %v\n%s", err, out)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tc.want) {
				t.Errorf("%s missing %q", tc.file, tc.want)
			}
		})
	}

	png := filepath.Join(dir, "tree.png")
	if out, err := ttCommand(t, dir, "--export", png, labels).CombinedOutput(); err != nil {
		t.Fatalf("png export failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(png)
	if err != nil || len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("tree.png is not a PNG (err=%v)", err)
	}
}

func TestMetricsAfterPrint(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	out, err := ttCommand(t, dir, "--export", filepath.Join(dir, "t.svg"), "--metrics", labels).Output()
	if err != nil {
		t.Fatalf("tt --metrics failed: %v", err)
	}
	var snap struct {
		Timings []struct {
			Name string `json:"name"`
		} `json:"timings"`
	}
	if err := json.Unmarshal(out, &snap); err != nil {
		t.Fatalf("metrics are not JSON: %v\n%s", err, out)
	}
	if len(snap.Timings) == 0 {
		t.Error("expected timing entries")
	}
}

func TestMetricsAfterDiff(t *testing.T) {
	dir := t.TempDir()
	a := writeLabels(t, dir, "a.jsonl", geoLines...)
	b := writeLabels(t, dir, "b.jsonl", geoLines[:3]...)

	out, err := ttCommand(t, dir, "--diff", "--json", "--metrics", a, b).Output()
	if code := exitCode(err); code != 1 {
		t.Fatalf("differing sources should still exit 1, got %d", code)
	}
	dec := json.NewDecoder(strings.NewReader(string(out)))
	var diff map[string]any
	if err := dec.Decode(&diff); err != nil {
		t.Fatalf("diff is not JSON: %v\n%s", err, out)
	}
	var snap struct {
		Timings []struct {
			Name string `json:"name"`
		} `json:"timings"`
	}
	if err := dec.Decode(&snap); err != nil {
		t.Fatalf("metrics missing after the diff: %v\n%s", err, out)
	}
	found := false
	for _, tm := range snap.Timings {
		found = found || tm.Name == "label_load"
	}
	if !found {
		t.Errorf("expected a label_load timing, got %+v", snap.Timings)
	}
}

func TestNoSourcesIsUsageError(t *testing.T) {
	dir := t.TempDir()
	out, err := ttCommand(t, dir, "--print").CombinedOutput()
	if code := exitCode(err); code != 2 {
		t.Fatalf("expected exit 2, got %d\n%s", code, out)
	}
	if !strings.Contains(string(out), "no label sources") {
		t.Errorf("unexpected message %q", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := ttCommand(t, t.TempDir(), "--version").Output()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "tt v") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestTUIStartsAndAutoCloses(t *testing.T) {
	skipIfNoScript(t)

	dir := t.TempDir()
	labels := writeLabels(t, dir, "labels.jsonl", geoLines...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := scriptTUICommand(ctx, ttBinary(t), labels)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"TT_TUI_AUTOCLOSE_MS=500",
		"XDG_CONFIG_HOME="+t.TempDir(),
	)
	ensureCmdStdinCloses(t, ctx, cmd, 5*time.Second)

	out, err := runCmdToFile(t, cmd)
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("TUI did not exit\n%s", out)
	}
	if err != nil {
		t.Fatalf("TUI run failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Rivers", "Mountains"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("TUI output missing %q", want)
		}
	}
}
