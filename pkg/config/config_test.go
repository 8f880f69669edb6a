package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TOC.Title != "Topic Tree" {
		t.Errorf("expected title 'Topic Tree', got %q", cfg.TOC.Title)
	}
	if cfg.View.TransitionMs != 1000 {
		t.Errorf("expected transition 1000ms, got %d", cfg.View.TransitionMs)
	}
	if !cfg.HighlightAll() {
		t.Error("labels should start highlighted by default")
	}
	if !cfg.ShowMap() {
		t.Error("map pane should be shown by default")
	}
	if fixed := cfg.Validate(); len(fixed) != 0 {
		t.Errorf("defaults should validate cleanly, got %v", fixed)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.View.Padding != 0.1 {
		t.Errorf("expected default config, got padding %v", cfg.View.Padding)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sources:
  - ~/maps/labels.jsonl
  - /absolute/labels.db
watch: true

toc:
  title: Clusters
  buttons: true
  button_icon: "+"
  highlight_all_on_start: false

view:
  transition_ms: 250
  padding: 0.2

ui:
  split_ratio: 0.6
  show_map: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "maps/labels.jsonl"); cfg.Sources[0] != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Sources[0])
	}
	if cfg.Sources[1] != "/absolute/labels.db" {
		t.Errorf("absolute path changed: %q", cfg.Sources[1])
	}
	if !cfg.Watch || !cfg.TOC.Buttons || cfg.TOC.ButtonIcon != "+" || cfg.TOC.Title != "Clusters" {
		t.Errorf("toc settings not loaded: %+v", cfg.TOC)
	}
	if cfg.HighlightAll() {
		t.Error("highlight_all_on_start: false should be honoured")
	}
	if cfg.View.TransitionMs != 250 || cfg.View.Padding != 0.2 {
		t.Errorf("view settings not loaded: %+v", cfg.View)
	}
	// unset keys keep their defaults
	if cfg.View.MaxZoom != 20 {
		t.Errorf("expected default max zoom, got %v", cfg.View.MaxZoom)
	}
	if cfg.UI.SplitRatio != 0.6 || cfg.ShowMap() {
		t.Errorf("ui settings not loaded: %+v", cfg.UI)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("view: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.TOC.Title != "Topic Tree" {
		t.Error("defaults should still be returned on error")
	}
}

func TestValidateClampsValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.View.TransitionMs = -5
	cfg.View.Padding = 1.5
	cfg.View.MinZoom = 3
	cfg.View.MaxZoom = 1
	cfg.UI.SplitRatio = 0.95

	fixed := cfg.Validate()
	if len(fixed) != 4 {
		t.Fatalf("expected 4 fixes, got %v", fixed)
	}
	def := DefaultConfig()
	if cfg.View != def.View || cfg.UI.SplitRatio != def.UI.SplitRatio {
		t.Errorf("values not reset: %+v %+v", cfg.View, cfg.UI)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sources = []string{"/data/labels.json"}
	cfg.TOC.Buttons = true

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0] != "/data/labels.json" || !loaded.TOC.Buttons {
		t.Errorf("round trip lost data: %+v", loaded)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := ConfigDir(); got != "/tmp/xdg-config/topictree" {
		t.Errorf("ConfigDir = %q", got)
	}
	if got := ConfigPath(); got != "/tmp/xdg-config/topictree/config.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := StateDir(); got != "/tmp/xdg-state/topictree" {
		t.Errorf("StateDir = %q", got)
	}
}
