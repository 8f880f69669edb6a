// Package config handles loading and saving tt configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/topictree/config.yaml
//   - State:   ~/.local/state/topictree/ (exported snapshots by default)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "topictree"

// TOCConfig controls how the table of contents is rendered.
type TOCConfig struct {
	Title      string `yaml:"title,omitempty"`
	Buttons    bool   `yaml:"buttons,omitempty"`     // render a button before each label
	ButtonIcon string `yaml:"button_icon,omitempty"` // button text
	// HighlightAllOnStart highlights every label after loading. Nil means true.
	HighlightAllOnStart *bool `yaml:"highlight_all_on_start,omitempty"`
}

// ViewConfig controls the map view camera.
type ViewConfig struct {
	TransitionMs int     `yaml:"transition_ms,omitempty"`
	Padding      float64 `yaml:"padding,omitempty"` // fraction of the viewport kept empty around a framed label
	MinZoom      float64 `yaml:"min_zoom,omitempty"`
	MaxZoom      float64 `yaml:"max_zoom,omitempty"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // tree pane share of the width (0.2-0.8)
	ShowMap    *bool   `yaml:"show_map,omitempty"`
}

// Config is the top-level configuration for tt.
type Config struct {
	Sources []string   `yaml:"sources,omitempty"` // label files or SQLite databases
	Watch   bool       `yaml:"watch,omitempty"`   // reload when a source changes
	TOC     TOCConfig  `yaml:"toc,omitempty"`
	View    ViewConfig `yaml:"view,omitempty"`
	UI      UIConfig   `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TOC: TOCConfig{
			Title:      "Topic Tree",
			ButtonIcon: "◎",
		},
		View: ViewConfig{
			TransitionMs: 1000,
			Padding:      0.1,
			MinZoom:      -8,
			MaxZoom:      20,
		},
		UI: UIConfig{
			SplitRatio: 0.5,
		},
	}
}

// HighlightAll reports whether every label starts highlighted.
func (c Config) HighlightAll() bool {
	return c.TOC.HighlightAllOnStart == nil || *c.TOC.HighlightAllOnStart
}

// ShowMap reports whether the map pane is shown.
func (c Config) ShowMap() bool {
	return c.UI.ShowMap == nil || *c.UI.ShowMap
}

// Validate clamps out-of-range values back to defaults and reports what it changed.
func (c *Config) Validate() []string {
	def := DefaultConfig()
	var fixed []string
	if c.View.TransitionMs < 0 {
		fixed = append(fixed, fmt.Sprintf("view.transition_ms %d < 0, using %d", c.View.TransitionMs, def.View.TransitionMs))
		c.View.TransitionMs = def.View.TransitionMs
	}
	if c.View.Padding < 0 || c.View.Padding >= 1 {
		fixed = append(fixed, fmt.Sprintf("view.padding %.2f outside [0,1), using %.2f", c.View.Padding, def.View.Padding))
		c.View.Padding = def.View.Padding
	}
	if c.View.MaxZoom <= c.View.MinZoom {
		fixed = append(fixed, fmt.Sprintf("view.max_zoom %.1f <= min_zoom %.1f, using defaults", c.View.MaxZoom, c.View.MinZoom))
		c.View.MinZoom, c.View.MaxZoom = def.View.MinZoom, def.View.MaxZoom
	}
	if c.UI.SplitRatio < 0.2 || c.UI.SplitRatio > 0.8 {
		fixed = append(fixed, fmt.Sprintf("ui.split_ratio %.2f outside [0.2,0.8], using %.2f", c.UI.SplitRatio, def.UI.SplitRatio))
		c.UI.SplitRatio = def.UI.SplitRatio
	}
	return fixed
}

// ConfigDir returns the XDG config directory for tt.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for tt.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Sources {
		cfg.Sources[i] = expandHome(cfg.Sources[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
