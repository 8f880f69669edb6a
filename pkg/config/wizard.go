package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// WizardAnswers holds the form values of the setup wizard as entered.
type WizardAnswers struct {
	Sources      string // comma-separated
	Title        string
	Buttons      bool
	HighlightAll bool
	ShowMap      bool
	Watch        bool
	TransitionMs string
}

// AnswersFrom pre-fills the wizard from an existing config.
func AnswersFrom(cfg Config) WizardAnswers {
	return WizardAnswers{
		Sources:      strings.Join(cfg.Sources, ", "),
		Title:        cfg.TOC.Title,
		Buttons:      cfg.TOC.Buttons,
		HighlightAll: cfg.HighlightAll(),
		ShowMap:      cfg.ShowMap(),
		Watch:        cfg.Watch,
		TransitionMs: strconv.Itoa(cfg.View.TransitionMs),
	}
}

// Apply writes the answers into a copy of cfg. Blank fields keep cfg's value.
func (a WizardAnswers) Apply(cfg Config) (Config, error) {
	var sources []string
	for _, s := range strings.Split(a.Sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	cfg.Sources = sources

	if t := strings.TrimSpace(a.Title); t != "" {
		cfg.TOC.Title = t
	}
	cfg.TOC.Buttons = a.Buttons
	cfg.Watch = a.Watch

	highlight, showMap := a.HighlightAll, a.ShowMap
	cfg.TOC.HighlightAllOnStart = &highlight
	cfg.UI.ShowMap = &showMap

	if ms := strings.TrimSpace(a.TransitionMs); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("transition must be a non-negative number of milliseconds, got %q", ms)
		}
		cfg.View.TransitionMs = n
	}
	return cfg, nil
}

func validateMs(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of milliseconds")
	}
	return nil
}

// newForm falls back to accessible (line-based) prompts without a TTY.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard asks for the common settings, starting from cfg, and returns
// the updated config. The caller saves it.
func RunWizard(cfg Config) (Config, error) {
	a := AnswersFrom(cfg)

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Label sources").
				Description("Files, directories or .db files, comma-separated").
				Value(&a.Sources).
				Placeholder("labels.jsonl"),
			huh.NewInput().
				Title("Tree title").
				Value(&a.Title).
				Placeholder(DefaultConfig().TOC.Title),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Highlight every label on start?").
				Value(&a.HighlightAll),
			huh.NewConfirm().
				Title("Show a focus button before each label?").
				Value(&a.Buttons),
			huh.NewConfirm().
				Title("Show the map pane?").
				Description("Only on terminals at least 80 columns wide").
				Value(&a.ShowMap),
			huh.NewConfirm().
				Title("Reload when a source changes?").
				Value(&a.Watch),
			huh.NewInput().
				Title("Zoom transition (ms)").
				Value(&a.TransitionMs).
				Validate(validateMs),
		),
	)

	if err := form.Run(); err != nil {
		return cfg, err
	}
	return a.Apply(cfg)
}
