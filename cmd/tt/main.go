package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/vanderheijden86/topictree/internal/datasource"
	"github.com/vanderheijden86/topictree/pkg/analysis"
	"github.com/vanderheijden86/topictree/pkg/config"
	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/dom"
	"github.com/vanderheijden86/topictree/pkg/export"
	"github.com/vanderheijden86/topictree/pkg/hooks"
	"github.com/vanderheijden86/topictree/pkg/mapview"
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
	"github.com/vanderheijden86/topictree/pkg/ui"
	"github.com/vanderheijden86/topictree/pkg/version"
	"github.com/vanderheijden86/topictree/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: ~/.config/topictree/config.yaml)")
	validateFlag := flag.Bool("validate", false, "Check the label hierarchy and print a report")
	jsonFlag := flag.Bool("json", false, "Print --validate or --diff output as JSON")
	exportPath := flag.String("export", "", "Write a snapshot of the tree (.svg, .png, .html or .md)")
	formatFlag := flag.String("format", "", "Snapshot format, overriding the --export extension")
	highlightFlag := flag.String("highlight", "", "Comma-separated label ids to highlight")
	searchFlag := flag.String("search", "", "Highlight labels fuzzily matching this text")
	allFlag := flag.Bool("all", false, "Expand every caret before --print or --export")
	printFlag := flag.Bool("print", false, "Print the tree as text and exit")
	metricsFlag := flag.Bool("metrics", false, "Print timing metrics as JSON on exit")
	watchFlag := flag.Bool("watch", false, "Reload when a label source changes (TUI only)")
	diffFlag := flag.Bool("diff", false, "Compare two label sources and report inconsistencies")
	noHooksFlag := flag.Bool("no-hooks", false, "Skip .topictree/hooks.yaml around --export")
	setupFlag := flag.Bool("setup", false, "Interactively write the config file")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: tt [options] [labels.json|labels.jsonl|labels.db|dir ...]")
		fmt.Println("\nA collapsible topic tree for labeled map regions.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tt %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := loadConfig(*configPath)
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", cfgErr)
	}
	for _, msg := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "warning: config: %s\n", msg)
	}

	if *setupFlag {
		if err := runSetup(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = cfg.Sources
	}

	if *diffFlag {
		code, err := runDiff(os.Stdout, paths, *jsonFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		writeMetricsIf(*metricsFlag)
		os.Exit(code)
	}

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no label sources given (pass files or directories, or set sources in the config)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	records, sources, err := datasource.LoadPaths(ctx, paths)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading labels: %v\n", err)
		os.Exit(1)
	}
	debug.Log("loaded %d records from %d sources", len(records), len(sources))

	if *validateFlag {
		code, err := runValidate(os.Stdout, records, *jsonFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		writeMetricsIf(*metricsFlag)
		os.Exit(code)
	}

	headless := *printFlag || *exportPath != ""
	if headless {
		doc, tree := buildHeadless(records, cfg)
		missing := applyHighlight(tree, records, parseIDs(*highlightFlag), *searchFlag)
		for _, id := range missing {
			fmt.Fprintf(os.Stderr, "warning: unknown label id %q\n", id)
		}
		if *allFlag {
			tree.ToggleAll()
		}

		if *exportPath != "" {
			opts := export.SnapshotOptions{
				Path:   *exportPath,
				Format: *formatFlag,
				Title:  tree.Options().Title,
				Root:   doc.RootNode(),
				All:    *allFlag,
			}
			hookCtx := hooks.ExportContext{
				SnapshotPath:   *exportPath,
				Format:         snapshotFormat(opts),
				LabelCount:     len(records),
				HighlightCount: len(tree.Highlighted()),
				Timestamp:      time.Now(),
			}
			if err := exportWithHooks(os.Stderr, opts, hookCtx, *noHooksFlag); err != nil {
				fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", *exportPath)
		}
		if *printFlag {
			printTree(os.Stdout, doc.RootNode(), *allFlag, terminalWidth())
		}
		writeMetricsIf(*metricsFlag)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the interactive tree needs a terminal (use --print or --export)")
		os.Exit(2)
	}

	// Directories stay directories so a reload picks up new files in them.
	m := ui.NewModel(records, cfg, paths)
	if *highlightFlag != "" || *searchFlag != "" {
		m.ApplyHighlight(parseIDs(*highlightFlag), *searchFlag)
	}

	if *watchFlag || cfg.Watch {
		group, err := startWatching(paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: live reload disabled: %v\n", err)
		} else {
			defer group.Stop()
			m.SetWatcher(group)
		}
	}

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running topic tree: %v\n", err)
		os.Exit(1)
	}
	writeMetricsIf(*metricsFlag)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func runSetup(cfg config.Config, path string) error {
	updated, err := config.RunWizard(cfg)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.ConfigPath()
	}
	if path == "" {
		return errors.New("cannot determine config directory (use --config)")
	}
	if err := config.SaveTo(updated, path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// buildHeadless renders records into a detached document for --print and
// --export. The map view is never shown, so label zooms only move its camera.
func buildHeadless(records []model.LabelRecord, cfg config.Config) (*dom.Document, *toc.TableOfContents) {
	doc := dom.NewDocument()
	view := mapview.New(toc.Size{Width: 1024, Height: 768}, mapview.Options{
		Padding: cfg.View.Padding,
		MinZoom: cfg.View.MinZoom,
		MaxZoom: cfg.View.MaxZoom,
	})
	tree := toc.New(doc, view, records, toc.Options{
		Title:                cfg.TOC.Title,
		Buttons:              cfg.TOC.Buttons,
		ButtonIcon:           cfg.TOC.ButtonIcon,
		TransitionMs:         cfg.View.TransitionMs,
		SkipInitialHighlight: !cfg.HighlightAll(),
	})
	return doc, tree
}

// applyHighlight replaces the highlight set with ids plus the fuzzy matches
// for query, and expands the tree down to each of them. It returns the ids
// that name no record. With neither ids nor query nothing changes.
func applyHighlight(tree *toc.TableOfContents, records []model.LabelRecord, ids []string, query string) []string {
	if len(ids) == 0 && strings.TrimSpace(query) == "" {
		return nil
	}
	var missing []string
	for _, id := range ids {
		if _, ok := tree.Hierarchy().Record(id); !ok {
			missing = append(missing, id)
		}
	}
	targets := append(append([]string(nil), ids...), ui.SearchLabels(records, query)...)
	tree.HighlightIDs(targets...)
	for _, id := range targets {
		tree.ExpandTo(id)
	}
	return missing
}

func parseIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// printTree writes the outline as indented text. Highlighted rows end with
// " *". A positive width truncates rows to fit.
func printTree(w io.Writer, root *dom.Node, all bool, width int) {
	for _, l := range dom.Outline(root, all) {
		row := strings.Repeat("  ", l.Depth) + l.Glyph() + " " + l.Text
		suffix := ""
		if l.Highlighted {
			suffix = " *"
		}
		if width > 0 {
			row = runewidth.Truncate(row, width-runewidth.StringWidth(suffix), "…")
		}
		fmt.Fprintln(w, row+suffix)
	}
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// runValidate prints the hierarchy report. The exit code is 1 when an
// error-severity finding was recorded.
func runValidate(w io.Writer, records []model.LabelRecord, asJSON bool) (int, error) {
	report := analysis.Validate(records, analysis.DefaultOptions())
	if asJSON {
		data, err := report.JSON()
		if err != nil {
			return 2, fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprint(w, report.Summary())
	}
	if !report.OK() {
		return 1, nil
	}
	return 0, nil
}

// runDiff compares two sources. The exit code is 1 when they disagree.
func runDiff(w io.Writer, paths []string, asJSON bool) (int, error) {
	if len(paths) != 2 {
		return 2, fmt.Errorf("--diff needs exactly two sources, got %d", len(paths))
	}
	a, err := datasource.NewSource(paths[0])
	if err != nil {
		return 2, err
	}
	b, err := datasource.NewSource(paths[1])
	if err != nil {
		return 2, err
	}
	diff, err := datasource.CompareSources(a, b, datasource.DefaultDiffOptions())
	if err != nil {
		return 2, err
	}
	if asJSON {
		data, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return 2, fmt.Errorf("encoding diff: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, strings.TrimRight(diff.Summary(), "\n"))
	}
	if diff.HasInconsistencies() {
		return 1, nil
	}
	return 0, nil
}

func snapshotFormat(opts export.SnapshotOptions) string {
	if f := strings.ToLower(strings.TrimPrefix(opts.Format, ".")); f != "" {
		return f
	}
	return export.FormatFromPath(opts.Path)
}

// exportWithHooks writes the snapshot between the pre- and post-export hooks
// of the working directory. A failing pre-export hook cancels the export.
// Post-export failures are reported in the summary and returned.
func exportWithHooks(w io.Writer, opts export.SnapshotOptions, hookCtx hooks.ExportContext, noHooks bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	executor, err := hooks.RunHooks(cwd, hookCtx, noHooks)
	if err != nil {
		return fmt.Errorf("loading hooks: %w", err)
	}
	if executor != nil {
		defer func() {
			if summary := executor.Summary(); summary != "" {
				fmt.Fprint(w, summary)
			}
		}()
		if err := executor.RunPreExport(); err != nil {
			return err
		}
	}
	if err := export.SaveSnapshot(opts); err != nil {
		return err
	}
	if executor != nil {
		return executor.RunPostExport()
	}
	return nil
}

func writeMetricsIf(enabled bool) {
	if !enabled {
		return
	}
	if err := writeMetrics(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
	}
}

func writeMetrics(w io.Writer) error {
	data, err := json.MarshalIndent(metrics.Collect(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func startWatching(paths []string) (*watcher.Group, error) {
	group, err := watcher.NewGroup(paths,
		watcher.WithOnError(func(err error) {
			debug.Log("watcher: %v", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := group.Start(); err != nil {
		return nil, err
	}
	return group, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
