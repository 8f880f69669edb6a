// Package ui is the terminal front end: an outline pane over the rendered
// table of contents and a map pane that follows the camera.
package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/topictree/internal/datasource"
	"github.com/vanderheijden86/topictree/pkg/config"
	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/dom"
	"github.com/vanderheijden86/topictree/pkg/export"
	"github.com/vanderheijden86/topictree/pkg/mapview"
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
	"github.com/vanderheijden86/topictree/pkg/toc"
	"github.com/vanderheijden86/topictree/pkg/watcher"
)

// Layout constants
const (
	SplitViewThreshold = 80 // map pane is hidden below this width
	headerRows         = 1
	footerRows         = 1
	animInterval       = 16 * time.Millisecond
)

// FileChangedMsg is sent when a watched label source changes on disk.
type FileChangedMsg struct {
	Path string
}

// ReloadedMsg carries the records read by ReloadCmd. Skipped lists sources
// that failed while others loaded.
type ReloadedMsg struct {
	Records []model.LabelRecord
	Skipped []string
	Err     error
}

// animTickMsg advances the camera animation.
type animTickMsg struct{}

// WatchFileCmd returns a command that waits for a source change and sends FileChangedMsg
func WatchFileCmd(g *watcher.Group) tea.Cmd {
	return func() tea.Msg {
		path := <-g.Changed()
		return FileChangedMsg{Path: path}
	}
}

// ReloadCmd reads every path again in the background. A source that fails
// is skipped as long as another one loads, so one file caught mid-write
// does not block the reload.
func ReloadCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		records, failed, err := datasource.LoadPathsLenient(context.Background(), paths)
		msg := ReloadedMsg{Records: records, Err: err}
		if err == nil {
			for _, f := range failed {
				msg.Skipped = append(msg.Skipped, f.Source.Path)
			}
		}
		return msg
	}
}

func animTickCmd() tea.Cmd {
	return tea.Tick(animInterval, func(time.Time) tea.Msg {
		return animTickMsg{}
	})
}

// buttonEvents collects ids reported through the toc button callback. It is
// shared by pointer so value copies of Model see the same queue.
type buttonEvents struct {
	pressed []string
}

func (e *buttonEvents) take() []string {
	ids := e.pressed
	e.pressed = nil
	return ids
}

// Model is the main Bubble Tea model.
type Model struct {
	cfg     config.Config
	paths   []string
	records []model.LabelRecord

	doc    *dom.Document
	toc    *toc.TableOfContents
	view   *mapview.Controller
	events *buttonEvents
	group  *watcher.Group

	theme   Theme
	tree    TreeModel
	mapPane MapModel
	help    HelpModel
	search  textinput.Model

	width, height int
	treeWidth     int
	showMapPane   bool
	ready         bool

	searching bool
	query     string
	matches   int
	pinned    []string // ids highlighted from the command line
	showHelp  bool
	animating bool

	statusMsg     string
	statusIsError bool
}

// NewModel builds the table of contents for records and lays it out for a
// default terminal size until the first WindowSizeMsg arrives.
func NewModel(records []model.LabelRecord, cfg config.Config, paths []string) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	view := mapview.New(toc.Size{Width: 80, Height: 24}, mapview.Options{
		Padding: cfg.View.Padding,
		MinZoom: cfg.View.MinZoom,
		MaxZoom: cfg.View.MaxZoom,
	})
	doc := dom.NewDocument()
	tree := toc.New(doc, view, records, toc.Options{
		Title:                cfg.TOC.Title,
		Buttons:              cfg.TOC.Buttons,
		ButtonIcon:           cfg.TOC.ButtonIcon,
		TransitionMs:         cfg.View.TransitionMs,
		SkipInitialHighlight: !cfg.HighlightAll(),
	})
	events := &buttonEvents{}
	tree.OnButton(func(id string) {
		events.pressed = append(events.pressed, id)
	})

	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "search labels"
	input.CharLimit = 256

	m := Model{
		cfg:     cfg,
		paths:   paths,
		records: records,
		doc:     doc,
		toc:     tree,
		view:    view,
		events:  events,
		theme:   theme,
		tree:    NewTreeModel(theme),
		mapPane: NewMapModel(theme, view),
		help:    NewHelpModel(100, 20),
		search:  input,
		ready:   true,
	}
	m.resize(100, 30)
	m.tree.Refresh(doc.RootNode())
	view.FitAll(records)
	return m
}

// SetWatcher makes the model reload when any source in g changes.
func (m *Model) SetWatcher(g *watcher.Group) {
	m.group = g
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.group != nil {
		cmds = append(cmds, WatchFileCmd(m.group))
	}
	return tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	bodyHeight := max(height-headerRows-footerRows, 3)

	m.showMapPane = m.cfg.ShowMap() && width >= SplitViewThreshold
	m.treeWidth = width
	if m.showMapPane {
		ratio := m.cfg.UI.SplitRatio
		if ratio <= 0 {
			ratio = config.DefaultConfig().UI.SplitRatio
		}
		m.treeWidth = int(float64(width) * ratio)
		m.mapPane.SetSize(width-m.treeWidth-3, bodyHeight)
	}
	m.tree.SetSize(m.treeWidth, bodyHeight)
	m.help.SetSize(width, bodyHeight)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ready = true
		if m.view.Requests() == 0 {
			m.view.FitAll(m.records)
		}
		return m, nil

	case animTickMsg:
		if m.view.Step() {
			return m, animTickCmd()
		}
		m.animating = false
		return m, nil

	case FileChangedMsg:
		debug.Log("ui: %s changed, reloading", msg.Path)
		m.setStatus(fmt.Sprintf("%s changed, reloading…", filepath.Base(msg.Path)), false)
		cmds := []tea.Cmd{ReloadCmd(m.paths)}
		if m.group != nil {
			cmds = append(cmds, WatchFileCmd(m.group))
		}
		return m, tea.Batch(cmds...)

	case ReloadedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Reload failed: %v", msg.Err), true)
			return m, nil
		}
		m.Rebuild(msg.Records)
		if len(msg.Skipped) > 0 {
			names := make([]string, len(msg.Skipped))
			for i, p := range msg.Skipped {
				names[i] = filepath.Base(p)
			}
			m.setStatus(fmt.Sprintf("Reloaded %d labels, skipped %s", len(msg.Records), strings.Join(names, ", ")), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Reloaded %d labels", len(msg.Records)), false)
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.showHelp {
			return m.handleHelpKeys(msg)
		}
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

// Rebuild replaces the records and reconstructs the tree. A live search is
// applied again to the new records.
func (m *Model) Rebuild(records []model.LabelRecord) {
	m.records = records
	allOpen, open := m.toc.AllExpanded(), m.toc.ExpandedIDs()
	m.toc.Rebuild(records)
	if allOpen {
		m.toc.ToggleAll()
	} else {
		m.toc.Expand(open...)
	}
	metrics.Reloads.Inc()
	switch {
	case len(m.pinned) > 0:
		m.applyTargets(true)
	case m.query != "":
		m.applySearch(m.query)
	default:
		m.tree.Refresh(m.doc.RootNode())
	}
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, hasSel := m.tree.Selected()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "j", "down":
		m.tree.MoveDown()
	case "k", "up":
		m.tree.MoveUp()
	case "pgdown", "ctrl+d":
		m.tree.PageDown()
	case "pgup", "ctrl+u":
		m.tree.PageUp()
	case "g", "home":
		m.tree.JumpToTop()
	case "G", "end":
		m.tree.JumpToBottom()
	case "p":
		m.tree.JumpToParent()
	case " ":
		if hasSel && sel.Caret {
			return m, m.click(sel.Marker)
		}
	case "l", "right":
		if hasSel && sel.Caret && !sel.Expanded {
			return m, m.click(sel.Marker)
		}
	case "h", "left":
		if hasSel && sel.Caret && sel.Expanded {
			return m, m.click(sel.Marker)
		}
		m.tree.JumpToParent()
	case "enter", "z":
		if hasSel {
			return m, m.click(sel.Label)
		}
	case "b":
		if !hasSel {
			break
		}
		if sel.Button == nil {
			m.setStatus("Label buttons are off (toc.buttons in config)", true)
			break
		}
		return m, m.click(sel.Button)
	case "a":
		m.clickExpandAll()
	case "/":
		m.pinned = nil
		m.searching = true
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "c":
		m.pinned = nil
		m.query = ""
		m.search.SetValue("")
		m.resetHighlight()
		m.tree.Refresh(m.doc.RootNode())
		m.setStatus("Search cleared", false)
	case "y":
		if hasSel {
			if err := clipboard.WriteAll(sel.ID); err != nil {
				m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
			} else {
				m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", sel.ID), false)
			}
		}
	case "s":
		m.saveSnapshot()
	case "r":
		if len(m.paths) == 0 {
			m.setStatus("Nothing to reload", true)
			break
		}
		m.setStatus("Reloading…", false)
		return m, ReloadCmd(m.paths)
	case "?":
		m.showHelp = true
	}
	return m, nil
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "?", "esc", "q":
		m.showHelp = false
	case "j", "down":
		m.help.ScrollDown()
	case "k", "up":
		m.help.ScrollUp()
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		m.resetHighlight()
		m.tree.Refresh(m.doc.RootNode())
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		if m.query != "" {
			m.setStatus(fmt.Sprintf("%d labels match %q", m.matches, m.query), m.matches == 0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.query {
		m.query = v
		m.applySearch(v)
	}
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.searching {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.tree.MoveUp()
		return m, nil
	case tea.MouseButtonWheelDown:
		m.tree.MoveDown()
		return m, nil
	case tea.MouseButtonLeft:
	default:
		return m, nil
	}
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}

	if msg.Y < headerRows {
		if msg.X >= m.width-lipgloss.Width(m.renderExpandAll()) {
			m.clickExpandAll()
		}
		return m, nil
	}
	if msg.X >= m.treeWidth {
		return m, nil
	}
	el, idx, ok := m.tree.ElementAt(msg.X, msg.Y-headerRows)
	if idx >= 0 {
		m.tree.SetCursor(idx)
	}
	if !ok {
		return m, nil
	}
	return m, m.click(el)
}

// click dispatches a click on el to the table of contents and starts the
// camera animation if the click requested a view transition.
func (m *Model) click(el *dom.Node) tea.Cmd {
	if el == nil {
		return nil
	}
	before := m.view.Requests()
	if !m.toc.HandleClick(el) {
		return nil
	}
	for _, id := range m.events.take() {
		m.focusLabel(id)
	}
	m.tree.Refresh(m.doc.RootNode())
	if m.view.Requests() != before {
		return m.startAnimation()
	}
	return nil
}

func (m *Model) clickExpandAll() {
	m.toc.HandleClick(m.toc.ExpandAllControl())
	m.tree.Refresh(m.doc.RootNode())
	if m.toc.AllExpanded() {
		m.setStatus("Expanded all", false)
	} else {
		m.setStatus("Collapsed all", false)
	}
}

func (m *Model) startAnimation() tea.Cmd {
	if m.animating {
		return nil
	}
	if !m.view.Step() {
		return nil
	}
	m.animating = true
	return animTickCmd()
}

// focusLabel highlights only id and its ancestors.
func (m *Model) focusLabel(id string) {
	m.pinned = nil
	m.query = ""
	m.search.SetValue("")
	st := m.toc.HighlightIDs(id)
	m.setStatus(fmt.Sprintf("Highlighted %s (%d nodes)", id, st.Marked), false)
}

// ApplyHighlight highlights ids plus every label matching query, expands
// the tree down to each of them and selects the first visible one. The ids
// stay pinned across reloads until search or clear replaces them. Unknown
// ids are ignored.
func (m *Model) ApplyHighlight(ids []string, query string) {
	m.pinned = append([]string(nil), ids...)
	m.query = query
	m.search.SetValue(query)
	m.applyTargets(true)
}

// applySearch highlights every record matching query, expands down to the
// best match and selects it. A blank query restores the initial highlight.
func (m *Model) applySearch(query string) {
	m.query = query
	m.applyTargets(false)
}

// applyTargets highlights the pinned ids and the matches of m.query. With
// expandAll every target is revealed, otherwise only the first one.
func (m *Model) applyTargets(expandAll bool) {
	found := SearchLabels(m.records, m.query)
	m.matches = len(found)
	targets := append(append([]string(nil), m.pinned...), found...)
	if len(targets) == 0 && len(m.pinned) == 0 {
		m.resetHighlight()
		m.tree.Refresh(m.doc.RootNode())
		return
	}

	m.toc.HighlightIDs(targets...)
	for i, id := range targets {
		if i > 0 && !expandAll {
			break
		}
		m.toc.ExpandTo(id)
	}
	m.tree.Refresh(m.doc.RootNode())
	for _, id := range targets {
		if m.tree.SelectID(id) {
			break
		}
	}
}

func (m *Model) resetHighlight() {
	if m.cfg.HighlightAll() {
		m.toc.HighlightAll()
		return
	}
	m.toc.HighlightIDs()
}

func (m *Model) saveSnapshot() {
	dir := config.StateDir()
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot-%s.svg", time.Now().Format("20060102-150405")))
	err := export.SaveSnapshot(export.SnapshotOptions{
		Path:  path,
		Title: m.toc.Options().Title,
		Root:  m.doc.RootNode(),
	})
	if err != nil {
		m.setStatus(fmt.Sprintf("Snapshot failed: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Saved %s", path), false)
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if !m.ready {
		return "Initializing..."
	}

	var body string
	if m.showHelp {
		body = m.help.View()
	} else {
		body = m.renderBody()
	}

	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)
	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter()))
}

func (m Model) bodyHeight() int {
	return max(m.height-headerRows-footerRows, 3)
}

func (m Model) renderBody() string {
	h := m.bodyHeight()
	treeView := lipgloss.NewStyle().
		Width(m.treeWidth).
		Height(h).
		MaxHeight(h).
		Render(m.tree.View())
	if !m.showMapPane {
		return treeView
	}

	sep := m.theme.MutedText.Render(strings.TrimSuffix(strings.Repeat(" │ \n", h), "\n"))
	selected := ""
	if sel, ok := m.tree.Selected(); ok {
		selected = sel.ID
	}
	mapView := lipgloss.NewStyle().
		Width(m.width - m.treeWidth - 3).
		Height(h).
		MaxHeight(h).
		Render(m.mapPane.View(m.records, m.toc.IsHighlighted, selected))
	return lipgloss.JoinHorizontal(lipgloss.Top, treeView, sep, mapView)
}

func (m Model) renderExpandAll() string {
	return m.theme.Button.Render("[" + m.toc.ExpandAllControl().Text() + "]")
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render(m.toc.Options().Title)
	info := fmt.Sprintf(" %d labels · %d highlighted", m.toc.Hierarchy().Len(), len(m.toc.Highlighted()))
	if m.group != nil {
		if m.group.Polling() {
			info += " · polling"
		} else {
			info += " · watching"
		}
	}
	right := m.renderExpandAll()
	avail := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	info = padRight(truncate(info, max(avail, 0)), max(avail, 0))
	return title + m.theme.MutedText.Render(info) + right
}

func (m Model) renderFooter() string {
	if m.searching {
		return m.search.View()
	}
	if m.statusMsg != "" {
		prefix := "✓ "
		style := m.theme.StatusOK
		if m.statusIsError {
			prefix = "✗ "
			style = m.theme.StatusError
		}
		return style.Render(truncate(prefix+m.statusMsg, max(m.width-2, 1)))
	}
	hints := "j/k move · space fold · enter zoom · a all · / search · c clear · ? help · q quit"
	if m.query != "" {
		hints = fmt.Sprintf("search %q: %d matches · ", m.query, m.matches) + hints
	}
	return m.theme.MutedText.Render(truncate(hints, m.width))
}

// Accessors used by the command and by tests.

func (m Model) TableOfContents() *toc.TableOfContents { return m.toc }
func (m Model) Document() *dom.Document              { return m.doc }
func (m Model) MapView() *mapview.Controller         { return m.view }
func (m Model) Records() []model.LabelRecord         { return m.records }
func (m Model) StatusMessage() string                { return m.statusMsg }
func (m Model) Searching() bool                      { return m.searching }
func (m Model) ShowingHelp() bool                    { return m.showHelp }
func (m Model) Query() string                        { return m.query }

// Selected returns the outline row under the cursor.
func (m Model) Selected() (dom.Line, bool) { return m.tree.Selected() }

// VisibleLines returns the outline rows currently shown.
func (m Model) VisibleLines() []dom.Line { return m.tree.Lines() }
