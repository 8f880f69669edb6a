package export

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/vanderheijden86/topictree/pkg/dom"
)

const pageStyle = `body{font-family:sans-serif;margin:2em}
ul{list-style:none;padding-left:1.2em}
.nested{display:none}
.active{display:block}
.caret{cursor:pointer}
.caret::before{content:"\25B8";margin-right:.3em}
.caret-down::before{content:"\25BE"}
.bullet::before{content:"\2022";margin-right:.3em}
.toc-label{opacity:.45}
.highlighted~.toc-label{opacity:1;font-weight:600}
.unlabeled~.toc-label{font-style:italic}
`

// WriteHTML writes a standalone page holding the tree markup as rendered,
// with enough CSS to show the expand and highlight state.
func WriteHTML(w io.Writer, opts SnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("no tree to export")
	}
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Topic Tree"
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title><style>\n%s</style></head><body>\n",
		html.EscapeString(title), pageStyle); err != nil {
		return err
	}
	if err := dom.WriteHTML(w, opts.Root); err != nil {
		return fmt.Errorf("render tree markup: %w", err)
	}
	_, err := io.WriteString(w, "\n</body></html>\n")
	return err
}

// WriteMarkdown writes the outline as a nested Markdown list. Highlighted
// items are bold; unlabeled ones are italic.
func WriteMarkdown(w io.Writer, opts SnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("no tree to export")
	}
	var sb strings.Builder
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Topic Tree"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	for _, l := range dom.Outline(opts.Root, opts.All) {
		sb.WriteString(strings.Repeat("  ", l.Depth))
		sb.WriteString("- ")
		sb.WriteString(MarkdownItem(l))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// MarkdownItem formats one outline line as Markdown inline text.
func MarkdownItem(l dom.Line) string {
	text := escapeMarkdown(l.Text)
	switch {
	case l.Highlighted && l.Unlabeled:
		text = "***" + text + "***"
	case l.Highlighted:
		text = "**" + text + "**"
	case l.Unlabeled:
		text = "*" + text + "*"
	}
	if l.Text != l.ID {
		text += " `" + l.ID + "`"
	}
	return text
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
