package dom

import (
	"strings"
	"testing"
)

func buildList(d *Document) (caret, nested *Node) {
	li := d.newNode("li")
	caret = d.newNode("span")
	caret.AddClass("caret")
	caret.SetAttr("data-element-id", "A")
	label := d.newNode("span")
	label.AddClass("toc-label")
	nested = d.newNode("ul")
	nested.AddClass("nested")
	li.AppendChild(caret)
	li.AppendChild(label)
	li.AppendChild(nested)
	d.RootNode().AppendChild(li)
	return caret, nested
}

func TestNextSiblingMatchingSkipsNonMatching(t *testing.T) {
	d := NewDocument()
	caret, nested := buildList(d)

	got := caret.NextSiblingMatching(".nested")
	if got == nil {
		t.Fatal("expected nested sibling")
	}
	if got.(*Node) != nested {
		t.Error("expected the nested list, got another sibling")
	}
	if nested.NextSiblingMatching(".nested") != nil {
		t.Error("expected nil interface past the last sibling")
	}
	if caret.NextSiblingMatching("").(*Node).HasClass("toc-label") != true {
		t.Error("empty selector should return the immediate sibling")
	}
}

func TestClassWritesCountOnlyChanges(t *testing.T) {
	d := NewDocument()
	n := d.newNode("span")
	n.AddClass("highlighted")
	n.AddClass("highlighted")
	n.RemoveClass("missing")
	n.RemoveClass("highlighted")
	if d.ClassWrites() != 2 {
		t.Errorf("expected 2 effective writes, got %d", d.ClassWrites())
	}
}

func TestFindAllSkipsDetachedNodes(t *testing.T) {
	d := NewDocument()
	buildList(d)
	detached := d.CreateElement("span")
	detached.SetAttr("data-element-id", "ghost")

	found := d.FindAllWithAttribute("data-element-id")
	if len(found) != 1 {
		t.Fatalf("expected 1 attached element, got %d", len(found))
	}
	if id, _ := found[0].Attr("data-element-id"); id != "A" {
		t.Errorf("unexpected id %q", id)
	}
}

func TestQueryOneSelectors(t *testing.T) {
	d := NewDocument()
	buildList(d)
	body := d.newNode("div")
	body.SetAttr("id", "toc-body")
	d.RootNode().AppendChild(body)

	tests := []struct {
		sel  string
		want bool
	}{
		{".caret", true},
		{"span.caret", true},
		{"ul.caret", false},
		{"#toc-body", true},
		{"[data-element-id]", true},
		{"span[data-bounds]", false},
		{"[data-element-id=A]", true},
		{`span[data-element-id="A"]`, true},
		{"[data-element-id='A'].caret", true},
		{"[data-element-id=B]", false},
		{"", false},
	}
	for _, tt := range tests {
		got := d.QueryOne(tt.sel) != nil
		if got != tt.want {
			t.Errorf("QueryOne(%q) found=%v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	d := NewDocument()
	caret, _ := buildList(d)
	caret.SetText("A & B")

	out := HTML(d.RootNode())
	for _, want := range []string{
		`<span class="caret" data-element-id="A">A &amp; B</span>`,
		`<ul class="nested"></ul>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestAppendChildMovesNode(t *testing.T) {
	d := NewDocument()
	a := d.newNode("ul")
	b := d.newNode("ul")
	c := d.newNode("li")
	a.AppendChild(c)
	b.AppendChild(c)
	if len(a.Children()) != 0 || len(b.Children()) != 1 || c.Parent() != b {
		t.Error("expected child to move between parents")
	}
}

func TestNextSiblingAfterMovingAChild(t *testing.T) {
	d := NewDocument()
	list := d.newNode("ul")
	var items []*Node
	for _, id := range []string{"a", "b", "c", "d"} {
		li := d.newNode("li")
		li.SetAttr("id", id)
		list.AppendChild(li)
		items = append(items, li)
	}

	other := d.newNode("ul")
	other.AppendChild(items[1])

	if got := items[0].NextSiblingMatching(""); got == nil || got.(*Node) != items[2] {
		t.Fatalf("a should now be followed by c, got %v", got)
	}
	if got := items[2].NextSiblingMatching("#d"); got == nil || got.(*Node) != items[3] {
		t.Errorf("c should be followed by d, got %v", got)
	}
	if items[3].NextSiblingMatching("") != nil {
		t.Error("d is last")
	}
	if items[1].NextSiblingMatching("") != nil {
		t.Error("b is alone in its new parent")
	}
	for i, c := range list.Children() {
		if c.index != i {
			t.Errorf("child %d has index %d", i, c.index)
		}
	}
}
