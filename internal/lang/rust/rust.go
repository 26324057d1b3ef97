// Package rust extracts test structure from Rust sources with the
// tree-sitter Rust grammar.
package rust

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsrust "github.com/smacker/go-tree-sitter/rust"

	"github.com/frherrer/treesync/internal/document"
)

// Language is the Rust adapter.
type Language struct {
	lang *sitter.Language
}

// New creates the Rust adapter. The grammar is shared; a parser is created
// per call.
func New() *Language {
	return &Language{lang: tsrust.GetLanguage()}
}

func (l *Language) Name() string      { return "rust" }
func (l *Language) Extension() string { return ".rs" }

// FailureMarker names the expected-failure marker in reports.
func (l *Language) FailureMarker() string {
	return "#[should_panic]"
}

// Parse locates the #[cfg(test)] module and collects functions at the top
// level and inside that module. Functions with #[test] are tests;
// #[should_panic] marks expected failure.
func (l *Language) Parse(src []byte) (*document.Document, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(l.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root)
	}

	doc := &document.Document{Source: src}
	w := &walker{src: src, doc: doc}
	w.walk(root, false)

	if w.container == nil {
		return doc, nil
	}
	body := w.container.ChildByFieldName("body")
	w.walk(body, true)

	doc.ContainerPresent = true
	doc.HelperAnchor = document.Anchor{Offset: document.LineStart(src, w.containerStart), Before: true, Valid: true}
	doc.TestAnchor = document.Anchor{Offset: document.LineStart(src, int(body.EndByte())-1), Valid: true}
	return doc, nil
}

// MarkFailure adds #[should_panic] on the line after #[test].
func (l *Language) MarkFailure(doc *document.Document, unit document.Unit) (document.Edit, error) {
	if unit.MarkerEnd <= unit.MarkerStart {
		return document.Edit{}, fmt.Errorf("test %q has no #[test] attribute", unit.Name)
	}
	indent := document.IndentAt(doc.Source, unit.MarkerStart)
	return document.Edit{Offset: unit.MarkerEnd, Text: "\n" + indent + "#[should_panic]"}, nil
}

type walker struct {
	src            []byte
	doc            *document.Document
	container      *sitter.Node
	containerStart int
}

// walk visits the items of a source file or declaration list, attaching
// attributes and comments to the item that follows them.
func (w *walker) walk(n *sitter.Node, inContainer bool) {
	var lead []*sitter.Node
	prevRow := -1

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "line_comment", "block_comment":
			if len(lead) == 0 && int(child.StartPoint().Row) == prevRow {
				continue
			}
			lead = append(lead, child)
			continue
		case "attribute_item":
			lead = append(lead, child)
			continue
		case "function_item":
			w.function(child, lead, inContainer)
		case "mod_item":
			if !inContainer && w.container == nil && hasAttr(w.src, lead, "cfg(test)") && child.ChildByFieldName("body") != nil {
				w.container = child
				w.containerStart = start(child, lead)
			}
		}
		lead = nil
		prevRow = int(child.EndPoint().Row)
	}
}

func (w *walker) function(fn *sitter.Node, lead []*sitter.Node, inContainer bool) {
	name := fn.ChildByFieldName("name")
	if name == nil {
		return
	}
	unit := document.Unit{
		Name:  name.Content(w.src),
		Start: start(fn, lead),
		End:   int(fn.EndByte()),
		Line:  int(fn.StartPoint().Row) + 1,
	}
	unit.Indent = document.IndentAt(w.src, unit.Start)

	for _, attr := range lead {
		if attr.Type() != "attribute_item" {
			continue
		}
		inner := attrInner(attr.Content(w.src))
		switch {
		case inner == "test" || strings.HasSuffix(inner, "::test"):
			unit.Test = true
			unit.MarkerStart, unit.MarkerEnd = int(attr.StartByte()), int(attr.EndByte())
		case inner == "should_panic" || strings.HasPrefix(inner, "should_panic("):
			unit.ExpectFailure = true
		}
	}
	unit.InContainer = inContainer
	w.doc.Units = append(w.doc.Units, unit)
}

func start(n *sitter.Node, lead []*sitter.Node) int {
	if len(lead) > 0 {
		return int(lead[0].StartByte())
	}
	return int(n.StartByte())
}

func hasAttr(src []byte, lead []*sitter.Node, want string) bool {
	for _, n := range lead {
		if n.Type() == "attribute_item" && attrInner(n.Content(src)) == want {
			return true
		}
	}
	return false
}

// attrInner strips #[ ] and all blanks from an attribute.
func attrInner(attr string) string {
	s := strings.TrimSuffix(strings.TrimPrefix(attr, "#["), "]")
	return strings.Join(strings.Fields(s), "")
}

// syntaxError reports the first error or missing node.
func syntaxError(root *sitter.Node) error {
	var find func(n *sitter.Node) *sitter.Node
	find = func(n *sitter.Node) *sitter.Node {
		if n.Type() == "ERROR" || n.IsMissing() {
			return n
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c.HasError() || c.IsMissing() {
				if found := find(c); found != nil {
					return found
				}
			}
		}
		return nil
	}
	if n := find(root); n != nil {
		if n.IsMissing() {
			return fmt.Errorf("line %d: missing %q", n.StartPoint().Row+1, n.Type())
		}
		return fmt.Errorf("line %d: syntax error", n.StartPoint().Row+1)
	}
	return fmt.Errorf("syntax error")
}
