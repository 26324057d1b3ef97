// Package noir extracts test structure from Noir sources. Noir has no
// enclosing test module: the file is the container and every #[test]
// function belongs to it.
package noir

import (
	"fmt"
	"strings"

	"github.com/frherrer/treesync/internal/document"
	"github.com/frherrer/treesync/internal/lang/cscan"
)

// Language is the Noir adapter.
type Language struct{}

// New creates the Noir adapter.
func New() *Language {
	return &Language{}
}

func (l *Language) Name() string      { return "noir" }
func (l *Language) Extension() string { return ".nr" }

// FailureMarker names the expected-failure marker in reports.
func (l *Language) FailureMarker() string {
	return "#[test(should_fail)]"
}

// Parse scans top-level functions. Functions carrying a #[test] attribute
// are tests; should_fail inside that attribute marks expected failure.
func (l *Language) Parse(src []byte) (*document.Document, error) {
	toks, err := cscan.Tokenize(src, cscan.Options{Attributes: true})
	if err != nil {
		return nil, err
	}

	doc := &document.Document{Source: src, ContainerPresent: true}
	lastHelperEnd, firstTestStart := -1, -1

	for _, item := range cscan.Items(toks, 0, len(toks)) {
		fnAt := findFn(toks, item)
		if fnAt < 0 {
			continue
		}

		unit := document.Unit{
			Name:  toks[fnAt+1].Text,
			Start: item.Start(toks),
			End:   toks[item.Last].End,
			Line:  toks[item.First].Line,
		}
		unit.Indent = document.IndentAt(src, unit.Start)
		for _, lead := range item.Lead {
			if lead.Kind != cscan.Attribute {
				continue
			}
			inner := attrInner(lead.Text)
			if inner == "test" || strings.HasPrefix(inner, "test(") {
				unit.Test = true
				unit.InContainer = true
				unit.ExpectFailure = strings.Contains(inner, "should_fail")
				unit.MarkerStart, unit.MarkerEnd = lead.Start, lead.End
			}
		}

		if unit.Test {
			if firstTestStart < 0 {
				firstTestStart = unit.Start
			}
		} else {
			lastHelperEnd = unit.End
		}
		doc.Units = append(doc.Units, unit)
	}

	switch {
	case lastHelperEnd >= 0:
		doc.HelperAnchor = document.Anchor{Offset: document.LineEnd(src, lastHelperEnd), Valid: true}
	case firstTestStart >= 0:
		doc.HelperAnchor = document.Anchor{Offset: document.LineStart(src, firstTestStart), Before: true, Valid: true}
	default:
		doc.HelperAnchor = document.Anchor{Offset: len(src), Valid: true}
	}
	doc.TestAnchor = document.Anchor{Offset: len(src), Valid: true}
	return doc, nil
}

// MarkFailure rewrites a bare #[test] into #[test(should_fail)].
func (l *Language) MarkFailure(doc *document.Document, unit document.Unit) (document.Edit, error) {
	if unit.MarkerEnd <= unit.MarkerStart {
		return document.Edit{}, fmt.Errorf("test %q has no #[test] attribute", unit.Name)
	}
	attr := string(doc.Source[unit.MarkerStart:unit.MarkerEnd])
	if attrInner(attr) != "test" {
		return document.Edit{}, fmt.Errorf("cannot add should_fail to %s on %q", attr, unit.Name)
	}
	return document.Edit{
		Offset: unit.MarkerStart,
		Delete: unit.MarkerEnd - unit.MarkerStart,
		Text:   "#[test(should_fail)]",
	}, nil
}

// findFn returns the index of the fn keyword when item is a function
// declaration. Visibility and modifiers such as pub(crate) or unconstrained
// may precede it.
func findFn(toks []cscan.Token, item cscan.Item) int {
	for j := item.First; j < item.Last; j++ {
		t := toks[j]
		if t.Is("fn") {
			if toks[j+1].Kind == cscan.Ident {
				return j
			}
			return -1
		}
		if t.Kind != cscan.Ident && !t.Is("(") && !t.Is(")") {
			return -1
		}
	}
	return -1
}

// attrInner strips #[ ] and all blanks from an attribute.
func attrInner(attr string) string {
	s := strings.TrimSuffix(strings.TrimPrefix(attr, "#["), "]")
	return strings.Join(strings.Fields(s), "")
}
