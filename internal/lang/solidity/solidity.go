// Package solidity extracts test structure from Foundry-style Solidity test
// files.
package solidity

import (
	"fmt"
	"strings"

	"github.com/frherrer/treesync/internal/document"
	"github.com/frherrer/treesync/internal/lang/cscan"
)

// Language is the Solidity adapter.
type Language struct{}

// New creates the Solidity adapter.
func New() *Language {
	return &Language{}
}

func (l *Language) Name() string      { return "solidity" }
func (l *Language) Extension() string { return ".sol" }

// FailureMarker names the expected-failure marker in reports.
func (l *Language) FailureMarker() string {
	return "vm.expectRevert()"
}

type contract struct {
	name     string
	abstract bool
	open     int
	close    int
}

// Parse finds the test contract, the first non-abstract contract in the
// file, and every function and modifier declared in any contract. Functions
// named test* are tests; an expectRevert call or a testFail prefix marks
// expected failure. Modifiers are helpers.
func (l *Language) Parse(src []byte) (*document.Document, error) {
	toks, err := cscan.Tokenize(src, cscan.Options{})
	if err != nil {
		return nil, err
	}

	doc := &document.Document{Source: src}
	var container, base *contract
	lastModifierEnd := -1

	for _, item := range cscan.Items(toks, 0, len(toks)) {
		c := contractOf(toks, item)
		if c == nil {
			continue
		}
		inContainer := false
		switch {
		case !c.abstract && container == nil:
			container = c
			inContainer = true
		case c.abstract && base == nil:
			base = c
		}

		for _, inner := range cscan.Items(toks, c.open+1, c.close) {
			unit, ok := l.unit(src, toks, inner)
			if !ok {
				continue
			}
			if isModifier(toks, inner) {
				lastModifierEnd = unit.End
			} else {
				unit.InContainer = inContainer
			}
			doc.Units = append(doc.Units, unit)
		}
	}

	if container == nil {
		return doc, nil
	}
	doc.ContainerPresent = true
	closeAt := document.LineStart(src, toks[container.close].Start)
	doc.TestAnchor = document.Anchor{Offset: closeAt, Valid: true}

	switch {
	case lastModifierEnd >= 0:
		doc.HelperAnchor = document.Anchor{Offset: document.LineEnd(src, lastModifierEnd), Valid: true}
	case base != nil:
		doc.HelperAnchor = document.Anchor{Offset: document.LineStart(src, toks[base.close].Start), Valid: true}
	default:
		doc.HelperAnchor = document.Anchor{Offset: closeAt, Valid: true}
	}
	return doc, nil
}

// unit builds a unit for a function or modifier declaration.
func (l *Language) unit(src []byte, toks []cscan.Token, item cscan.Item) (document.Unit, bool) {
	head := toks[item.First]
	if !head.Is("function") && !head.Is("modifier") {
		return document.Unit{}, false
	}
	if item.First+1 > item.Last || toks[item.First+1].Kind != cscan.Ident {
		return document.Unit{}, false
	}

	unit := document.Unit{
		Name:  toks[item.First+1].Text,
		Start: item.Start(toks),
		End:   toks[item.Last].End,
		Line:  head.Line,
	}
	unit.Indent = document.IndentAt(src, unit.Start)

	if head.Is("modifier") {
		return unit, true
	}

	unit.Test = strings.HasPrefix(unit.Name, "test")
	unit.ExpectFailure = strings.HasPrefix(unit.Name, "testFail")
	if body := cscan.Next(toks, item.First, "{", ";"); body >= 0 && toks[body].Is("{") {
		unit.MarkerStart, unit.MarkerEnd = toks[body].Start, toks[body].End
		for j := body + 1; j < item.Last; j++ {
			if toks[j].Kind == cscan.Ident && toks[j].Text == "expectRevert" {
				unit.ExpectFailure = true
				break
			}
		}
	}
	return unit, true
}

// MarkFailure adds a vm.expectRevert() call at the top of the test body.
func (l *Language) MarkFailure(doc *document.Document, unit document.Unit) (document.Edit, error) {
	if unit.MarkerEnd <= unit.MarkerStart {
		return document.Edit{}, fmt.Errorf("function %q has no body", unit.Name)
	}
	return document.Edit{
		Offset: unit.MarkerEnd,
		Text:   "\n" + unit.Indent + "    vm.expectRevert();",
	}, nil
}

// contractOf returns the contract declared by item, if any. Interfaces and
// libraries are skipped.
func contractOf(toks []cscan.Token, item cscan.Item) *contract {
	i := item.First
	c := &contract{}
	if toks[i].Is("abstract") {
		c.abstract = true
		i++
	}
	if i+1 > item.Last || !toks[i].Is("contract") || toks[i+1].Kind != cscan.Ident {
		return nil
	}
	c.name = toks[i+1].Text
	if !toks[item.Last].Is("}") {
		return nil
	}
	c.open = cscan.Next(toks, i, "{")
	c.close = item.Last
	if c.open < 0 {
		return nil
	}
	return c
}

func isModifier(toks []cscan.Token, item cscan.Item) bool {
	return toks[item.First].Is("modifier")
}
