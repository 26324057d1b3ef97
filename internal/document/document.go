// Package document holds the structural view of a target-language source
// file: where its function-like units live, where new ones go, and the edits
// that repair it.
package document

import (
	"bytes"
	"fmt"

	"github.com/frherrer/treesync/internal/domain"
)

// Unit is one function-like declaration. Start and End delimit the whole
// declaration, including the attributes and comments directly above it.
type Unit struct {
	Name          string
	Test          bool
	ExpectFailure bool
	InContainer   bool
	Start         int
	End           int
	Line          int

	// MarkerStart and MarkerEnd delimit the language-specific place where a
	// failure marker is added: the test attribute or the body's opening brace.
	MarkerStart int
	MarkerEnd   int
	Indent      string
}

// Anchor is an insertion point. Before anchors sit at the start of an
// existing declaration; the others sit at the start of a closing line or at
// the end of the file.
type Anchor struct {
	Offset int
	Before bool
	Valid  bool
}

// Document is a parsed source file.
type Document struct {
	Source           []byte
	ContainerPresent bool
	Units            []Unit
	HelperAnchor     Anchor
	TestAnchor       Anchor
}

// Edit replaces Delete bytes at Offset with Text.
type Edit struct {
	Offset int
	Delete int
	Text   string
}

// Facts returns the flat structural record used by the conformance checker.
func (d *Document) Facts() domain.Facts {
	facts := domain.Facts{ContainerPresent: d.ContainerPresent}
	for _, u := range d.Units {
		facts.Units = append(facts.Units, domain.UnitFact{
			ID:            u.Name,
			Test:          u.Test,
			ExpectFailure: u.ExpectFailure,
			InContainer:   u.InContainer,
			Line:          u.Line,
		})
	}
	return facts
}

// Test returns the first test unit inside the container with the given name.
func (d *Document) Test(name string) (Unit, bool) {
	for _, u := range d.Units {
		if u.Test && u.InContainer && u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// Apply returns the source with the edit applied. The document itself is
// not modified; callers re-parse the result.
func (d *Document) Apply(e Edit) ([]byte, error) {
	if e.Offset < 0 || e.Delete < 0 || e.Offset+e.Delete > len(d.Source) {
		return nil, fmt.Errorf("edit [%d,%d) is outside the document (%d bytes)", e.Offset, e.Offset+e.Delete, len(d.Source))
	}
	out := make([]byte, 0, len(d.Source)+len(e.Text)-e.Delete)
	out = append(out, d.Source[:e.Offset]...)
	out = append(out, e.Text...)
	out = append(out, d.Source[e.Offset+e.Delete:]...)
	return out, nil
}

// Insert builds the edit that places a rendered declaration at the anchor,
// separated from its neighbours by a blank line.
func Insert(a Anchor, fragment string) (Edit, error) {
	if !a.Valid {
		return Edit{}, fmt.Errorf("no insertion point")
	}
	if a.Before {
		return Edit{Offset: a.Offset, Text: fragment + "\n\n"}, nil
	}
	return Edit{Offset: a.Offset, Text: "\n" + fragment + "\n"}, nil
}

// Reorder permutes the container's declarations so the units named by order
// come first, in that order, followed by the remaining container units in
// their original relative order. Text between declarations stays in place.
// Every name in order must match a container unit.
func (d *Document) Reorder(order []string) ([]byte, error) {
	var slots []Unit
	for _, u := range d.Units {
		if u.InContainer {
			slots = append(slots, u)
		}
	}
	if len(slots) == 0 {
		return append([]byte(nil), d.Source...), nil
	}

	used := make([]bool, len(slots))
	perm := make([]int, 0, len(slots))
	for _, name := range order {
		found := -1
		for i, u := range slots {
			if !used[i] && u.Name == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("cannot reorder: %q is not declared in the container", name)
		}
		used[found] = true
		perm = append(perm, found)
	}
	for i := range slots {
		if !used[i] {
			perm = append(perm, i)
		}
	}

	for i := 1; i < len(slots); i++ {
		if slots[i].Start < slots[i-1].End {
			return nil, fmt.Errorf("cannot reorder: declarations %q and %q overlap", slots[i-1].Name, slots[i].Name)
		}
	}

	var buf bytes.Buffer
	buf.Write(d.Source[:slots[0].Start])
	for i, p := range perm {
		buf.Write(d.Source[slots[p].Start:slots[p].End])
		if i+1 < len(slots) {
			buf.Write(d.Source[slots[i].End:slots[i+1].Start])
		}
	}
	buf.Write(d.Source[slots[len(slots)-1].End:])
	return buf.Bytes(), nil
}

// LineAt returns the 1-based line of a byte offset.
func LineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// LineStart returns the offset of the start of the line holding offset when
// only blanks precede it on that line, and offset itself otherwise.
func LineStart(src []byte, offset int) int {
	i := offset
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	if i == 0 || src[i-1] == '\n' {
		return i
	}
	return offset
}

// IndentAt returns the blanks between the start of the line and offset.
func IndentAt(src []byte, offset int) string {
	i := offset
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	if i > 0 && src[i-1] != '\n' {
		return ""
	}
	return string(src[i:offset])
}

// LineEnd returns the offset just past the newline ending the line holding
// offset when only blanks follow it, and offset itself otherwise.
func LineEnd(src []byte, offset int) int {
	i := offset
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	if i == len(src) {
		return i
	}
	if src[i] == '\n' {
		return i + 1
	}
	return offset
}
