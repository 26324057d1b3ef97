package domain

// NodeKind tags a SpecNode.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindCondition
	KindAction
	KindDescription
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCondition:
		return "condition"
	case KindAction:
		return "action"
	case KindDescription:
		return "description"
	}
	return "unknown"
}

// Span locates a node in its source document.
type Span struct {
	Line   int // 1-based
	Column int // 1-based, in runes
}

// SpecNode is one node of a parsed specification tree.
// Descriptions carry their text in Title and never have children.
type SpecNode struct {
	Kind     NodeKind
	Title    string
	Children []*SpecNode
	Span     Span
}

// SpecFile is a single specification extracted from a source document.
type SpecFile struct {
	SourcePath string // the .tree / .md / .adoc file it came from
	SourceType string // "tree", "markdown", "asciidoc"
	Index      int    // position among the specs of the same source, 0-based
	Root       *SpecNode
}

// ParsedDocument holds every specification found in one source document.
type ParsedDocument struct {
	FilePath string
	FileType string
	Specs    []SpecFile
}

// HIR is the language-independent intermediate representation of a test file.
// Its fields follow emission order: context first, then helpers, then the
// single test group.
type HIR struct {
	Title      string
	Context    ContextRecord
	Helpers    []HelperUnit
	Group      TestGroup
	Collisions []Collision
}

// ContextRecord is the shared test-state holder.
type ContextRecord struct {
	Name string
	Doc  string
}

// HelperUnit is a setup declaration for one unique condition identifier.
type HelperUnit struct {
	ID          string
	SourceTitle string
	Span        Span
}

// TestGroup is the single structural container holding every test unit.
type TestGroup struct {
	Name  string
	Tests []TestUnit
}

// TestUnit is one generated test, one per action.
type TestUnit struct {
	ID            string
	ExpectFailure bool
	Annotations   []Annotation
	HelperPath    []string
	Span          Span
}

// Annotation is a comment attached to a test unit.
type Annotation struct {
	Text     string
	Reformat bool
}

// Collision records distinct titles that resolved to the same identifier.
type Collision struct {
	Kind   NodeKind
	ID     string
	Titles []string
	Lines  []int
}

// HelperIDs returns helper identifiers in emission order.
func (h *HIR) HelperIDs() []string {
	ids := make([]string, 0, len(h.Helpers))
	for _, helper := range h.Helpers {
		ids = append(ids, helper.ID)
	}
	return ids
}

// TestIDs returns test identifiers in emission order.
func (h *HIR) TestIDs() []string {
	ids := make([]string, 0, len(h.Group.Tests))
	for _, t := range h.Group.Tests {
		ids = append(ids, t.ID)
	}
	return ids
}

// FindTest returns the first test unit with the given id.
func (h *HIR) FindTest(id string) (TestUnit, bool) {
	for _, t := range h.Group.Tests {
		if t.ID == id {
			return t, true
		}
	}
	return TestUnit{}, false
}

// FindHelper returns the helper unit with the given id.
func (h *HIR) FindHelper(id string) (HelperUnit, bool) {
	for _, helper := range h.Helpers {
		if helper.ID == id {
			return helper, true
		}
	}
	return HelperUnit{}, false
}

// UnitFact is one function-like declaration discovered in real source.
type UnitFact struct {
	ID            string
	Test          bool
	ExpectFailure bool
	InContainer   bool
	Line          int
}

// Facts is the structural view of a real source file, rebuilt on every check.
type Facts struct {
	ContainerPresent bool
	Units            []UnitFact // file order
}

// TestIDs returns the ids of test-like units inside the container, in file order.
func (f Facts) TestIDs() []string {
	var ids []string
	for _, u := range f.Units {
		if u.Test && u.InContainer {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// HelperIDs returns the set of helper-like unit ids.
func (f Facts) HelperIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, u := range f.Units {
		if !u.Test {
			ids[u.ID] = true
		}
	}
	return ids
}

// Test returns the first test-like unit inside the container with the given id.
func (f Facts) Test(id string) (UnitFact, bool) {
	for _, u := range f.Units {
		if u.Test && u.InContainer && u.ID == id {
			return u, true
		}
	}
	return UnitFact{}, false
}
