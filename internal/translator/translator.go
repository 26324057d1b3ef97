package translator

import (
	"fmt"
	"strings"

	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/naming"
)

const (
	// ContextName is the name of the shared test-state holder.
	ContextName = "TestContext"
	// ContextDoc documents the context record.
	ContextDoc = "Context for test conditions"
	// GroupName is the name of the test container.
	GroupName = "tests"
)

// DefaultFailureKeywords mark an action as expected to fail when any of them
// occurs in its title.
var DefaultFailureKeywords = []string{
	"panic",
	"panics",
	"revert",
	"reverts",
	"error",
	"errors",
	"fail",
	"fails",
}

// Config drives translation.
type Config struct {
	SkipHelpers        bool
	FormatDescriptions bool
	FailureKeywords    []string
	RejectCollisions   bool
}

// Translator transforms specification trees into HIR.
type Translator interface {
	Translate(root *domain.SpecNode) (*domain.HIR, error)
}

// DefaultTranslator implements Translator.
type DefaultTranslator struct {
	cfg Config
}

// NewTranslator creates a new DefaultTranslator. A nil keyword set falls back
// to DefaultFailureKeywords.
func NewTranslator(cfg Config) *DefaultTranslator {
	if cfg.FailureKeywords == nil {
		cfg.FailureKeywords = DefaultFailureKeywords
	}
	return &DefaultTranslator{cfg: cfg}
}

// Translate walks the tree twice: once for helpers (unless skipped), once for
// tests. Both walks are pre-order in specification order.
func (t *DefaultTranslator) Translate(root *domain.SpecNode) (*domain.HIR, error) {
	if root == nil || root.Kind != domain.KindRoot {
		return nil, domain.NewError("translate", "", 0, "expected a root node", nil)
	}
	if err := validate(root); err != nil {
		return nil, err
	}

	hir := &domain.HIR{
		Title:   strings.TrimSpace(root.Title),
		Context: domain.ContextRecord{Name: ContextName, Doc: ContextDoc},
		Group:   domain.TestGroup{Name: GroupName},
	}

	helperCollisions := newCollisionSet(domain.KindCondition)
	if !t.cfg.SkipHelpers {
		t.collectHelpers(root.Children, hir, helperCollisions)
	}

	testCollisions := newCollisionSet(domain.KindAction)
	t.collectTests(root.Children, nil, hir, testCollisions)

	hir.Collisions = append(helperCollisions.list(), testCollisions.list()...)
	if t.cfg.RejectCollisions && len(hir.Collisions) > 0 {
		c := hir.Collisions[0]
		return nil, domain.NewErrorWithSuggestion("translate", "", c.Lines[len(c.Lines)-1],
			fmt.Sprintf("%s titles %s all resolve to %q", c.Kind, quoteAll(c.Titles), c.ID),
			"rename one of the nodes or set naming.reject_collisions to false",
			nil)
	}

	return hir, nil
}

// collectHelpers emits one helper per first-seen condition identifier.
func (t *DefaultTranslator) collectHelpers(children []*domain.SpecNode, hir *domain.HIR, seen *collisionSet) {
	for _, child := range children {
		if child.Kind != domain.KindCondition {
			continue
		}
		id := naming.Slug(child.Title)
		if seen.add(id, child) {
			hir.Helpers = append(hir.Helpers, domain.HelperUnit{
				ID:          id,
				SourceTitle: strings.TrimSpace(child.Title),
				Span:        child.Span,
			})
		}
		t.collectHelpers(child.Children, hir, seen)
	}
}

// collectTests emits one test per action, tracking the enclosing helper path.
func (t *DefaultTranslator) collectTests(children []*domain.SpecNode, path []string, hir *domain.HIR, seen *collisionSet) {
	for _, child := range children {
		switch child.Kind {
		case domain.KindCondition:
			nested := append(append([]string(nil), path...), naming.Slug(child.Title))
			t.collectTests(child.Children, nested, hir, seen)
		case domain.KindAction:
			unit := t.translateAction(child, path)
			seen.add(unit.ID, child)
			hir.Group.Tests = append(hir.Group.Tests, unit)
		}
	}
}

// translateAction converts a single action into a test unit.
func (t *DefaultTranslator) translateAction(action *domain.SpecNode, path []string) domain.TestUnit {
	last := ""
	if len(path) > 0 {
		last = path[len(path)-1]
	}

	unit := domain.TestUnit{
		ID:            naming.TestID(last, naming.Slug(action.Title)),
		ExpectFailure: ExpectsFailure(action.Title, t.cfg.FailureKeywords),
		HelperPath:    append([]string(nil), path...),
		Span:          action.Span,
	}

	unit.Annotations = append(unit.Annotations, domain.Annotation{
		Text:     action.Title,
		Reformat: t.cfg.FormatDescriptions,
	})
	for _, desc := range action.Children {
		if desc.Kind == domain.KindDescription {
			unit.Annotations = append(unit.Annotations, domain.Annotation{
				Text:     desc.Title,
				Reformat: t.cfg.FormatDescriptions,
			})
		}
	}

	return unit
}

// ExpectsFailure reports whether the case-folded title contains any keyword
// as a substring, so "failure" matches "fail".
func ExpectsFailure(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// validate rejects trees the parser should never have produced.
func validate(n *domain.SpecNode) error {
	for _, child := range n.Children {
		if child == nil {
			return domain.NewError("translate", "", n.Span.Line, "nil child node", nil)
		}
		switch {
		case child.Kind == domain.KindRoot:
			return domain.NewError("translate", "", child.Span.Line, "nested root node", nil)
		case child.Kind == domain.KindDescription && n.Kind != domain.KindAction:
			return domain.NewError("translate", "", child.Span.Line,
				fmt.Sprintf("description %q outside of an action", child.Title), nil)
		case child.Kind != domain.KindDescription && n.Kind == domain.KindAction:
			return domain.NewError("translate", "", child.Span.Line,
				fmt.Sprintf("%s %q nested under an action", child.Kind, child.Title), nil)
		case child.Kind != domain.KindDescription && strings.TrimSpace(child.Title) == "":
			return domain.NewError("translate", "", child.Span.Line, "empty title", nil)
		}
		if err := validate(child); err != nil {
			return err
		}
	}
	return nil
}

// collisionSet tracks which normalized titles produced each identifier.
type collisionSet struct {
	kind   domain.NodeKind
	titles map[string][]string
	lines  map[string][]int
	order  []string
}

func newCollisionSet(kind domain.NodeKind) *collisionSet {
	return &collisionSet{
		kind:   kind,
		titles: make(map[string][]string),
		lines:  make(map[string][]int),
	}
}

// add records the node and reports whether id was seen for the first time.
func (c *collisionSet) add(id string, n *domain.SpecNode) bool {
	titles, seen := c.titles[id]
	if !seen {
		c.order = append(c.order, id)
		c.titles[id] = []string{strings.TrimSpace(n.Title)}
		c.lines[id] = []int{n.Span.Line}
		return true
	}

	// Helpers that differ only by case or keyword spelling are the same entity.
	// Repeated actions always collide since each one becomes its own test.
	if c.kind == domain.KindCondition {
		for _, existing := range titles {
			if naming.Normalize(existing) == naming.Normalize(n.Title) {
				return false
			}
		}
	}
	c.titles[id] = append(titles, strings.TrimSpace(n.Title))
	c.lines[id] = append(c.lines[id], n.Span.Line)
	return false
}

func (c *collisionSet) list() []domain.Collision {
	var out []domain.Collision
	for _, id := range c.order {
		if len(c.titles[id]) < 2 {
			continue
		}
		out = append(out, domain.Collision{
			Kind:   c.kind,
			ID:     id,
			Titles: c.titles[id],
			Lines:  c.lines[id],
		})
	}
	return out
}

func quoteAll(titles []string) string {
	quoted := make([]string, len(titles))
	for i, title := range titles {
		quoted[i] = fmt.Sprintf("%q", title)
	}
	return strings.Join(quoted, ", ")
}
