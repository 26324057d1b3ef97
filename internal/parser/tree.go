package parser

import (
	"fmt"
	"strings"

	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/naming"
)

const (
	branchMid  = '├'
	branchLast = '└'
	branchPipe = '│'
	branchDash = "─"
	indentSize = 4
)

// TreeParser parses branching-tree files:
//
//	HashPairTest
//	├── It should never revert.
//	└── When first arg is smaller than second arg
//	    └── It should match the result of `hash(a, b)`.
//
// It is also registered as the fallback parser.
type TreeParser struct{}

// NewTreeParser creates a new TreeParser.
func NewTreeParser() *TreeParser {
	return &TreeParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *TreeParser) SupportedExtensions() []string {
	return []string{".tree"}
}

// Parse parses every tree in the file. Tags are ignored: the whole file is a
// specification.
func (p *TreeParser) Parse(filePath string, content []byte, _ []string) (*domain.ParsedDocument, error) {
	roots, err := ParseTrees(string(content), 0)
	if err != nil {
		return nil, withFile(err, filePath)
	}

	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "tree",
	}
	for i, root := range roots {
		parsed.Specs = append(parsed.Specs, domain.SpecFile{
			SourcePath: filePath,
			SourceType: "tree",
			Index:      i,
			Root:       root,
		})
	}
	return parsed, nil
}

// ParseTrees parses tree text into one root per top-level title. lineOffset
// is added to reported line numbers, for trees embedded in other documents.
func ParseTrees(text string, lineOffset int) ([]*domain.SpecNode, error) {
	var roots []*domain.SpecNode
	var stack []*domain.SpecNode

	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		lineNo := i + 1 + lineOffset
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		runes := []rune(line)
		markerAt := -1
		for j, r := range runes {
			if r == branchMid || r == branchLast {
				markerAt = j
				break
			}
			if r != branchPipe && r != ' ' && r != '\t' {
				break
			}
		}

		if markerAt < 0 {
			if strings.TrimLeft(trimmed, string(branchPipe)+" \t") != trimmed {
				rest := strings.TrimSpace(strings.TrimLeft(trimmed, string(branchPipe)+" \t"))
				if rest == "" || strings.HasPrefix(rest, "//") {
					continue
				}
				return nil, domain.NewError("parse", "", lineNo,
					fmt.Sprintf("expected a branch marker (├── or └──) before %q", rest), nil)
			}
			root := &domain.SpecNode{
				Kind:  domain.KindRoot,
				Title: trimmed,
				Span:  domain.Span{Line: lineNo, Column: 1},
			}
			roots = append(roots, root)
			stack = []*domain.SpecNode{root}
			continue
		}

		if len(stack) == 0 {
			return nil, domain.NewErrorWithSuggestion("parse", "", lineNo,
				"branch found before the root title",
				"start the tree with a line naming the contract or module under test", nil)
		}
		if markerAt%indentSize != 0 {
			return nil, domain.NewError("parse", "", lineNo,
				fmt.Sprintf("branch marker at column %d is not aligned to %d columns", markerAt+1, indentSize), nil)
		}

		depth := markerAt/indentSize + 1
		if depth > len(stack) {
			return nil, domain.NewError("parse", "", lineNo,
				fmt.Sprintf("branch is nested %d levels below its parent", depth-len(stack)+1), nil)
		}

		title := string(runes[markerAt+1:])
		title = strings.TrimLeft(title, branchDash)
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, domain.NewError("parse", "", lineNo, "empty branch title", nil)
		}

		parent := stack[depth-1]
		node, err := classify(parent, title, lineNo, markerAt+1)
		if err != nil {
			return nil, err
		}
		parent.Children = append(parent.Children, node)
		stack = append(stack[:depth], node)
	}

	if len(roots) == 0 {
		return nil, domain.NewError("parse", "", 0, "no tree found", nil)
	}
	return roots, nil
}

// classify decides the node kind from its parent and its leading keyword.
func classify(parent *domain.SpecNode, title string, line, column int) (*domain.SpecNode, error) {
	node := &domain.SpecNode{Title: title, Span: domain.Span{Line: line, Column: column}}

	switch {
	case parent.Kind == domain.KindDescription:
		return nil, domain.NewError("parse", "", line, "descriptions cannot have children", nil)
	case parent.Kind == domain.KindAction:
		node.Kind = domain.KindDescription
	case naming.HasKeyword(title, "it"):
		node.Kind = domain.KindAction
	case naming.HasKeyword(title, "when", "given"):
		node.Kind = domain.KindCondition
	default:
		return nil, domain.NewErrorWithSuggestion("parse", "", line,
			fmt.Sprintf("unexpected title %q", title),
			`conditions start with "when" or "given", actions start with "it"`, nil)
	}
	return node, nil
}

// withFile attaches a file path to a parse error.
func withFile(err error, filePath string) error {
	if tsErr, ok := err.(*domain.TreeSyncError); ok && tsErr.File == "" {
		tsErr.File = filePath
		return tsErr
	}
	return err
}
