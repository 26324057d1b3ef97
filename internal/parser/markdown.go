package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/frherrer/treesync/internal/domain"
)

// MarkdownParser extracts tree specifications from fenced code blocks in
// Markdown documents using goldmark.
type MarkdownParser struct{}

// NewMarkdownParser creates a new MarkdownParser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Parse parses a Markdown document and turns every fenced block tagged with
// one of tags into a specification.
func (p *MarkdownParser) Parse(filePath string, content []byte, tags []string) (*domain.ParsedDocument, error) {
	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "markdown",
	}

	tagSet := make(map[string]bool)
	for _, t := range tags {
		tagSet[t] = true
	}

	var parseErr error
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var info string
		if block.Info != nil {
			info = string(block.Info.Segment.Value(content))
		}
		fields := strings.Fields(info)
		if len(fields) == 0 || !tagSet[fields[0]] {
			return ast.WalkSkipChildren, nil
		}

		lines := block.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(content))
		}

		// Line numbers reported by ParseTrees are 1-based within the block.
		offset := lineNumber(content, lines.At(0).Start) - 1
		roots, err := ParseTrees(buf.String(), offset)
		if err != nil {
			parseErr = err
			return ast.WalkStop, nil
		}
		for _, root := range roots {
			parsed.Specs = append(parsed.Specs, domain.SpecFile{
				SourcePath: filePath,
				SourceType: "markdown",
				Index:      len(parsed.Specs),
				Root:       root,
			})
		}
		return ast.WalkSkipChildren, nil
	})

	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", filePath, 0,
			"failed to walk markdown AST",
			"check the markdown file for syntax issues, fenced code blocks need triple backticks",
			err)
	}
	if parseErr != nil {
		return nil, withFile(parseErr, filePath)
	}

	return parsed, nil
}

// lineNumber calculates the 1-based line number for a byte offset.
func lineNumber(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
