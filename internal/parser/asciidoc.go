package parser

import (
	"regexp"
	"strings"

	"github.com/frherrer/treesync/internal/domain"
)

// AsciiDocParser extracts tree specifications from AsciiDoc listing blocks.
type AsciiDocParser struct{}

// NewAsciiDocParser creates a new AsciiDocParser.
func NewAsciiDocParser() *AsciiDocParser {
	return &AsciiDocParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *AsciiDocParser) SupportedExtensions() []string {
	return []string{".adoc", ".asciidoc"}
}

var (
	// Matches [source,tag] and [source,tag,attr=val]
	asciidocSourceRe = regexp.MustCompile(`^\[source,([^,\]]+)(?:,(.+))?\]\s*$`)
	// Matches ---- delimiter
	asciidocDelimRe = regexp.MustCompile(`^----+\s*$`)
)

// Parse parses an AsciiDoc document and turns every [source,<tag>] block
// whose tag is one of tags into a specification.
func (p *AsciiDocParser) Parse(filePath string, content []byte, tags []string) (*domain.ParsedDocument, error) {
	lines := strings.Split(string(content), "\n")

	tagSet := make(map[string]bool)
	for _, t := range tags {
		tagSet[t] = true
	}

	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "asciidoc",
	}

	for i := 0; i < len(lines); i++ {
		m := asciidocSourceRe.FindStringSubmatch(strings.TrimRight(lines[i], "\r"))
		if m == nil || !tagSet[strings.TrimSpace(m[1])] {
			continue
		}

		// Expect ---- delimiter on next line
		i++
		if i >= len(lines) {
			break
		}
		if !asciidocDelimRe.MatchString(lines[i]) {
			continue
		}

		// Read content until closing ----
		i++
		offset := i
		var contentLines []string
		for i < len(lines) && !asciidocDelimRe.MatchString(lines[i]) {
			contentLines = append(contentLines, lines[i])
			i++
		}

		roots, err := ParseTrees(strings.Join(contentLines, "\n"), offset)
		if err != nil {
			return nil, withFile(err, filePath)
		}
		for _, root := range roots {
			parsed.Specs = append(parsed.Specs, domain.SpecFile{
				SourcePath: filePath,
				SourceType: "asciidoc",
				Index:      len(parsed.Specs),
				Root:       root,
			})
		}
	}

	return parsed, nil
}
