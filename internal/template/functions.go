package template

import (
	"strings"
	"text/template"
	"unicode"

	"github.com/frherrer/treesync/internal/domain"
)

// CustomFuncMap returns the template functions added on top of sprig's.
func CustomFuncMap() template.FuncMap {
	return template.FuncMap{
		"comment":       Comment,
		"contractName":  ContractName,
		"formatComment": FormatComment,
	}
}

// Comment renders an annotation, reformatted when requested.
func Comment(a domain.Annotation) string {
	if a.Reformat {
		return FormatComment(a.Text)
	}
	return strings.TrimSpace(a.Text)
}

// FormatComment capitalizes the first character and ends the text with a
// period unless it already ends with '.', '!' or '?'.
func FormatComment(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	s = string(runes)
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

// ContractName derives a Solidity identifier from a root title:
// "Vault::withdraw" becomes "Vault_withdraw".
func ContractName(title string) string {
	var sb strings.Builder
	for _, r := range strings.ReplaceAll(strings.TrimSpace(title), "::", "_") {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" {
		return "GeneratedTest"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "T" + name
	}
	return name
}
