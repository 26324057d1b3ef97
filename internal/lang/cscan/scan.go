// Package cscan tokenizes C-family source (Noir, Solidity) far enough to find
// top-level declarations, their attributes and comments, and balanced
// bodies. It does not validate the language.
package cscan

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	Ident Kind = iota
	Number
	String
	Punct
	LineComment
	BlockComment
	Attribute
)

// Token is a lexical element with its byte span and starting line.
type Token struct {
	Kind  Kind
	Text  string
	Start int
	End   int
	Line  int
}

// IsComment reports whether the token is a comment.
func (t Token) IsComment() bool {
	return t.Kind == LineComment || t.Kind == BlockComment
}

// Is reports whether the token is the given punctuation or identifier.
func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == text
}

// SyntaxError is returned for input the scanner cannot tokenize.
type SyntaxError struct {
	Line   int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Options select language-specific lexing.
type Options struct {
	// Attributes lexes #[...] as a single Attribute token.
	Attributes bool
}

// Tokenize splits src into tokens. Brackets must balance.
func Tokenize(src []byte, opts Options) ([]Token, error) {
	var toks []Token
	var stack []Token
	line := 1
	i := 0

	emit := func(kind Kind, start, end, startLine int) {
		toks = append(toks, Token{Kind: kind, Text: string(src[start:end]), Start: start, End: end, Line: startLine})
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			start := i
			for i < len(src) && src[i] != '\n' {
				i++
			}
			emit(LineComment, start, i, line)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start, startLine := i, line
			i += 2
			closed := false
			for i+1 < len(src) {
				if src[i] == '*' && src[i+1] == '/' {
					i += 2
					closed = true
					break
				}
				if src[i] == '\n' {
					line++
				}
				i++
			}
			if !closed {
				return nil, &SyntaxError{Line: startLine, Reason: "unterminated block comment"}
			}
			emit(BlockComment, start, i, startLine)
		case c == '"' || c == '\'':
			start, startLine := i, line
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\\' {
					i += 2
					continue
				}
				if src[i] == '\n' {
					break
				}
				if src[i] == c {
					i++
					closed = true
					break
				}
				i++
			}
			if !closed {
				return nil, &SyntaxError{Line: startLine, Reason: "unterminated string literal"}
			}
			emit(String, start, i, startLine)
		case opts.Attributes && c == '#' && i+1 < len(src) && src[i+1] == '[':
			start, startLine := i, line
			depth := 0
			for i < len(src) {
				if src[i] == '"' {
					// Brackets inside string arguments do not count.
					i++
					for i < len(src) && src[i] != '"' && src[i] != '\n' {
						if src[i] == '\\' && i+1 < len(src) {
							i++
						}
						i++
					}
					if i >= len(src) || src[i] == '\n' {
						return nil, &SyntaxError{Line: startLine, Reason: "unterminated string literal"}
					}
					i++
					continue
				}
				if src[i] == '[' {
					depth++
				} else if src[i] == ']' {
					depth--
					if depth == 0 {
						i++
						break
					}
				} else if src[i] == '\n' {
					line++
				}
				i++
			}
			if depth != 0 {
				return nil, &SyntaxError{Line: startLine, Reason: "unterminated attribute"}
			}
			emit(Attribute, start, i, startLine)
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			emit(Ident, start, i, line)
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			emit(Number, start, i, line)
		case c < utf8.RuneSelf:
			emit(Punct, i, i+1, line)
			tok := toks[len(toks)-1]
			switch c {
			case '{', '(', '[':
				stack = append(stack, tok)
			case '}', ')', ']':
				if len(stack) == 0 || closer(stack[len(stack)-1].Text[0]) != c {
					return nil, &SyntaxError{Line: line, Reason: fmt.Sprintf("unexpected %q", c)}
				}
				stack = stack[:len(stack)-1]
			}
			i++
		default:
			r, size := utf8.DecodeRune(src[i:])
			if r == utf8.RuneError && size <= 1 {
				return nil, &SyntaxError{Line: line, Reason: "invalid UTF-8"}
			}
			if !unicode.IsSpace(r) {
				emit(Punct, i, i+size, line)
			}
			i += size
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, &SyntaxError{Line: open.Line, Reason: fmt.Sprintf("unclosed %q", open.Text)}
	}
	return toks, nil
}

// Match returns the index of the bracket closing the one at toks[open].
func Match(toks []Token, open int) int {
	want := closer(toks[open].Text[0])
	depth := 0
	for i := open; i < len(toks); i++ {
		if toks[i].Kind != Punct {
			continue
		}
		switch toks[i].Text[0] {
		case toks[open].Text[0]:
			depth++
		case want:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Next returns the index of the first token at or after from, at the same
// bracket depth, whose text is one of texts. Nested brackets are skipped.
// It returns -1 when a closing bracket of the enclosing level is reached first.
func Next(toks []Token, from int, texts ...string) int {
	for i := from; i < len(toks); i++ {
		t := toks[i]
		for _, text := range texts {
			if t.Is(text) {
				return i
			}
		}
		if t.Kind != Punct {
			continue
		}
		switch t.Text {
		case "{", "(", "[":
			i = Match(toks, i)
			if i < 0 {
				return -1
			}
		case "}", ")", "]":
			return -1
		}
	}
	return -1
}

func closer(open byte) byte {
	switch open {
	case '{':
		return '}'
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
