package domain

import "fmt"

// ViolationKind tags a Violation.
type ViolationKind int

const (
	MissingFile ViolationKind = iota
	UnparseableSource
	MissingContainer
	MissingArtifact
	AttributeMismatch
	OrderMismatch
)

func (k ViolationKind) String() string {
	switch k {
	case MissingFile:
		return "missing-file"
	case UnparseableSource:
		return "unparseable-source"
	case MissingContainer:
		return "missing-container"
	case MissingArtifact:
		return "missing-artifact"
	case AttributeMismatch:
		return "attribute-mismatch"
	case OrderMismatch:
		return "order-mismatch"
	}
	return "unknown"
}

// ArtifactKind distinguishes the two kinds of missing declarations.
type ArtifactKind int

const (
	ArtifactHelper ArtifactKind = iota
	ArtifactTest
)

func (k ArtifactKind) String() string {
	if k == ArtifactHelper {
		return "helper"
	}
	return "test"
}

// Violation is one structural disagreement between a specification and a
// real source file.
type Violation struct {
	Kind     ViolationKind
	Artifact ArtifactKind // MissingArtifact only
	ID       string       // MissingArtifact, AttributeMismatch
	Expected string       // AttributeMismatch
	Found    string       // AttributeMismatch
	Reason   string       // UnparseableSource
	File     string
	Line     int // 1-based line in File, 0 when unknown
}

// Fixable reports whether the fixer knows how to repair this violation.
func (v Violation) Fixable() bool {
	switch v.Kind {
	case MissingFile, MissingArtifact, AttributeMismatch, OrderMismatch:
		return true
	}
	return false
}

// Message describes the violation without file context.
func (v Violation) Message() string {
	switch v.Kind {
	case MissingFile:
		return "test file is missing"
	case UnparseableSource:
		return fmt.Sprintf("test file could not be parsed: %s", v.Reason)
	case MissingContainer:
		return "test container is missing"
	case MissingArtifact:
		if v.Artifact == ArtifactHelper {
			return fmt.Sprintf("helper %q is missing", v.ID)
		}
		return fmt.Sprintf("test %q is missing", v.ID)
	case AttributeMismatch:
		return fmt.Sprintf("test %q has incorrect attributes: expected %s, found %s", v.ID, v.Expected, v.Found)
	case OrderMismatch:
		return "test order does not match the specification order"
	}
	return v.Kind.String()
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", v.File, v.Line, v.Message())
	}
	return fmt.Sprintf("%s: %s", v.File, v.Message())
}
