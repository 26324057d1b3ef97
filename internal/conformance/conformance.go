// Package conformance compares the structure a specification expects with
// the structure extracted from a real source file.
package conformance

import (
	"github.com/frherrer/treesync/internal/domain"
)

// Options tunes a check.
type Options struct {
	// SkipHelpers disables the missing-helper check.
	SkipHelpers bool
	// File is recorded on every violation.
	File string
	// FailureMarker is the language's expected-failure marker, used in
	// attribute mismatch reports.
	FailureMarker string
}

// Check returns the violations of actual against expected, in this order:
// a missing container (and nothing else), missing helpers, missing tests and
// attribute mismatches in expected order, then at most one order mismatch.
func Check(expected *domain.HIR, actual domain.Facts, opts Options) []domain.Violation {
	if !actual.ContainerPresent {
		return []domain.Violation{{Kind: domain.MissingContainer, File: opts.File}}
	}

	var violations []domain.Violation

	if !opts.SkipHelpers {
		helpers := actual.HelperIDs()
		for _, h := range expected.Helpers {
			if !helpers[h.ID] {
				violations = append(violations, domain.Violation{
					Kind:     domain.MissingArtifact,
					Artifact: domain.ArtifactHelper,
					ID:       h.ID,
					File:     opts.File,
				})
			}
		}
	}

	marker := opts.FailureMarker
	if marker == "" {
		marker = "expected failure"
	}
	for _, t := range expected.Group.Tests {
		unit, ok := actual.Test(t.ID)
		if !ok {
			violations = append(violations, domain.Violation{
				Kind:     domain.MissingArtifact,
				Artifact: domain.ArtifactTest,
				ID:       t.ID,
				File:     opts.File,
			})
			continue
		}
		if t.ExpectFailure && !unit.ExpectFailure {
			violations = append(violations, domain.Violation{
				Kind:     domain.AttributeMismatch,
				ID:       t.ID,
				Expected: marker,
				Found:    "none",
				File:     opts.File,
				Line:     unit.Line,
			})
		}
	}

	if !IsSubsequence(expected.TestIDs(), actual.TestIDs()) {
		violations = append(violations, domain.Violation{Kind: domain.OrderMismatch, File: opts.File})
	}

	return violations
}

// IsSubsequence reports whether expected appears in actual in order, with
// any number of other ids in between. The scan is greedy.
func IsSubsequence(expected, actual []string) bool {
	i := 0
	for _, id := range actual {
		if i < len(expected) && id == expected[i] {
			i++
		}
	}
	return i == len(expected)
}

// Fixable counts the violations the fixer can repair.
func Fixable(violations []domain.Violation) int {
	n := 0
	for _, v := range violations {
		if v.Fixable() {
			n++
		}
	}
	return n
}
