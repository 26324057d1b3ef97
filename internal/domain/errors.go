package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksFailed is returned when a check run leaves violations unresolved.
	ErrChecksFailed = errors.New("checks failed")
	// ErrScaffoldFailed is returned when at least one specification could not be scaffolded.
	ErrScaffoldFailed = errors.New("scaffold failed")
)

// TreeSyncError is the base error type with context.
type TreeSyncError struct {
	Phase      string // "config", "scan", "parse", "translate", "template", "extract", "fix", "write"
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *TreeSyncError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (hint: %s)", e.Suggestion)
	}
	return s
}

func (e *TreeSyncError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TreeSyncError.
func NewError(phase, file string, line int, message string, cause error) *TreeSyncError {
	return &TreeSyncError{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a new TreeSyncError carrying a hint for the user.
func NewErrorWithSuggestion(phase, file string, line int, message, suggestion string, cause error) *TreeSyncError {
	return &TreeSyncError{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Suggestion: suggestion,
		Cause:      cause,
	}
}

// IsPhase reports whether err is a TreeSyncError raised in the given phase.
func IsPhase(err error, phase string) bool {
	var tsErr *TreeSyncError
	if errors.As(err, &tsErr) {
		return tsErr.Phase == phase
	}
	return false
}
