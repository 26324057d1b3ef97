// Package fixer repairs a source file so it conforms to its specification.
//
// Fixing runs in two passes and the order is part of the contract: content
// fixes (missing helpers, missing tests, failure markers) are applied first,
// one at a time, then the file is checked again and the test order is
// repaired. Reordering only works once every expected test exists.
package fixer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/frherrer/treesync/internal/conformance"
	"github.com/frherrer/treesync/internal/document"
	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/lang"
	tmpl "github.com/frherrer/treesync/internal/template"
)

// ApplyError reports a fix that could not be applied. The fixer skips it
// and carries on with the remaining fixes.
type ApplyError struct {
	Violation domain.Violation
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("cannot fix %s: %v", e.Violation.Message(), e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Renderer renders single declarations for insertion.
type Renderer interface {
	RenderHelper(hir *domain.HIR, lang, id string, opts tmpl.Options) (string, error)
	RenderTest(hir *domain.HIR, lang, id string, opts tmpl.Options) (string, error)
}

// Options configures a fixer.
type Options struct {
	SkipHelpers bool
	Emit        tmpl.Options
	File        string
}

// Result is the outcome of Fix.
type Result struct {
	Document   *document.Document
	Fixed      int
	Unresolved []domain.Violation
	Errors     []error
}

// Fixer applies fixes to a document.
type Fixer interface {
	Fix(expected *domain.HIR, doc *document.Document, violations []domain.Violation) *Result
}

// DefaultFixer implements Fixer for one language.
type DefaultFixer struct {
	lang     lang.Language
	renderer Renderer
	opts     Options
	log      *logrus.Logger
}

// NewFixer creates a DefaultFixer.
func NewFixer(l lang.Language, r Renderer, opts Options, log *logrus.Logger) *DefaultFixer {
	return &DefaultFixer{lang: l, renderer: r, opts: opts, log: log}
}

// Fix repairs doc. The returned document is re-parsed after every committed
// edit; Unresolved holds the violations a final check still finds.
func (f *DefaultFixer) Fix(expected *domain.HIR, doc *document.Document, violations []domain.Violation) *Result {
	res := &Result{Document: doc}

	// Pass 1: content.
	for _, v := range violations {
		if v.Kind == domain.OrderMismatch || !v.Fixable() {
			continue
		}
		next, err := f.apply(expected, res.Document, v)
		if err != nil {
			applyErr := &ApplyError{Violation: v, Err: err}
			f.log.Warnf("%s: %v", f.opts.File, applyErr)
			res.Errors = append(res.Errors, applyErr)
			continue
		}
		f.log.Debugf("%s: fixed: %s", f.opts.File, v.Message())
		res.Document = next
		res.Fixed++
	}

	// Pass 2: order, against the updated document.
	for _, v := range f.check(expected, res.Document) {
		if v.Kind != domain.OrderMismatch {
			continue
		}
		next, err := f.reorder(expected, res.Document)
		if err != nil {
			applyErr := &ApplyError{Violation: v, Err: err}
			f.log.Warnf("%s: %v", f.opts.File, applyErr)
			res.Errors = append(res.Errors, applyErr)
			break
		}
		f.log.Debugf("%s: fixed: %s", f.opts.File, v.Message())
		res.Document = next
		res.Fixed++
	}

	res.Unresolved = f.check(expected, res.Document)
	return res
}

func (f *DefaultFixer) check(expected *domain.HIR, doc *document.Document) []domain.Violation {
	return conformance.Check(expected, doc.Facts(), conformance.Options{
		SkipHelpers:   f.opts.SkipHelpers,
		File:          f.opts.File,
		FailureMarker: f.lang.FailureMarker(),
	})
}

// apply commits the fix for one content violation.
func (f *DefaultFixer) apply(expected *domain.HIR, doc *document.Document, v domain.Violation) (*document.Document, error) {
	var edit document.Edit
	var err error

	switch {
	case v.Kind == domain.MissingArtifact && v.Artifact == domain.ArtifactHelper:
		edit, err = f.insert(doc.HelperAnchor, func() (string, error) {
			return f.renderer.RenderHelper(expected, f.lang.Name(), v.ID, f.opts.Emit)
		})
	case v.Kind == domain.MissingArtifact:
		edit, err = f.insert(doc.TestAnchor, func() (string, error) {
			return f.renderer.RenderTest(expected, f.lang.Name(), v.ID, f.opts.Emit)
		})
	case v.Kind == domain.AttributeMismatch:
		unit, ok := doc.Test(v.ID)
		if !ok {
			return nil, fmt.Errorf("test %q is not declared", v.ID)
		}
		edit, err = f.lang.MarkFailure(doc, unit)
	default:
		return nil, fmt.Errorf("%s cannot be fixed in place", v.Kind)
	}
	if err != nil {
		return nil, err
	}

	src, err := doc.Apply(edit)
	if err != nil {
		return nil, err
	}
	return f.reparse(src)
}

func (f *DefaultFixer) insert(at document.Anchor, render func() (string, error)) (document.Edit, error) {
	fragment, err := render()
	if err != nil {
		return document.Edit{}, err
	}
	return document.Insert(at, fragment)
}

// reorder permutes the container: expected tests first, in order, then the
// remaining declarations in their original relative order.
func (f *DefaultFixer) reorder(expected *domain.HIR, doc *document.Document) (*document.Document, error) {
	src, err := doc.Reorder(expected.TestIDs())
	if err != nil {
		return nil, err
	}
	return f.reparse(src)
}

func (f *DefaultFixer) reparse(src []byte) (*document.Document, error) {
	next, err := f.lang.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("fixed source no longer parses: %w", err)
	}
	return next, nil
}
