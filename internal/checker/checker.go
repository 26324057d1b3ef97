// Package checker runs the conformance check over a batch of specification
// files and, on request, repairs the target files.
package checker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/conformance"
	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/fixer"
	"github.com/frherrer/treesync/internal/generator"
	"github.com/frherrer/treesync/internal/lang"
)

// Options selects the check mode.
type Options struct {
	Fix    bool
	Stdout bool // print every checked file, fixed, instead of rewriting it
}

// Report is the outcome of a check run.
type Report struct {
	Violations []domain.Violation // unresolved, in file order
	Fixed      int
	Errors     []error
}

// Fixable counts the unresolved violations a --fix run could repair.
func (r *Report) Fixable() int {
	return conformance.Fixable(r.Violations)
}

// Failed reports whether anything is left to report.
func (r *Report) Failed() bool {
	return len(r.Violations) > 0 || len(r.Errors) > 0
}

// Checker checks target files against their specifications.
type Checker interface {
	Check(args []string, cfg *config.Config, opts Options) (*Report, error)
}

// DefaultChecker implements Checker on top of the scaffold pipeline.
type DefaultChecker struct {
	gen      *generator.DefaultGenerator
	langs    *lang.Registry
	renderer fixer.Renderer
	out      io.Writer
	log      *logrus.Logger
}

// NewChecker creates a DefaultChecker.
func NewChecker(gen *generator.DefaultGenerator, langs *lang.Registry, r fixer.Renderer, out io.Writer, log *logrus.Logger) *DefaultChecker {
	return &DefaultChecker{gen: gen, langs: langs, renderer: r, out: out, log: log}
}

type fileReport struct {
	violations []domain.Violation
	fixed      int
	errs       []error
	writes     []generator.Target
}

// Check processes every specification file, prints a summary and returns
// ErrChecksFailed when violations or errors remain.
func (c *DefaultChecker) Check(args []string, cfg *config.Config, opts Options) (*Report, error) {
	report := &Report{}

	files, err := c.gen.Files(args, cfg)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		c.log.Warn("No specification files found")
		return report, nil
	}

	l, err := c.langs.Lookup(cfg.Lang)
	if err != nil {
		return nil, domain.NewError("config", "", 0, "invalid target language", err)
	}

	results := iter.Mapper[string, fileReport]{MaxGoroutines: cfg.Jobs}.Map(files, func(path *string) fileReport {
		return c.checkFile(*path, l, cfg, opts)
	})

	var writes []generator.Target
	for _, res := range results {
		report.Violations = append(report.Violations, res.violations...)
		report.Fixed += res.fixed
		report.Errors = append(report.Errors, res.errs...)
		writes = append(writes, res.writes...)
	}

	if opts.Fix {
		mode := generator.EmitMode{Stdout: opts.Stdout, Frame: opts.Stdout, Force: true, DryRun: cfg.DryRun}
		report.Errors = append(report.Errors, c.gen.Emit(writes, mode)...)
	}

	for _, err := range report.Errors {
		c.log.Error(err)
	}
	c.summarize(report, args, opts)

	if report.Failed() {
		return report, domain.ErrChecksFailed
	}
	return report, nil
}

func (c *DefaultChecker) checkFile(path string, l lang.Language, cfg *config.Config, opts Options) fileReport {
	var res fileReport

	targets, err := c.gen.Targets(path, l, cfg)
	if err != nil {
		res.errs = append(res.errs, err)
		return res
	}

	for _, t := range targets {
		c.checkTarget(t, l, cfg, opts, &res)
	}
	return res
}

func (c *DefaultChecker) checkTarget(t generator.Target, l lang.Language, cfg *config.Config, opts Options, res *fileReport) {
	src, err := os.ReadFile(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if opts.Fix {
			c.log.Debugf("%s: writing missing file", t.Path)
			res.writes = append(res.writes, t)
			res.fixed++
			return
		}
		res.violations = append(res.violations, domain.Violation{Kind: domain.MissingFile, File: t.Path})
		return
	}
	if err != nil {
		res.errs = append(res.errs, domain.NewError("extract", t.Path, 0, "failed to read test file", err))
		return
	}

	doc, err := l.Parse(src)
	if err != nil {
		res.violations = append(res.violations, domain.Violation{
			Kind:   domain.UnparseableSource,
			Reason: err.Error(),
			File:   t.Path,
		})
		return
	}

	violations := conformance.Check(t.HIR, doc.Facts(), conformance.Options{
		SkipHelpers:   cfg.Scaffold.SkipHelpers,
		File:          t.Path,
		FailureMarker: l.FailureMarker(),
	})
	if !opts.Fix || conformance.Fixable(violations) == 0 {
		res.violations = append(res.violations, violations...)
		if opts.Fix && opts.Stdout {
			t.Content = string(src)
			res.writes = append(res.writes, t)
		}
		return
	}

	f := fixer.NewFixer(l, c.renderer, fixer.Options{
		SkipHelpers: cfg.Scaffold.SkipHelpers,
		Emit:        generator.EmitOptions(cfg),
		File:        t.Path,
	}, c.log)
	fixed := f.Fix(t.HIR, doc, violations)

	res.violations = append(res.violations, fixed.Unresolved...)
	res.fixed += fixed.Fixed
	if fixed.Fixed > 0 || opts.Stdout {
		t.Content = string(fixed.Document.Source)
		res.writes = append(res.writes, t)
	}
}

// summarize prints the outcome. With --stdout the summary goes to the log
// so that stdout only carries source code.
func (c *DefaultChecker) summarize(report *Report, args []string, opts Options) {
	say := func(format string, a ...any) {
		if opts.Stdout {
			c.log.Infof(format, a...)
			return
		}
		fmt.Fprintf(c.out, format+"\n", a...)
	}

	if opts.Fix {
		say("%d issue(s) fixed.", report.Fixed)
	} else if !report.Failed() {
		say("All checks completed successfully! No issues found.")
		return
	}

	if !report.Failed() {
		return
	}

	for _, v := range report.Violations {
		say("%s", v.String())
	}

	failed := len(report.Violations) + len(report.Errors)
	if n := report.Fixable(); n > 0 && !opts.Fix {
		say("%d check(s) failed (run \"treesync check --fix %s\" to apply %d fix(es))",
			failed, strings.Join(args, " "), n)
		return
	}
	say("%d check(s) failed", failed)
}
