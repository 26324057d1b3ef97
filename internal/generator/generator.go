package generator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/lang"
	"github.com/frherrer/treesync/internal/naming"
	"github.com/frherrer/treesync/internal/parser"
	"github.com/frherrer/treesync/internal/scanner"
	tmpl "github.com/frherrer/treesync/internal/template"
	"github.com/frherrer/treesync/internal/translator"
)

// Generator is the top-level scaffold orchestrator.
type Generator interface {
	Scaffold(args []string, cfg *config.Config, mode EmitMode) error
}

// Target is one rendered specification and the file it belongs in.
type Target struct {
	Source  string
	Spec    domain.SpecFile
	HIR     *domain.HIR
	Path    string
	Content string
}

// EmitMode selects where rendered files go.
type EmitMode struct {
	Stdout bool // print instead of writing files
	Frame  bool // frame printed files even when there is only one
	Force  bool // overwrite existing files
	DryRun bool
}

// DefaultGenerator implements Generator by wiring all components together.
type DefaultGenerator struct {
	scanner  scanner.Scanner
	registry parser.ParserRegistry
	langs    *lang.Registry
	engine   tmpl.Emitter
	out      io.Writer
	log      *logrus.Logger
}

// NewGenerator creates a new DefaultGenerator with all dependencies.
func NewGenerator(
	s scanner.Scanner,
	r parser.ParserRegistry,
	langs *lang.Registry,
	e tmpl.Emitter,
	out io.Writer,
	log *logrus.Logger,
) *DefaultGenerator {
	return &DefaultGenerator{
		scanner:  s,
		registry: r,
		langs:    langs,
		engine:   e,
		out:      out,
		log:      log,
	}
}

type fileResult struct {
	targets []Target
	err     error
}

// Scaffold runs the full pipeline: expand → parse → translate → render →
// emit. A file that fails is reported and skipped; ErrScaffoldFailed is
// returned once every file has been processed.
func (g *DefaultGenerator) Scaffold(args []string, cfg *config.Config, mode EmitMode) error {
	files, err := g.Files(args, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		g.log.Warn("No specification files found")
		return nil
	}

	l, err := g.langs.Lookup(cfg.Lang)
	if err != nil {
		return domain.NewError("config", "", 0, "invalid target language", err)
	}

	g.log.Debugf("Scaffolding %d file(s) as %s", len(files), l.Name())

	results := iter.Mapper[string, fileResult]{MaxGoroutines: cfg.Jobs}.Map(files, func(path *string) fileResult {
		targets, err := g.Targets(*path, l, cfg)
		return fileResult{targets: targets, err: err}
	})

	var targets []Target
	failed := 0
	for i, res := range results {
		if res.err != nil {
			g.log.Errorf("%s: %v", files[i], res.err)
			failed++
			continue
		}
		targets = append(targets, res.targets...)
	}

	for _, err := range g.Emit(targets, mode) {
		g.log.Error(err)
		failed++
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d error(s)", domain.ErrScaffoldFailed, failed)
	}
	return nil
}

// Files expands command-line arguments into specification files.
func (g *DefaultGenerator) Files(args []string, cfg *config.Config) ([]string, error) {
	return g.scanner.Expand(args, cfg.Input.Include, cfg.Input.Exclude)
}

// Targets parses one specification document and renders every
// specification it holds for l.
func (g *DefaultGenerator) Targets(path string, l lang.Language, cfg *config.Config) ([]Target, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", path, 0,
			"failed to read file",
			"check that the file exists and has read permissions",
			err)
	}

	doc, err := g.registry.ParseFile(path, content, cfg.Tags)
	if err != nil {
		return nil, err
	}
	if len(doc.Specs) == 0 {
		g.log.Warnf("%s: no specification found", path)
		return nil, nil
	}

	tr := translator.NewTranslator(translator.Config{
		SkipHelpers:        cfg.Scaffold.SkipHelpers,
		FormatDescriptions: cfg.Scaffold.FormatDescriptions,
		FailureKeywords:    cfg.Naming.FailureKeywords,
		RejectCollisions:   cfg.Naming.RejectCollisions,
	})

	ext := cfg.Extension(l.Name(), l.Extension())
	targets := make([]Target, 0, len(doc.Specs))
	for _, spec := range doc.Specs {
		hir, err := tr.Translate(spec.Root)
		if err != nil {
			return nil, withFile(err, path)
		}
		for _, c := range hir.Collisions {
			g.log.Warnf("%s:%d: %s titles %s resolve to %q, keeping the first",
				path, c.Lines[len(c.Lines)-1], c.Kind, strings.Join(quote(c.Titles), ", "), c.ID)
		}

		rendered, err := g.engine.Render(hir, l.Name(), EmitOptions(cfg))
		if err != nil {
			return nil, withFile(err, path)
		}

		targets = append(targets, Target{
			Source:  path,
			Spec:    spec,
			HIR:     hir,
			Path:    OutputPath(path, spec, cfg.Output.Suffix, ext),
			Content: rendered,
		})
	}
	return targets, nil
}

// Emit prints or writes targets in order and returns the write failures.
func (g *DefaultGenerator) Emit(targets []Target, mode EmitMode) []error {
	var errs []error

	if mode.Stdout {
		framed := mode.Frame || len(targets) > 1
		for _, t := range targets {
			if framed {
				fmt.Fprintf(g.out, "--> %s\n", t.Path)
			}
			fmt.Fprint(g.out, t.Content)
			if framed {
				fmt.Fprintln(g.out, "<--")
			}
		}
		return nil
	}

	for _, t := range targets {
		if _, err := os.Stat(t.Path); err == nil && !mode.Force {
			g.log.Warnf("Skipping %s since it already exists (use --force-write to overwrite)", t.Path)
			continue
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, domain.NewError("write", t.Path, 0, "failed to stat output file", err))
			continue
		}

		if mode.DryRun {
			g.log.Infof("[DRY-RUN] Would write: %s", t.Path)
			g.log.Debugf("[DRY-RUN] Content:\n%s", t.Content)
			continue
		}

		g.log.Infof("Writing: %s", t.Path)
		if err := os.WriteFile(t.Path, []byte(t.Content), 0644); err != nil {
			errs = append(errs, domain.NewErrorWithSuggestion("write", t.Path, 0,
				"failed to write output file",
				"check disk space and write permissions for the output directory",
				err))
		}
	}
	return errs
}

// EmitOptions derives template options from the configuration.
func EmitOptions(cfg *config.Config) tmpl.Options {
	return tmpl.Options{
		WithVMSkip:      cfg.Scaffold.WithVMSkip,
		SolidityVersion: cfg.Scaffold.SolidityVersion,
	}
}

// OutputPath places the target file next to its specification document.
// The first specification of a document maps to <stem><suffix><ext>; later
// ones add the slug of their root title: <stem>_<slug><suffix><ext>.
func OutputPath(source string, spec domain.SpecFile, suffix, ext string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if spec.Index > 0 {
		slug := naming.Slug(spec.Root.Title)
		if slug == "" {
			slug = fmt.Sprintf("%d", spec.Index+1)
		}
		stem += "_" + slug
	}
	return filepath.Join(filepath.Dir(source), stem+suffix+ext)
}

func quote(titles []string) []string {
	quoted := make([]string, len(titles))
	for i, t := range titles {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return quoted
}

// withFile attaches a file path to an error raised without one.
func withFile(err error, path string) error {
	var tsErr *domain.TreeSyncError
	if errors.As(err, &tsErr) && tsErr.File == "" {
		tsErr.File = path
	}
	return err
}
