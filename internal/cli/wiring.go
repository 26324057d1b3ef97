package cli

import (
	"io"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/generator"
	"github.com/frherrer/treesync/internal/lang"
	"github.com/frherrer/treesync/internal/parser"
	"github.com/frherrer/treesync/internal/scanner"
	tmpl "github.com/frherrer/treesync/internal/template"
)

// components holds everything the commands share.
type components struct {
	langs  *lang.Registry
	engine *tmpl.DefaultEngine
	gen    *generator.DefaultGenerator
}

// wire builds the pipeline for cfg, writing generated code to out.
func wire(cfg *config.Config, out io.Writer) (*components, error) {
	engine, err := tmpl.NewEngine(cfg.Templates.Directory)
	if err != nil {
		return nil, err
	}
	langs := lang.NewDefaultRegistry()
	gen := generator.NewGenerator(
		scanner.NewScanner(cfg.IsRecursive()),
		parser.NewDefaultRegistry(),
		langs,
		engine,
		out,
		log,
	)
	return &components{langs: langs, engine: engine, gen: gen}, nil
}
