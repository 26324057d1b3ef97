package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/frherrer/treesync/internal/config"
)

// specFlags are the flags shared by scaffold and check. They override the
// config file only when given explicitly.
type specFlags struct {
	lang               string
	skipHelpers        bool
	formatDescriptions bool
	withVMSkip         bool
	solidityVersion    string
	jobs               int
}

func (f *specFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "solidity", "target language (rust, noir, solidity)")
	cmd.Flags().BoolVarP(&f.skipHelpers, "skip-modifiers", "m", false, "skip helper (modifier) declarations")
	cmd.Flags().BoolVar(&f.formatDescriptions, "format-descriptions", false, "capitalize and punctuate test comments")
	cmd.Flags().BoolVar(&f.withVMSkip, "with-vm-skip", false, "emit vm.skip(true) in every Solidity test")
	cmd.Flags().StringVarP(&f.solidityVersion, "solidity-version", "s", "0.8.0", "Solidity compiler version for the pragma")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 1, "number of files processed in parallel")
}

func (f *specFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("lang") {
		cfg.Lang = strings.ToLower(f.lang)
	}
	if cmd.Flags().Changed("skip-modifiers") {
		cfg.Scaffold.SkipHelpers = f.skipHelpers
	}
	if cmd.Flags().Changed("format-descriptions") {
		cfg.Scaffold.FormatDescriptions = f.formatDescriptions
	}
	if cmd.Flags().Changed("with-vm-skip") {
		cfg.Scaffold.WithVMSkip = f.withVMSkip
	}
	if cmd.Flags().Changed("solidity-version") {
		cfg.Scaffold.SolidityVersion = f.solidityVersion
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs = f.jobs
	}
}
