package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/generator"
)

var (
	scaffoldSpec       specFlags
	scaffoldWriteFiles bool
	scaffoldForceWrite bool
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold [files...]",
	Short: "Generate test skeletons from tree specifications",
	Long: `Parses each specification and prints the generated test file to stdout.
With --write-files the result is written next to the specification instead.
Arguments may be files, directories or glob patterns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		scaffoldSpec.apply(cmd, cfg)
		if cmd.Flags().Changed("write-files") {
			cfg.Scaffold.WriteFiles = scaffoldWriteFiles
		}
		if cmd.Flags().Changed("force-write") {
			cfg.Scaffold.ForceWrite = scaffoldForceWrite
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		return runScaffold(cfg, args)
	},
}

func init() {
	scaffoldSpec.register(scaffoldCmd)
	scaffoldCmd.Flags().BoolVarP(&scaffoldWriteFiles, "write-files", "w", false, "write files next to the specifications instead of printing them")
	scaffoldCmd.Flags().BoolVarP(&scaffoldForceWrite, "force-write", "f", false, "overwrite existing files")
	rootCmd.AddCommand(scaffoldCmd)
}

// runScaffold wires all components and runs the generator.
func runScaffold(cfg *config.Config, args []string) error {
	c, err := wire(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to create template engine: %w", err)
	}

	mode := generator.EmitMode{
		Stdout: !cfg.Scaffold.WriteFiles,
		Force:  cfg.Scaffold.ForceWrite,
		DryRun: cfg.DryRun,
	}
	return c.gen.Scaffold(args, cfg, mode)
}
