package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frherrer/treesync/internal/checker"
	"github.com/frherrer/treesync/internal/config"
)

var (
	checkSpec   specFlags
	checkFix    bool
	checkStdout bool
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check that test files match their tree specifications",
	Long: `Compares every test file with the specification it was generated from and
reports missing helpers, missing tests, missing failure markers and tests
out of order. With --fix the test files are repaired in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		checkSpec.apply(cmd, cfg)

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		if checkStdout && !checkFix {
			log.Warn("--stdout has no effect without --fix")
		}

		return runCheck(cfg, args, checker.Options{Fix: checkFix, Stdout: checkStdout})
	},
}

func init() {
	checkSpec.register(checkCmd)
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "repair violations in place")
	checkCmd.Flags().BoolVar(&checkStdout, "stdout", false, "print fixed files instead of writing them")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cfg *config.Config, args []string, opts checker.Options) error {
	c, err := wire(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to create template engine: %w", err)
	}

	chk := checker.NewChecker(c.gen, c.langs, c.engine, os.Stdout, log)
	_, err = chk.Check(args, cfg, opts)
	return err
}
