package cli

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/domain"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool
	log     *logrus.Logger
)

// rootCmd is the base command for treesync.
var rootCmd = &cobra.Command{
	Use:   "treesync",
	Short: "Scaffold and check tests from branching-tree specifications",
	Long: `treesync reads branching-tree specifications (.tree files, or tree blocks
embedded in Markdown and AsciiDoc) and turns them into test skeletons for
Rust, Noir or Solidity.

The check command verifies that existing test files still match their
specification and can fix them in place.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = newLogger()
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "process specifications but don't write files")

	// Initialize default logger (overridden in PersistentPreRun)
	log = newLogger()
}

// newLogger builds the stderr logger. Colors are only used on a terminal.
func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      tty,
		DisableColors:    !tty,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Execute runs the root command. Failed checks and scaffolds have already
// been reported when they surface here.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, domain.ErrChecksFailed) && !errors.Is(err, domain.ErrScaffoldFailed) {
		log.Error(err)
	}
	return err
}

// loadConfig reads the config file, applies global flags and validates it.
// The default config file is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}
	if !verbose && cfg.Logging.Level != "" {
		if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
			log.SetLevel(level)
		}
	}
	return cfg, nil
}
