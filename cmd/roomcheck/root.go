package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	out    io.Writer
	logger *zap.Logger

	verbose    bool
	configPath string
	catalog    string
	jobs       int
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "roomcheck",
		Short: "Check a directory of tile-map rooms for structural problems",
		Long: `roomcheck loads every exported room document in a directory, runs a
configurable set of layer rules against each room, and prints only what needs
attention.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "rule-set file (default: built-in rules)")
	root.PersistentFlags().StringVar(&a.catalog, "catalog", "", "catalog file for unused-reference checks, overriding the rule set")
	root.PersistentFlags().IntVar(&a.jobs, "jobs", runtime.GOMAXPROCS(0), "files to load in parallel")

	root.AddCommand(
		newCheckCmd(a),
		newFindCmd(a),
		newStatsCmd(a),
		newRulesCmd(a),
	)
	return root
}
