package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/milk9111/roomcheck/config"
	"github.com/milk9111/roomcheck/report"
	"github.com/milk9111/roomcheck/rooms"
	"github.com/milk9111/roomcheck/rules"
	"github.com/milk9111/roomcheck/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
)

// errFindings makes the process exit non-zero under --strict. The report
// itself has already been printed.
var errFindings = errors.New("roomcheck: findings need attention")

type checkOptions struct {
	rules  []string
	strict bool
	watch  bool
	color  bool
	copy   bool
}

func newCheckCmd(a *app) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check <dir>",
		Short: "Run the rule set over every room in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return a.watchLoop(cmd.Context(), args[0], opts)
			}
			rep, err := a.check(cmd.Context(), args[0], opts.rules)
			if err != nil {
				return err
			}
			if err := a.emit(rep, opts); err != nil {
				return err
			}
			if opts.strict && (rep.Findings() > 0 || len(rep.Failures) > 0) {
				return errFindings
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&opts.rules, "rule", nil, "only run this rule id (repeatable)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit 1 when anything needs attention")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "re-run whenever rooms or the rule set change (nested rooms only when the include pattern has **)")
	cmd.Flags().BoolVar(&opts.color, "color", false, "color section headers")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "also copy the report to the clipboard")
	return cmd
}

func (a *app) loadConfig() (*config.Config, error) {
	return config.Load(a.configPath, config.WithCatalog(a.catalog), config.WithLogger(a.logger))
}

func (a *app) loadRooms(ctx context.Context, dir, include string) (*rooms.Collection, error) {
	return rooms.Load(ctx, dir,
		rooms.WithInclude(include),
		rooms.WithJobs(a.jobs),
		rooms.WithLogger(a.logger))
}

// check runs the whole pipeline once.
func (a *app) check(ctx context.Context, dir string, ids []string) (*report.Report, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	selected, err := cfg.Registry.Select(ids...)
	if err != nil {
		return nil, &config.ConfigError{Op: "select rules", Err: err}
	}
	c, err := a.loadRooms(ctx, dir, cfg.Include)
	if err != nil {
		return nil, err
	}

	rep := report.Summarize(c, rules.Evaluate(c, selected))

	ran := make(map[string]bool, len(selected))
	for _, r := range selected {
		ran[r.ID()] = true
	}
	for _, agg := range cfg.Aggregates {
		if !ran[agg.SourceID()] {
			a.logger.Debug("aggregate skipped, source rule not selected", zap.String("id", agg.ID()))
			continue
		}
		if res := rep.AddAggregate(agg); res.Err != nil {
			a.logger.Warn("aggregate could not run", zap.String("id", agg.ID()), zap.Error(res.Err))
		}
	}

	a.logger.Info("check finished",
		zap.String("dir", dir),
		zap.Int("rooms", rep.Rooms),
		zap.Int("rules", len(selected)),
		zap.Int("findings", rep.Findings()))
	return rep, nil
}

func (a *app) emit(rep *report.Report, opts checkOptions) error {
	var buf bytes.Buffer
	if err := rep.Render(&buf, report.RenderOptions{Color: opts.color}); err != nil {
		return err
	}
	if _, err := a.out.Write(buf.Bytes()); err != nil {
		return err
	}
	if opts.copy {
		a.copyToClipboard(rep)
	}
	return nil
}

// copyToClipboard always copies the uncolored text.
func (a *app) copyToClipboard(rep *report.Report) {
	if err := clipboard.Init(); err != nil {
		a.logger.Warn("clipboard unavailable", zap.Error(err))
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(rep.String()))
	a.logger.Debug("report copied to clipboard")
}

// nestedRooms reports whether the rule set's include pattern reaches into
// subdirectories.
func (a *app) nestedRooms() bool {
	cfg, err := a.loadConfig()
	if err != nil {
		return false
	}
	return strings.Contains(cfg.Include, "**")
}

func (a *app) watchLoop(ctx context.Context, dir string, opts checkOptions) error {
	run := func() error {
		rep, err := a.check(ctx, dir, opts.rules)
		if err != nil {
			var ce *config.ConfigError
			if errors.As(err, &ce) {
				// Keep watching so the rule set can be fixed in place.
				fmt.Fprintln(a.out, err)
				return nil
			}
			return err
		}
		return a.emit(rep, opts)
	}
	if err := run(); err != nil {
		return err
	}

	dirs := []string{dir}
	if a.configPath != "" {
		if cd := filepath.Dir(a.configPath); filepath.Clean(cd) != filepath.Clean(dir) {
			dirs = append(dirs, cd)
		}
	}
	w, err := watch.New(a.logger, dirs...)
	if err != nil {
		return fmt.Errorf("roomcheck: watch %s: %w", dir, err)
	}
	defer w.Close()
	if a.nestedRooms() {
		if err := w.AddTree(dir); err != nil {
			return fmt.Errorf("roomcheck: watch %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			a.logger.Info("re-running check", zap.String("changed", path))
			fmt.Fprintln(a.out)
			if err := run(); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", zap.Error(err))
		}
	}
}
