package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/milk9111/roomcheck/report"
	"github.com/spf13/cobra"
)

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <dir> <layer>",
		Short: "Show where each room's layer of that name resolves",
		Long: `find prints, for every room, the group path of the layer that has-layer
would match, or "-" when the room has no such layer.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			c, err := a.loadRooms(cmd.Context(), args[0], cfg.Include)
			if err != nil {
				return err
			}
			return report.WriteMatches(a.out, report.FindLayers(c, args[1]))
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <dir> <layer>",
		Short: "Count objects or painted cells on a layer, smallest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			c, err := a.loadRooms(cmd.Context(), args[0], cfg.Include)
			if err != nil {
				return err
			}
			stats := report.LayerStats(c, args[1])
			if len(stats) == 0 {
				fmt.Fprintf(a.out, "no room has a %q layer\n", args[1])
				return nil
			}
			return report.WriteStats(a.out, stats)
		},
	}
}

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules and aggregates in the rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, r := range cfg.Registry.Rules() {
				fmt.Fprintf(tw, "%s\t%s\n", r.ID(), r.Description())
			}
			for _, agg := range cfg.Aggregates {
				fmt.Fprintf(tw, "%s\t%s\n", agg.ID(), agg.Description())
			}
			return tw.Flush()
		},
	}
}
