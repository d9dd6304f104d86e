package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"toolforge/internal/store"
)

var (
	historyTool  string
	historyLimit int
	historyStats bool
	historyPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded tool invocations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled in config")
		}
		h, err := store.NewHistoryStore(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer h.Close()

		out := cmd.OutOrStdout()

		if historyPrune > 0 {
			n, err := h.Prune(historyPrune)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "pruned %d invocations\n", n)
			return nil
		}

		if historyStats {
			stats, err := h.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "total=%d success=%d failure=%d\n",
				stats.TotalInvocations, stats.SuccessCount, stats.FailureCount)
			names := make([]string, 0, len(stats.ByTool))
			for name := range stats.ByTool {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				ts := stats.ByTool[name]
				fmt.Fprintf(out, "  %-20s count=%-4d success=%-4d avg=%.1fms\n",
					name, ts.Count, ts.SuccessCount, ts.AvgDurationMs)
			}
			return nil
		}

		var invs []store.Invocation
		if historyTool != "" {
			invs, err = h.ByTool(historyTool, historyLimit)
		} else {
			invs, err = h.Recent(historyLimit)
		}
		if err != nil {
			return err
		}
		for _, inv := range invs {
			status := "ok"
			if !inv.Success {
				status = inv.ErrorKind
			}
			fmt.Fprintf(out, "%s %-20s %-16s %5dms %s\n",
				inv.CreatedAt.Format("2006-01-02 15:04:05"), inv.ToolName, status, inv.DurationMs, inv.Args)
		}
		return nil
	},
}
