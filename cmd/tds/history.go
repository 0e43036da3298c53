package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/history"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "sync",
	Short:   "Show recent sync runs",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		cfg := loadConfig(cmd)

		store, err := history.Open(cfg.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		entries, err := store.Recent(context.Background(), limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Printf("%s No sync runs recorded yet\n", ui.RenderDim("·"))
			return
		}

		fmt.Printf("%s Recent sync runs\n\n", ui.RenderAccent("📜"))
		for _, e := range entries {
			marker := ui.RenderPass("✓")
			if e.Failed > 0 || e.Invalid > 0 {
				marker = ui.RenderWarn("⚠")
			}

			writes := e.CreatedOnA + e.CreatedOnB + e.UpdatedOnA + e.UpdatedOnB
			fmt.Printf("  %s %s  %-8s %3d writes, %3d unchanged", marker,
				e.StartedAt.Local().Format(time.DateTime), e.Mode, writes, e.Skipped)
			if e.Failed > 0 {
				fmt.Printf(", %s", ui.RenderFail(fmt.Sprintf("%d failed (%s)", e.Failed, e.FailedIDs)))
			}
			if e.Invalid > 0 {
				fmt.Printf(", %d invalid", e.Invalid)
			}
			fmt.Printf("  %s\n", ui.RenderDim(e.Duration.Round(time.Millisecond).String()))
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
