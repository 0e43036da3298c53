package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/history"
	"github.com/kestrel-tools/todosync/internal/reconcile"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show replica counts and pending operations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		pair := openReplicas(cfg, quietLogger())
		defer pair.Close()

		ctx := context.Background()

		fmt.Printf("%s Replica status\n\n", ui.RenderAccent("📊"))

		ok := true
		localRecords, err := pair.local.List(ctx)
		if err != nil {
			fmt.Printf("  %s %s: unreachable (%v)\n", ui.RenderFail("✗"), pair.local.Name(), err)
			ok = false
		} else {
			fmt.Printf("  %s %s: %d records\n", ui.RenderPass("✓"), pair.local.Name(), len(localRecords))
		}

		remoteRecords, err := pair.remote.List(ctx)
		if err != nil {
			fmt.Printf("  %s %s: unreachable (%v)\n", ui.RenderFail("✗"), pair.remote.Name(), err)
			ok = false
		} else {
			fmt.Printf("  %s %s: %d records\n", ui.RenderPass("✓"), pair.remote.Name(), len(remoteRecords))
		}

		if ok {
			plan := reconcile.Diff(localRecords, remoteRecords)
			if plan.Empty() {
				fmt.Printf("\n  %s replicas in sync\n", ui.RenderPass("✓"))
			} else {
				fmt.Printf("\n  %s %d pending operations (run \"tds sync\")\n",
					ui.RenderWarn("⚠"), len(plan.Ops))
			}
			if len(plan.SkippedInvalid) > 0 {
				fmt.Printf("  %s %d records with invalid timestamps: %v\n",
					ui.RenderWarn("⚠"), len(plan.SkippedInvalid), plan.SkippedInvalid)
			}
		}

		printLastRun(ctx, cfg.History)

		if !ok {
			os.Exit(1)
		}
	},
}

func printLastRun(ctx context.Context, historyPath string) {
	if historyPath == "" {
		return
	}
	if _, err := os.Stat(historyPath); err != nil {
		return
	}

	store, err := history.Open(historyPath)
	if err != nil {
		return
	}
	defer store.Close()

	last, err := store.LastRun(ctx)
	if err != nil || last == nil {
		return
	}

	fmt.Printf("\n  last sync: %s (%s, %d writes, %d failed)\n",
		last.StartedAt.Local().Format(time.RFC822),
		last.Mode,
		last.CreatedOnA+last.CreatedOnB+last.UpdatedOnA+last.UpdatedOnB,
		last.Failed)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
