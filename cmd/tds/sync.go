package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kestrel-tools/todosync/internal/reconcile"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync [push|pull|two-way]",
	GroupID: "sync",
	Short:   "Reconcile the local and remote replicas",
	Long: `Run one reconcile pass between the configured replicas.

Directions:
  two-way   propagate the newest copy of every record in both directions
  push      local to remote only (alias: local-to-remote)
  pull      remote to local only (alias: remote-to-local)

For each record id present on either side, the copy with the strictly
newer updated_at wins. Records missing from one side are created there.
Nothing is ever deleted.

With no direction argument on a terminal, an interactive picker is
shown. Per-record write failures are reported but do not abort the
run or change the exit code; a replica that cannot be listed at all
aborts with no writes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		mode, err := resolveDirection(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg := loadConfig(cmd)
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		pair := openReplicas(cfg, logger)
		defer pair.Close()

		rec := newReconciler(cfg, pair, logger)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if dryRun {
			plan, err := rec.Plan(ctx, mode)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			printPlan(plan, pair)
			return
		}

		fmt.Printf("%s Syncing %s <-> %s (%s)...\n",
			ui.RenderAccent("🔄"), pair.local.Name(), pair.remote.Name(), mode)

		report, err := rec.Run(ctx, mode)
		if err != nil && report == nil {
			fmt.Fprintf(os.Stderr, "%s Sync failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		recordRun(context.Background(), cfg, report)
		printReport(report)
	},
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "Show planned operations without writing")
	rootCmd.AddCommand(syncCmd)
}

// resolveDirection maps the CLI argument to a sync mode, prompting
// interactively when no argument is given on a terminal.
func resolveDirection(args []string) (reconcile.Mode, error) {
	if len(args) == 1 {
		return parseDirection(args[0])
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return 0, fmt.Errorf("direction required: push, pull, or two-way")
	}

	choice := "two-way"
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Sync direction").
			Options(
				huh.NewOption("Two-way (newest copy wins everywhere)", "two-way"),
				huh.NewOption("Push (local to remote only)", "push"),
				huh.NewOption("Pull (remote to local only)", "pull"),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("prompt aborted: %w", err)
	}

	return parseDirection(choice)
}

func parseDirection(s string) (reconcile.Mode, error) {
	switch s {
	case "two-way", "both":
		return reconcile.ModeTwoWay, nil
	case "push", "local-to-remote":
		return reconcile.ModeAToB, nil
	case "pull", "remote-to-local":
		return reconcile.ModeBToA, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want push, pull, or two-way)", s)
	}
}

// printPlan shows what a sync would do without running it.
func printPlan(plan *reconcile.Plan, pair *replicaPair) {
	if plan.Empty() {
		fmt.Printf("%s Replicas are in sync (%d records identical)\n",
			ui.RenderPass("✓"), plan.SkippedEqual)
	} else {
		fmt.Printf("%s %d pending operations:\n\n", ui.RenderAccent("📋"), len(plan.Ops))
		for _, op := range plan.Ops {
			target := pair.local.Name()
			if op.Target == reconcile.TargetB {
				target = pair.remote.Name()
			}
			fmt.Printf("  %s %s %q on %s\n", ui.RenderDim("•"), op.Kind, op.Record.ID, target)
		}
	}
	if len(plan.SkippedInvalid) > 0 {
		fmt.Printf("\n%s %d records skipped (invalid timestamps): %v\n",
			ui.RenderWarn("⚠"), len(plan.SkippedInvalid), plan.SkippedInvalid)
	}
}

// printReport renders the post-run summary.
func printReport(report *reconcile.Report) {
	if report.Aborted {
		fmt.Printf("%s Sync interrupted after %v\n", ui.RenderWarn("⚠"),
			report.Duration.Round(time.Millisecond))
	} else if report.Clean() {
		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"),
			report.Duration.Round(time.Millisecond))
	} else {
		fmt.Printf("%s Sync finished with issues in %v\n", ui.RenderWarn("⚠"),
			report.Duration.Round(time.Millisecond))
	}

	fmt.Printf("  created: %d local, %d remote\n", report.CreatedOnA, report.CreatedOnB)
	fmt.Printf("  updated: %d local, %d remote\n", report.UpdatedOnA, report.UpdatedOnB)
	fmt.Printf("  unchanged: %d\n", report.SkippedEqual)

	if len(report.SkippedInvalid) > 0 {
		fmt.Printf("  %s skipped (invalid timestamps): %v\n",
			ui.RenderWarn("⚠"), report.SkippedInvalid)
	}
	for _, f := range report.Failures {
		fmt.Printf("  %s %s %q failed: %s\n", ui.RenderFail("✗"), f.Kind, f.ID, f.Reason)
	}
}
