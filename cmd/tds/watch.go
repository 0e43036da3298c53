package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kestrel-tools/todosync/internal/config"
	"github.com/kestrel-tools/todosync/internal/daemon"
	"github.com/kestrel-tools/todosync/internal/dashboard"
	"github.com/kestrel-tools/todosync/internal/history"
	"github.com/kestrel-tools/todosync/internal/reconcile"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Run the background sync daemon",
	Long: `Keep the replicas converged continuously.

The daemon syncs on startup, whenever files in the local replica
directory change (debounced), and on a periodic interval as a safety
net. Every run is appended to the sync history. Logs rotate in the
configured log file.

With --dashboard, a WebSocket server broadcasts a message after each
run so clients can watch convergence live.`,
	Run: func(cmd *cobra.Command, args []string) {
		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		cfg := loadConfig(cmd)

		logger := log.New(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Watch.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}), "[watch] ", log.LstdFlags)

		pair := openReplicas(cfg, logger)
		defer pair.Close()

		rec := newReconciler(cfg, pair, logger)

		var hub *dashboard.Server
		if withDashboard {
			hub = dashboard.NewServer(&dashboard.Config{
				Addr:   cfg.Serve.DashboardAddr,
				Logger: logger,
			})
			if err := hub.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
				os.Exit(1)
			}
			defer hub.Stop()
			fmt.Printf("%s Dashboard: ws://%s/ws\n", ui.RenderAccent("📡"), hub.Addr())
		}

		var store *history.Store
		if cfg.History != "" {
			var err error
			store, err = history.Open(cfg.History)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
			} else {
				defer store.Close()
			}
		}

		daemonConfig := &daemon.Config{
			Mode:             reconcile.ModeTwoWay,
			SyncInterval:     cfg.Watch.Interval,
			DebounceInterval: cfg.Watch.Debounce,
			Logger:           logger,
			OnReport: func(report *reconcile.Report) {
				if store != nil {
					if err := store.Record(context.Background(), report); err != nil {
						logger.Printf("Failed to record history: %v", err)
					}
				}
				if hub != nil {
					hub.BroadcastReport(report)
				}
			},
		}

		// Only a file-backed local replica has a directory to watch;
		// other backends rely on the periodic interval.
		watchDir := ""
		if cfg.Local.Type == config.TypeFile {
			watchDir = cfg.Local.Path
			if err := os.MkdirAll(watchDir, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		d, err := daemon.New(rec, watchDir, daemonConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Watching %s <-> %s (every %v)\n", ui.RenderAccent("🚀"),
			pair.local.Name(), pair.remote.Name(), cfg.Watch.Interval)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().Bool("dashboard", false, "Broadcast sync events over WebSocket")
	rootCmd.AddCommand(watchCmd)
}
