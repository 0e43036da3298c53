package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/config"
	"github.com/kestrel-tools/todosync/internal/history"
	"github.com/kestrel-tools/todosync/internal/reconcile"
	"github.com/kestrel-tools/todosync/internal/replica"
)

// loadConfig reads the config honoring the --config flag.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// replicaPair holds both configured accessors and their cleanup.
type replicaPair struct {
	local   replica.Accessor
	remote  replica.Accessor
	closers []func() error
}

func (p *replicaPair) Close() {
	for _, c := range p.closers {
		_ = c()
	}
}

// openReplicas builds both accessors from the config.
func openReplicas(cfg *config.Config, logger *log.Logger) *replicaPair {
	local, closeLocal, err := config.BuildAccessor(cfg.Local, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	remote, closeRemote, err := config.BuildAccessor(cfg.Remote, logger)
	if err != nil {
		_ = closeLocal()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return &replicaPair{
		local:   local,
		remote:  remote,
		closers: []func() error{closeLocal, closeRemote},
	}
}

// newReconciler builds the reconciler with the configured retry policy.
func newReconciler(cfg *config.Config, pair *replicaPair, logger *log.Logger) *reconcile.Reconciler {
	attempts, backoff, timeout := cfg.RetryPolicy()
	return reconcile.New(pair.local, pair.remote, &reconcile.Options{
		Retry: reconcile.RetryPolicy{
			Attempts:    attempts,
			Backoff:     backoff,
			CallTimeout: timeout,
		},
		Logger: logger,
	})
}

// quietLogger suppresses reconciler chatter for read-only commands.
func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// recordRun appends the report to the history store. History failures
// are warnings; the sync itself already happened.
func recordRun(ctx context.Context, cfg *config.Config, report *reconcile.Report) {
	if report == nil || cfg.History == "" {
		return
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open history: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, report); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
	}
}
