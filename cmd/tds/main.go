// Command tds keeps two replicas of a todo collection converged.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "tds",
	Short: "Two-replica todo synchronizer",
	Long: `tds reconciles two replicas of a todo collection using
last-writer-wins on each record's updated_at timestamp.

Replicas are configured in todosync.yaml (see "tds init"): a local
file or SQLite store and a remote SQLite or HTTP store. Records are
never deleted by a sync; the newest copy of each record simply wins.`,
	Version: version,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync commands:"},
		&cobra.Group{ID: "todo", Title: "Todo commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced commands:"},
	)

	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./todosync.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
