package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/config"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "advanced",
	Short:   "Write a starter todosync.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(config.FileName); err == nil && !force {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n",
				config.FileName)
			os.Exit(1)
		}

		data, err := config.Starter()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := os.WriteFile(config.FileName, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), config.FileName)
		fmt.Println("Edit the replica definitions, then run \"tds sync\".")
	},
}

func init() {
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
