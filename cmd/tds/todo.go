package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <content>",
	GroupID: "todo",
	Short:   "Add a todo to the local replica",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		pair := openReplicas(cfg, quietLogger())
		defer pair.Close()

		record := todo.New(strings.Join(args, " "))
		created, err := pair.local.Create(context.Background(), record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Added %s %s\n", ui.RenderPass("✓"),
			ui.RenderDim(shortID(created.ID)), created.Content)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "todo",
	Short:   "List todos in the local replica",
	Run: func(cmd *cobra.Command, args []string) {
		showAll, _ := cmd.Flags().GetBool("all")
		cfg := loadConfig(cmd)
		pair := openReplicas(cfg, quietLogger())
		defer pair.Close()

		records, err := pair.local.List(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		shown := 0
		for _, r := range records {
			if r.Completed && !showAll {
				continue
			}
			marker := ui.RenderDim("·")
			if r.Completed {
				marker = ui.RenderPass("✓")
			}
			fmt.Printf("  %s %s %s\n", marker, ui.RenderDim(shortID(r.ID)), r.Content)
			shown++
		}

		if shown == 0 {
			fmt.Printf("%s Nothing to do\n", ui.RenderPass("✓"))
		}
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <id>",
	GroupID: "todo",
	Short:   "Mark a todo as completed",
	Long: `Mark a todo as completed. The id may be abbreviated to any
unique prefix.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		pair := openReplicas(cfg, quietLogger())
		defer pair.Close()

		ctx := context.Background()
		record, err := findByPrefix(ctx, pair.local, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if record.Completed {
			fmt.Printf("%s Already done: %s\n", ui.RenderDim("·"), record.Content)
			return
		}

		record.Completed = true
		record.Touch()

		if _, err := pair.local.Update(ctx, record); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Done: %s\n", ui.RenderPass("✓"), record.Content)
	},
}

// findByPrefix resolves an abbreviated record id.
func findByPrefix(ctx context.Context, acc replica.Accessor, prefix string) (*todo.Record, error) {
	records, err := acc.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*todo.Record
	for _, r := range records {
		if r.ID == prefix {
			return r, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no todo matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	listCmd.Flags().BoolP("all", "a", false, "Include completed todos")
	rootCmd.AddCommand(addCmd, listCmd, doneCmd)
}
