package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"libris/internal/loan"
)

func newSweepCmd() *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark borrowed loans past their due date as overdue",
		Long: `Mark every borrowed loan whose due date has passed as overdue.

The sweep is idempotent: rows it has already flipped no longer match, so a
second run in the same day reports zero changes.

Examples:
  sweeper sweep             Run the sweep
  sweeper sweep --dry-run   Show what would change without touching anything
  sweeper sweep --json      Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := connect()
			if err != nil {
				return err
			}
			defer svcs.close()

			result, err := svcs.loans.Sweep(context.Background(), time.Now(), dryRun)
			if err != nil {
				return fmt.Errorf("running sweep: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(result)
			}

			printSweepResult(result)

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview affected loans without updating them")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func printSweepResult(result loan.SweepResult) {
	if result.Count == 0 {
		color.Green("Nothing to sweep - no borrowed loans are past due.")
		return
	}

	if result.DryRun {
		color.Yellow("Dry run: %d loan(s) would be marked overdue:", result.Count)

		for _, l := range result.Loans {
			fmt.Printf("  %s  student=%s book=%s due=%s\n",
				l.ID, l.StudentID, l.BookID, l.DueAt.Format(time.DateOnly))
		}

		return
	}

	color.Red("Marked %d loan(s) overdue.", result.Count)
}
