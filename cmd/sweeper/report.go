package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Circulation reports",
	}

	cmd.AddCommand(newOverdueReportCmd())
	cmd.AddCommand(newUnpaidReportCmd())

	return cmd
}

func newOverdueReportCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List overdue loans with student and book details",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := connect()
			if err != nil {
				return err
			}
			defer svcs.close()

			rows, err := svcs.reports.OverdueLoans(context.Background())
			if err != nil {
				return fmt.Errorf("listing overdue loans: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}

			if len(rows) == 0 {
				color.Green("No overdue loans.")
				return nil
			}

			color.Red("%d overdue loan(s):", len(rows))

			for _, row := range rows {
				fmt.Printf("  %-12s %-24s %-32s due %s\n",
					row.StudentCode, row.StudentName, row.Title, row.DueAt.Format(time.DateOnly))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func newUnpaidReportCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "unpaid",
		Short: "List students with outstanding fines",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := connect()
			if err != nil {
				return err
			}
			defer svcs.close()

			rows, err := svcs.reports.UnpaidFines(context.Background())
			if err != nil {
				return fmt.Errorf("listing unpaid fines: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}

			if len(rows) == 0 {
				color.Green("No outstanding fines.")
				return nil
			}

			color.Yellow("%d student(s) with outstanding fines:", len(rows))

			for _, row := range rows {
				fmt.Printf("  %-12s %-24s %2d loan(s)  %8s\n",
					row.StudentCode, row.StudentName, row.Loans, row.Total.StringFixed(2))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
