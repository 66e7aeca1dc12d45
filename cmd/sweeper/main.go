// Command sweeper is the daily cron-equivalent batch tool: it reclassifies
// borrowed loans past their due date as overdue, and prints the circulation
// reports a librarian checks alongside the sweep.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	loanStore "libris/internal/loan/store"
	patronStore "libris/internal/patron/store"
	reportStore "libris/internal/report/store"
	settingsStore "libris/internal/settings/store"

	"libris/internal/config"
	"libris/internal/database"
	"libris/internal/loan"
	"libris/internal/patron"
	"libris/internal/report"
	"libris/internal/settings"
)

type services struct {
	db      *sql.DB
	loans   *loan.Service
	reports *report.Service
}

func connect() (*services, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	settingsService := settings.NewService(settingsStore.New(db))
	patronService := patron.NewService(patronStore.New(db))

	return &services{
		db:      db,
		loans:   loan.NewService(loanStore.New(db), patronService, settingsService),
		reports: report.NewService(reportStore.New(db)),
	}, nil
}

func (s *services) close() {
	s.db.Close()
}

func main() {
	root := &cobra.Command{
		Use:           "sweeper",
		Short:         "Overdue sweep and circulation reports for the library database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSweepCmd())
	root.AddCommand(newReportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
