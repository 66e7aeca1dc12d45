package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	catalogStore "libris/internal/catalog/store"
	loanStore "libris/internal/loan/store"
	patronStore "libris/internal/patron/store"
	reportStore "libris/internal/report/store"
	settingsStore "libris/internal/settings/store"

	"libris/internal/catalog"
	"libris/internal/config"
	"libris/internal/database"
	librisHttp "libris/internal/http"
	catalogHandler "libris/internal/http/catalog"
	loanHandler "libris/internal/http/loan"
	patronHandler "libris/internal/http/patron"
	reportHandler "libris/internal/http/report"
	settingsHandler "libris/internal/http/settings"
	"libris/internal/loan"
	"libris/internal/patron"
	"libris/internal/report"
	"libris/internal/settings"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	settingsRepo := settingsStore.New(db)
	if err := settingsRepo.EnsureDefaults(context.Background()); err != nil {
		slog.Error("failed to seed default settings", "error", err)
		os.Exit(1)
	}

	var (
		settingsService = settings.NewService(settingsRepo)
		catalogService  = catalog.NewService(catalogStore.New(db))
		patronService   = patron.NewService(patronStore.New(db))
		loanService     = loan.NewService(loanStore.New(db), patronService, settingsService)
		reportService   = report.NewService(reportStore.New(db))
	)

	var (
		loansH    = loanHandler.NewHandler(loanService)
		patronsH  = patronHandler.NewHandler(patronService, loanService)
		booksH    = catalogHandler.NewHandler(catalogService)
		settingsH = settingsHandler.NewHandler(settingsService)
		reportsH  = reportHandler.NewHandler(reportService)
	)

	router := librisHttp.New(loansH, patronsH, booksH, settingsH, reportsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
