package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	catalogHandler "libris/internal/http/catalog"
	loanHandler "libris/internal/http/loan"
	patronHandler "libris/internal/http/patron"
	reportHandler "libris/internal/http/report"
	settingsHandler "libris/internal/http/settings"
)

func New(
	loansV1 *loanHandler.Handler,
	patronsV1 *patronHandler.Handler,
	booksV1 *catalogHandler.Handler,
	settingsV1 *settingsHandler.Handler,
	reportsV1 *reportHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/loans", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			loansV1.Routes(r)
		})

		r.Route("/sweep", loansV1.SweepRoutes)

		r.Route("/students", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			patronsV1.Routes(r)
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			booksV1.Routes(r)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			settingsV1.Routes(r)
		})

		r.Route("/reports", reportsV1.Routes)
	})

	return router
}
