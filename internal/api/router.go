package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		r.Get("/", apiHandler.RootHandler)
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/query", apiHandler.QueryHandler)
		r.Post("/clear-history", apiHandler.ClearHistoryHandler)
	})

	return r
}
