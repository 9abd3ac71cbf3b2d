package jobs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prephub/prephub-api/internal/middleware"
)

// SetupRoutes serves the caller's own job tracker; every route needs a token.
func SetupRoutes(h *Handler, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.BearerAuth(validator))

	r.Get("/", h.ListJobs)
	r.Post("/", h.AddJob)

	return r
}
