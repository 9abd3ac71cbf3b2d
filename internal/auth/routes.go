package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prephub/prephub-api/internal/middleware"
)

func SetupRoutes(h *Handler, validator middleware.TokenValidator, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Anonymous callers register students; an admin token allows role=admin.
	r.With(middleware.OptionalBearerAuth(validator)).Post("/register", h.Register)
	r.With(limiter.Middleware).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(validator))
		r.Get("/me", h.Me)
	})

	return r
}
