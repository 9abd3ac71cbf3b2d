package courses

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prephub/prephub-api/internal/middleware"
)

func SetupRoutes(h *Handler, validator middleware.TokenValidator, roles middleware.RoleFetcher) http.Handler {
	r := chi.NewRouter()

	// Public routes - read-only catalogue
	r.Get("/", h.ListCourses)
	r.Get("/category/{category}", h.ListByCategory)
	r.Get("/{id}", h.GetCourse)

	// Admin routes - require an admin token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(validator))
		r.Use(middleware.AdminMiddleware(roles, h.log))

		r.Post("/", h.CreateCourse)
		r.Put("/{id}", h.UpdateCourse)
		r.Delete("/{id}", h.DeleteCourse)
	})

	return r
}
