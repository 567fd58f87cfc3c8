// internal/app/features/camps/routes.go
package camps

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Routes returns the subrouter mounted at /api/camps.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public browsing.
	r.Get("/", h.List)
	r.Get("/upcoming", h.Upcoming)

	// Donor roster actions.
	r.Group(func(dr chi.Router) {
		dr.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleDonor, models.RoleAdmin))
		dr.Get("/my-registrations", h.MyRegistrations)
		dr.Post("/{id}/register", h.Register)
		dr.Delete("/{id}/register", h.Unregister)
	})

	// Admin management.
	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleAdmin))
		ar.Post("/", h.Create)
		ar.Patch("/{id}", h.Patch)
		ar.Delete("/{id}", h.Delete)
	})

	r.Get("/{id}", h.Get)

	return r
}
