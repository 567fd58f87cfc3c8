// internal/app/features/claims/routes.go
package claims

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Routes returns the subrouter mounted at /api/donation-requests.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(dr chi.Router) {
		dr.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleDonor, models.RoleAdmin))
		dr.Post("/", h.Create)
		dr.Get("/my-requests", h.MyClaims)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleAdmin))
		ar.Get("/pending", h.ListPending)
		ar.Put("/{id}/verify", h.Verify)
		ar.Put("/{id}/reject", h.Reject)
	})

	return r
}
