// internal/app/features/donors/routes.go
package donors

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Routes returns the subrouter mounted at /api/donors.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public donor directory.
	r.Get("/eligible", h.ListEligible)

	r.Group(func(dr chi.Router) {
		dr.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleDonor, models.RoleAdmin))
		dr.Post("/profile", h.UpsertProfile)
		dr.Get("/profile", h.GetProfile)
		dr.Put("/availability", h.SetAvailability)
		dr.Get("/requests", h.ListRequests)
		dr.Get("/requests/{id}", h.GetRequest)
		dr.Post("/respond-request", h.Respond)
		dr.Get("/history", h.History)
	})

	return r
}
