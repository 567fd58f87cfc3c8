// internal/app/features/recipients/routes.go
package recipients

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Routes returns the subrouter mounted at /api/recipients.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleRecipient, models.RoleAdmin))

	r.Post("/request", h.CreateRequest)
	r.Get("/requests", h.ListRequests)
	r.Get("/requests/{id}", h.GetRequest)
	r.Put("/requests/{id}", h.UpdateRequest)
	r.Delete("/requests/{id}", h.CancelRequest)
	r.Get("/available-donors", h.AvailableDonors)
	r.Post("/complete-donation", h.CompleteDonation)

	return r
}
