// internal/app/features/admin/routes.go
package admin

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Routes returns the subrouter mounted at /api/admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleAdmin))

	r.Get("/dashboard", h.Dashboard)
	r.Get("/analytics", h.Analytics)

	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}/status", h.SetUserStatus)

	r.Get("/donors", h.ListDonors)
	r.Put("/donors/{id}/verify", h.VerifyDonor)

	r.Get("/requests", h.ListRequests)
	r.Put("/requests/{id}/verify", h.VerifyRequest)

	r.Post("/announcement", h.Announce)

	r.Get("/audit-log", h.AuditLog)

	return r
}
