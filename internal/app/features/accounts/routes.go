// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/openblood/donorhub/internal/app/system/auth"
)

// Routes returns the subrouter mounted at /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Get("/verify-email", h.VerifyEmailLink)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/login", h.Login)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/me", h.Me)
		pr.Put("/profile", h.UpdateProfile)
		pr.Post("/change-password", h.ChangePassword)
		pr.Post("/add-role", h.AddRole)
	})

	return r
}
