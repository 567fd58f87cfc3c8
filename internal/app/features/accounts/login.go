// internal/app/features/accounts/login.go
package accounts

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/authutil"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/ratelimit"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. Requires an active account with a
// verified email; an unverified account gets a 400 carrying
// requireVerification so the client can route to the OTP screen.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	email := normalize.Email(in.Email)
	if ok, reason := h.LoginLimiter.Check(r, email); !ok {
		httpjson.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.login")
	defer cancel()

	ip := ratelimit.ClientIP(r)

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		h.recordAudit(ctx, audit.Event{
			EventType: audit.EventLoginFailed,
			IP:        ip,
			Details:   map[string]string{"reason": "unknown email"},
		})
		httpjson.Error(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		h.recordAudit(ctx, audit.Event{
			EventType: audit.EventLoginFailed,
			SubjectID: &u.ID,
			IP:        ip,
			Details:   map[string]string{"reason": "wrong password"},
		})
		httpjson.Error(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if !u.IsActive {
		httpjson.Error(w, http.StatusForbidden, "Account is deactivated. Please contact support.")
		return
	}
	if !u.IsEmailVerified {
		httpjson.Respond(w, http.StatusBadRequest, map[string]any{
			"message":             "Please verify your email before logging in",
			"requireVerification": true,
			"email":               u.Email,
		})
		return
	}

	token, err := auth.Issuer().Issue(*u)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("touch last login", zap.Error(err))
	}
	h.LoginLimiter.ResetEmail(email)
	h.recordAudit(ctx, audit.Event{
		EventType: audit.EventLoginSuccess,
		SubjectID: &u.ID,
		IP:        ip,
	})

	httpjson.OK(w, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    u,
	})
}
