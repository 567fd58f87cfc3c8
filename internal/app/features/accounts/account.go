// internal/app/features/accounts/account.go
//
// Signed-in account management: current user, profile edits, password
// change, and the add-role flow.
package accounts

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/authutil"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "accounts.me")
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("load user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	httpjson.OK(w, map[string]any{"user": u})
}

type profileInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
	Department string `json:"department" validate:"max=100"`
	Year       string `json:"year" validate:"max=20"`
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in profileInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.update_profile")
	defer cancel()

	err := h.Users.UpdateProfile(ctx, su.ID, userstore.ProfileUpdate{
		Name:       in.Name,
		Phone:      in.Phone,
		Department: in.Department,
		Year:       in.Year,
	})
	if err != nil {
		h.Log.Error("update profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.Log.Error("reload user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Profile updated successfully", "user": u})
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ChangePassword handles POST /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in changePasswordInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.change_password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		httpjson.Error(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to change password")
		return
	}
	if err := h.Users.SetPasswordHash(ctx, su.ID, hash); err != nil {
		h.Log.Error("store password hash", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Password changed successfully"})
}

type addRoleInput struct {
	Role string `json:"role" validate:"required,oneof=donor recipient"`
}

// AddRole handles POST /api/auth/add-role. Granting the donor role also
// creates a placeholder donor profile that stays ineligible until the
// donor fills in blood group and weight.
func (h *Handler) AddRole(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in addRoleInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.add_role")
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if u.HasRole(in.Role) {
		httpjson.Error(w, http.StatusBadRequest, "You already have the "+in.Role+" role")
		return
	}

	if err := h.Users.AddRole(ctx, su.ID, in.Role); err != nil {
		h.Log.Error("add role", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to add role")
		return
	}

	if in.Role == models.RoleDonor {
		if _, err := h.Donors.CreatePlaceholder(ctx, su.ID); err != nil && !errors.Is(err, donorstore.ErrDuplicateProfile) {
			h.Log.Error("create placeholder donor profile", zap.Error(err))
		}
	}

	u, err = h.Users.GetByID(ctx, su.ID)
	if err != nil {
		h.Log.Error("reload user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to add role")
		return
	}

	// Reissue so the token carries the new role set.
	token, err := auth.Issuer().Issue(*u)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to add role")
		return
	}

	httpjson.OK(w, map[string]any{
		"message": "Role added successfully",
		"token":   token,
		"user":    u,
	})
}
