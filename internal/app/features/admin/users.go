// internal/app/features/admin/users.go
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// ListUsers returns a page of users, filterable by role and a
// name/email search term.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.users.list")
	defer cancel()

	list, total, err := h.Users.List(ctx, userstore.ListFilter{
		Role:   normalize.QueryParam(r.URL.Query().Get("role")),
		Search: normalize.QueryParam(r.URL.Query().Get("search")),
	}, page)
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	httpjson.OK(w, map[string]any{
		"users":      list,
		"pagination": page.Meta(total),
	})
}

type userStatusInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// SetUserStatus activates or deactivates an account. A deactivated
// user cannot log in. Admins cannot deactivate themselves.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var in userStatusInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}
	if id == su.ID && !*in.IsActive {
		httpjson.Error(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin.users.status")
	defer cancel()

	if err := h.Users.SetActive(ctx, id, *in.IsActive); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("set user status", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update user status")
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update user status")
		return
	}

	event := audit.EventUserEnabled
	msg := "User activated"
	if !u.IsActive {
		event = audit.EventUserDisabled
		msg = "User deactivated"
	}
	h.recordAudit(ctx, audit.Event{EventType: event, ActorID: &su.ID, SubjectID: &u.ID})
	httpjson.OK(w, map[string]any{
		"message": msg,
		"user":    u,
	})
}
