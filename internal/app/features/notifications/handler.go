// internal/app/features/notifications/handler.go
//
// Package notifications serves the signed-in user's in-app inbox.
// Mounted under /api/notifications.
package notifications

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/notifications"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// Handler holds dependencies for the notification endpoints.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	Notifications *notificationstore.Store
}

// NewHandler constructs a notifications Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		Notifications: notificationstore.New(db),
	}
}

// List handles GET /api/notifications: a page of the user's inbox plus
// the unread count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notifications.list")
	defer cancel()

	page := paging.Parse(r)
	list, total, err := h.Notifications.ListForUser(ctx, su.ID, page)
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}
	unread, err := h.Notifications.UnreadCount(ctx, su.ID)
	if err != nil {
		h.Log.Error("count unread notifications", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	httpjson.OK(w, map[string]any{
		"notifications": list,
		"unreadCount":   unread,
		"pagination":    page.Meta(total),
	})
}

// MarkRead handles PUT /api/notifications/{id}/read. Users can only
// touch their own notifications.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications.mark_read")
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, su.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.Log.Error("mark notification read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Notification marked as read"})
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notifications.mark_all_read")
	defer cancel()

	n, err := h.Notifications.MarkAllRead(ctx, su.ID)
	if err != nil {
		h.Log.Error("mark all notifications read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	httpjson.OK(w, map[string]any{
		"message":     "All notifications marked as read",
		"markedCount": n,
	})
}

// Delete handles DELETE /api/notifications/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications.delete")
	defer cancel()

	if err := h.Notifications.Delete(ctx, id, su.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.Log.Error("delete notification", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Notification deleted"})
}
