// internal/app/features/admin/announcement.go
package admin

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

type announcementInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Role     string `json:"targetRole" validate:"omitempty,oneof=donor recipient admin"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// Announce broadcasts a notification to every active, verified user
// holding the target role, or to everyone when no role is given.
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var in announcementInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "admin.announce")
	defer cancel()

	// Announcement bodies keep the small rich-text subset; titles are plain text.
	title := htmlsanitize.StripTags(in.Title)
	message := htmlsanitize.Sanitize(in.Message)

	sent, err := h.Notify.Broadcast(ctx, title, message, in.Role, in.Priority)
	if err != nil {
		h.Log.Error("broadcast announcement", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to send announcement")
		return
	}
	h.recordAudit(ctx, audit.Event{
		EventType: audit.EventAnnouncementSent,
		ActorID:   &su.ID,
		Details: map[string]string{
			"title":         title,
			"targetRole":    in.Role,
			"usersNotified": strconv.Itoa(sent),
		},
	})

	httpjson.OK(w, map[string]any{
		"message":       "Announcement sent",
		"usersNotified": sent,
	})
}
