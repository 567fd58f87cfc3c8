// internal/app/features/admin/requests.go
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// ListRequests returns a page of blood requests for the admin console,
// filterable by status, blood group, and verified flag.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := paging.Parse(r)

	f := requeststore.AdminFilter{
		Status:     normalize.QueryParam(q.Get("status")),
		BloodGroup: normalize.BloodGroup(q.Get("bloodGroup")),
	}
	switch normalize.QueryParam(q.Get("verified")) {
	case "true":
		v := true
		f.Verified = &v
	case "false":
		v := false
		f.Verified = &v
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.requests.list")
	defer cancel()

	list, total, err := h.Requests.ListAdmin(ctx, f, page)
	if err != nil {
		h.Log.Error("list requests", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list requests")
		return
	}

	httpjson.OK(w, map[string]any{
		"requests":   list,
		"pagination": page.Meta(total),
	})
}

type requestVerifyInput struct {
	IsVerified *bool `json:"isVerified" validate:"required"`
}

// VerifyRequest sets or clears a request's verified flag. Unverified
// requests stay out of the donor feed; fan-out notifications have
// already gone out at creation.
func (h *Handler) VerifyRequest(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var in requestVerifyInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.requests.verify")
	defer cancel()

	req, err := h.Requests.SetVerified(ctx, id, su.ID, *in.IsVerified)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Request not found")
			return
		}
		h.Log.Error("verify request", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update request")
		return
	}
	h.Notify.RequestVerified(ctx, *req, *in.IsVerified)

	event := audit.EventRequestVerified
	msg := "Request verified"
	if !*in.IsVerified {
		event = audit.EventRequestUnverified
		msg = "Request verification removed"
	}
	h.recordAudit(ctx, audit.Event{EventType: event, ActorID: &su.ID, SubjectID: &req.ID})
	httpjson.OK(w, map[string]any{
		"message": msg,
		"request": req,
	})
}
