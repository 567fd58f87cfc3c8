// internal/app/features/admin/donors.go
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// ListDonors returns a page of donor profiles for the admin console,
// filterable by blood group, city, and verified flag.
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := paging.Parse(r)

	f := donorstore.SearchFilter{
		BloodGroup: normalize.BloodGroup(q.Get("bloodGroup")),
		City:       normalize.QueryParam(q.Get("city")),
	}
	switch normalize.QueryParam(q.Get("verified")) {
	case "true":
		v := true
		f.Verified = &v
	case "false":
		v := false
		f.Verified = &v
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.donors.list")
	defer cancel()

	list, total, err := h.Donors.Search(ctx, f, page)
	if err != nil {
		h.Log.Error("list donors", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list donors")
		return
	}

	httpjson.OK(w, map[string]any{
		"donors":     list,
		"pagination": page.Meta(total),
	})
}

type donorVerifyInput struct {
	IsVerified *bool `json:"isVerified" validate:"required"`
}

// VerifyDonor sets or clears a donor profile's verified flag. Only
// verified donors appear in searches and receive request fan-out.
func (h *Handler) VerifyDonor(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid donor id")
		return
	}

	var in donorVerifyInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.donors.verify")
	defer cancel()

	if err := h.Donors.SetVerified(ctx, id, *in.IsVerified); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("verify donor", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update donor")
		return
	}

	d, err := h.Donors.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload donor", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update donor")
		return
	}
	h.Notify.DonorVerified(ctx, *d, *in.IsVerified)

	event := audit.EventDonorVerified
	msg := "Donor verified"
	if !*in.IsVerified {
		event = audit.EventDonorUnverified
		msg = "Donor verification removed"
	}
	h.recordAudit(ctx, audit.Event{EventType: event, ActorID: &su.ID, SubjectID: &d.UserID})
	httpjson.OK(w, map[string]any{
		"message": msg,
		"donor":   d,
	})
}
