// internal/app/features/donors/feed.go
//
// The open-request feed and response flow for donors.
package donors

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/metrics"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/blood"
)

// ListRequests handles GET /api/donors/requests. Shows verified open
// requests the donor's blood group can serve, with optional urgency and
// city filters.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.list_requests")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Complete your donor profile to see requests")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}

	page := paging.Parse(r)
	list, total, err := h.Requests.OpenForDonor(ctx, requeststore.DonorFeedFilter{
		Groups:  blood.CompatibleRecipients(d.BloodGroup),
		Urgency: normalize.QueryParam(r.URL.Query().Get("urgency")),
		City:    normalize.QueryParam(r.URL.Query().Get("city")),
	}, page)
	if err != nil {
		h.Log.Error("list open requests", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}

	httpjson.OK(w, map[string]any{
		"requests":   list,
		"pagination": page.Meta(total),
	})
}

// GetRequest handles GET /api/donors/requests/{id}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "donors.get_request")
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Request not found")
			return
		}
		h.Log.Error("load request", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load request")
		return
	}

	httpjson.OK(w, map[string]any{"request": req})
}

type respondInput struct {
	RequestID string `json:"requestId" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=accept decline"`
}

// Respond handles POST /api/donors/respond-request. Accepting requires
// an available, eligible donor; the first accept moves the request from
// pending to matched and notifies the requester.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in respondInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}
	requestID, err := primitive.ObjectIDFromHex(in.RequestID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	accept := in.Action == "accept"

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.respond")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Complete your donor profile to respond")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to respond")
		return
	}

	// Ineligible or unavailable donors cannot respond at all, declines
	// included.
	if !d.IsAvailable {
		httpjson.Error(w, http.StatusBadRequest, "You are currently marked unavailable")
		return
	}
	if reasons := d.EligibilityAt(time.Now()); len(reasons) > 0 {
		httpjson.Error(w, http.StatusBadRequest, "Not eligible to donate: "+strings.Join(reasons, "; "))
		return
	}

	req, err := h.Requests.Respond(ctx, requestID, d.ID, accept)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "Request not found")
		case errors.Is(err, requeststore.ErrRequestClosed):
			httpjson.Error(w, http.StatusBadRequest, "This request is no longer open")
		case errors.Is(err, requeststore.ErrAlreadyResponded):
			httpjson.Error(w, http.StatusBadRequest, "You have already responded to this request")
		default:
			h.Log.Error("respond to request", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to respond")
		}
		return
	}
	metrics.DonorResponded(in.Action)

	if accept {
		donorName := "A donor"
		if u, err := h.Users.GetByID(ctx, su.ID); err == nil {
			donorName = u.Name
		}
		h.Notify.DonorAccepted(ctx, *req, donorName)
	}

	msg := "Response recorded. Thank you!"
	if accept {
		msg = "Thank you for accepting! The requester has been notified."
	}
	httpjson.OK(w, map[string]any{
		"message": msg,
		"request": req,
	})
}

// History handles GET /api/donors/history. Lists the requests this
// donor has responded to, plus completed donation details.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.history")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	page := paging.Parse(r)
	list, total, err := h.Requests.HistoryForDonor(ctx, d.ID, page)
	if err != nil {
		h.Log.Error("load donor history", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	httpjson.OK(w, map[string]any{
		"history":        list,
		"totalDonations": d.TotalDonations,
		"badges":         d.Badges,
		"lastDonation":   d.LastDonationDate,
		"nextEligibleOn": d.NextEligibleDate(),
		"pagination":     page.Meta(total),
	})
}
