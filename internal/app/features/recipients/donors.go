// internal/app/features/recipients/donors.go
//
// Donor browsing and donation confirmation for recipients.
package recipients

import (
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/blood"
	"github.com/openblood/donorhub/internal/domain/models"
)

// availableDonor is the recipient's view of a matching donor.
type availableDonor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	BloodGroup     string   `json:"blood_group"`
	City           string   `json:"city"`
	TotalDonations int      `json:"total_donations"`
	Badges         []string `json:"badges"`
}

// AvailableDonors handles GET /api/recipients/available-donors. Given a
// needed blood group, lists verified available donors whose group can
// serve it, optionally narrowed by city.
func (h *Handler) AvailableDonors(w http.ResponseWriter, r *http.Request) {
	group := normalize.BloodGroup(r.URL.Query().Get("bloodGroup"))
	if group == "" || !models.IsValidBloodGroup(group) {
		httpjson.Error(w, http.StatusBadRequest, "A valid bloodGroup query parameter is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recipients.available_donors")
	defer cancel()

	available := true
	verified := true
	page := paging.Parse(r)
	list, total, err := h.Donors.Search(ctx, donorstore.SearchFilter{
		Groups:    blood.CompatibleDonors(group),
		City:      normalize.QueryParam(r.URL.Query().Get("city")),
		Available: &available,
		Verified:  &verified,
	}, page)
	if err != nil {
		h.Log.Error("search compatible donors", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to search donors")
		return
	}

	now := time.Now()
	out := make([]availableDonor, 0, len(list))
	for _, d := range list {
		if !d.IsEligibleAt(now) {
			continue
		}
		name := ""
		if u, err := h.Users.GetByID(ctx, d.UserID); err == nil {
			name = u.Name
		}
		badges := make([]string, 0, len(d.Badges))
		for _, b := range d.Badges {
			badges = append(badges, b.Name)
		}
		out = append(out, availableDonor{
			ID:             d.ID.Hex(),
			Name:           name,
			BloodGroup:     d.BloodGroup,
			City:           d.Location.City,
			TotalDonations: d.TotalDonations,
			Badges:         badges,
		})
	}

	httpjson.OK(w, map[string]any{
		"donors":     out,
		"pagination": page.Meta(total),
	})
}

type completeDonationInput struct {
	RequestID string `json:"requestId" validate:"required"`
	DonorID   string `json:"donorId" validate:"required"`
	Units     int    `json:"units" validate:"required,gte=1,lte=10"`
}

// CompleteDonation handles POST /api/recipients/complete-donation. The
// requester confirms an accepted donor actually donated: units are
// appended to the request, the donor's history and badges update, and
// the donor is thanked.
func (h *Handler) CompleteDonation(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in completeDonationInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}
	requestID, err := primitive.ObjectIDFromHex(in.RequestID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}
	donorID, err := primitive.ObjectIDFromHex(in.DonorID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid donor id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recipients.complete_donation")
	defer cancel()

	req, err := h.Requests.CompleteDonation(ctx, requestID, su.ID, donorID, in.Units)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "Request not found")
		case errors.Is(err, requeststore.ErrNotOwner):
			httpjson.Error(w, http.StatusForbidden, "This request belongs to another user")
		case errors.Is(err, requeststore.ErrRequestClosed):
			httpjson.Error(w, http.StatusBadRequest, "This request is no longer open")
		case errors.Is(err, requeststore.ErrNoAcceptedMatch):
			httpjson.Error(w, http.StatusBadRequest, "This donor has not accepted the request")
		default:
			h.Log.Error("complete donation", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to record donation")
		}
		return
	}

	d, earned, err := h.Donors.RecordDonation(ctx, donorID, time.Now())
	if err != nil {
		h.Log.Error("record donation on donor", zap.String("donor_id", donorID.Hex()), zap.Error(err))
	}
	h.Notify.DonationCompleted(ctx, *req, donorID)

	resp := map[string]any{
		"message": "Donation recorded. Thank you!",
		"request": req,
	}
	if d != nil {
		resp["donorTotalDonations"] = d.TotalDonations
		resp["badgesEarned"] = earned
	}
	httpjson.OK(w, resp)
}
