// internal/app/features/claims/claims.go
package claims

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/claims"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/metrics"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type createClaimInput struct {
	DonatedAt string `json:"donationDate" validate:"required"`
	Location  string `json:"location" validate:"required,max=200"`
	Units     int    `json:"units" validate:"required,gte=1,lte=10"`
	Notes     string `json:"notes" validate:"max=1000"`
	RequestID string `json:"requestId"`
	CampID    string `json:"campId"`
}

// Create handles POST /api/donation-requests. Donors report a past
// donation; it counts toward their history once an admin verifies it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in createClaimInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	donatedAt, err := parseDate(in.DonatedAt)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid donationDate")
		return
	}
	if donatedAt.After(time.Now()) {
		httpjson.Error(w, http.StatusBadRequest, "donationDate cannot be in the future")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claims.create")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Complete your donor profile to report donations")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to submit claim")
		return
	}

	claim := models.DonationClaim{
		DonorID:   d.ID,
		UserID:    su.ID,
		DonatedAt: donatedAt,
		Location:  in.Location,
		Units:     in.Units,
		Notes:     htmlsanitize.StripTags(in.Notes),
	}
	if in.RequestID != "" {
		if id, err := primitive.ObjectIDFromHex(in.RequestID); err == nil {
			claim.RequestID = &id
		}
	}
	if in.CampID != "" {
		if id, err := primitive.ObjectIDFromHex(in.CampID); err == nil {
			claim.CampID = &id
		}
	}

	created, err := h.Claims.Create(ctx, claim)
	if err != nil {
		h.Log.Error("create claim", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to submit claim")
		return
	}

	httpjson.Created(w, map[string]any{
		"message": "Donation reported. It will count once an admin verifies it.",
		"claim":   created,
	})
}

// MyClaims handles GET /api/donation-requests/my-requests.
func (h *Handler) MyClaims(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claims.my_claims")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load claims")
		return
	}

	page := paging.Parse(r)
	list, total, err := h.Claims.ListForDonor(ctx, d.ID, page)
	if err != nil {
		h.Log.Error("list claims", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load claims")
		return
	}

	httpjson.OK(w, map[string]any{
		"claims":     list,
		"pagination": page.Meta(total),
	})
}

// ListPending handles the admin GET /api/donation-requests/pending,
// oldest first so the queue drains fairly.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claims.list_pending")
	defer cancel()

	page := paging.Parse(r)
	list, total, err := h.Claims.ListPending(ctx, page)
	if err != nil {
		h.Log.Error("list pending claims", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load claims")
		return
	}

	httpjson.OK(w, map[string]any{
		"claims":     list,
		"pagination": page.Meta(total),
	})
}

// Verify handles the admin PUT /api/donation-requests/{id}/verify.
// Approval stamps the donation on the donor's record and awards any
// badges the new total earns.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid claim id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claims.verify")
	defer cancel()

	claim, err := h.Claims.Verify(ctx, id, su.ID)
	if err != nil {
		h.respondReviewError(w, err)
		return
	}
	metrics.DonationVerified()

	d, earned, err := h.Donors.RecordDonation(ctx, claim.DonorID, claim.DonatedAt)
	if err != nil {
		h.Log.Error("record verified donation", zap.String("donor_id", claim.DonorID.Hex()), zap.Error(err))
	}
	h.Notify.ClaimReviewed(ctx, *claim, true)
	h.recordAudit(ctx, audit.Event{EventType: audit.EventClaimVerified, ActorID: &su.ID, SubjectID: &claim.ID})

	resp := map[string]any{
		"message": "Donation verified",
		"claim":   claim,
	}
	if d != nil {
		resp["donorTotalDonations"] = d.TotalDonations
		resp["badgesEarned"] = earned
	}
	httpjson.OK(w, resp)
}

type rejectInput struct {
	RejectionReason string `json:"rejectionReason" validate:"required,max=500"`
}

// Reject handles the admin PUT /api/donation-requests/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid claim id")
		return
	}

	var in rejectInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "claims.reject")
	defer cancel()

	claim, err := h.Claims.Reject(ctx, id, su.ID, in.RejectionReason)
	if err != nil {
		h.respondReviewError(w, err)
		return
	}
	h.Notify.ClaimReviewed(ctx, *claim, false)
	h.recordAudit(ctx, audit.Event{
		EventType: audit.EventClaimRejected,
		ActorID:   &su.ID,
		SubjectID: &claim.ID,
		Details:   map[string]string{"reason": in.RejectionReason},
	})

	httpjson.OK(w, map[string]any{
		"message": "Donation claim rejected",
		"claim":   claim,
	})
}

func (h *Handler) respondReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "Claim not found")
	case errors.Is(err, claimstore.ErrAlreadyReviewed):
		httpjson.Error(w, http.StatusBadRequest, "This claim has already been reviewed")
	default:
		h.Log.Error("review claim", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to review claim")
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
