// internal/app/features/donors/profile.go
package donors

import (
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type medicalInput struct {
	Diabetes     bool   `json:"diabetes"`
	Hypertension bool   `json:"hypertension"`
	HeartDisease bool   `json:"heartDisease"`
	Hepatitis    bool   `json:"hepatitis"`
	HIV          bool   `json:"hiv"`
	Other        string `json:"other" validate:"max=500"`
}

type locationInput struct {
	Address string `json:"address" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"max=100"`
	Pincode string `json:"pincode" validate:"max=10"`
}

type emergencyInput struct {
	Name  string `json:"name" validate:"max=100"`
	Phone string `json:"phone" validate:"max=20"`
}

type profileInput struct {
	BloodGroup        string         `json:"bloodGroup" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	DateOfBirth       string         `json:"dateOfBirth" validate:"required"`
	WeightKG          float64        `json:"weight" validate:"required,gt=0,lt=500"`
	HeightCM          float64        `json:"height" validate:"gte=0,lt=300"`
	IsAvailable       bool           `json:"isAvailable"`
	AvailabilityNotes string         `json:"availabilityNotes" validate:"max=500"`
	Medical           medicalInput   `json:"medicalConditions"`
	Location          locationInput  `json:"location"`
	Emergency         emergencyInput `json:"emergencyContact"`
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// UpsertProfile handles POST /api/donors/profile. Creates the profile
// on first submit and rewrites the editable fields afterwards.
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in profileInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid date of birth")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.upsert_profile")
	defer cancel()

	d, err := h.Donors.Upsert(ctx, su.ID, donorstore.ProfileUpdate{
		BloodGroup:        in.BloodGroup,
		DateOfBirth:       dob,
		WeightKG:          in.WeightKG,
		HeightCM:          in.HeightCM,
		IsAvailable:       in.IsAvailable,
		AvailabilityNotes: htmlsanitize.StripTags(in.AvailabilityNotes),
		Medical: models.MedicalConditions{
			Diabetes:     in.Medical.Diabetes,
			Hypertension: in.Medical.Hypertension,
			HeartDisease: in.Medical.HeartDisease,
			Hepatitis:    in.Medical.Hepatitis,
			HIV:          in.Medical.HIV,
			Other:        htmlsanitize.StripTags(in.Medical.Other),
		},
		Location: models.DonorLocation{
			Address: in.Location.Address,
			City:    in.Location.City,
			State:   in.Location.State,
			Pincode: in.Location.Pincode,
		},
		Emergency: models.EmergencyContact{
			Name:  in.Emergency.Name,
			Phone: in.Emergency.Phone,
		},
	})
	if err != nil {
		h.Log.Error("upsert donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to save donor profile")
		return
	}

	httpjson.OK(w, map[string]any{
		"message":     "Donor profile saved",
		"donor":       d,
		"eligible":    d.IsEligibleAt(time.Now()),
		"eligibility": d.EligibilityAt(time.Now()),
	})
}

// GetProfile handles GET /api/donors/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "donors.get_profile")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load donor profile")
		return
	}

	now := time.Now()
	httpjson.OK(w, map[string]any{
		"donor":            d,
		"eligible":         d.IsEligibleAt(now),
		"eligibility":      d.EligibilityAt(now),
		"nextEligibleDate": d.NextEligibleDate(),
	})
}

type availabilityInput struct {
	IsAvailable bool   `json:"isAvailable"`
	Notes       string `json:"notes" validate:"max=500"`
}

// SetAvailability handles PUT /api/donors/availability.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in availabilityInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.set_availability")
	defer cancel()

	if err := h.Donors.SetAvailability(ctx, su.ID, in.IsAvailable, htmlsanitize.StripTags(in.Notes)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("set availability", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update availability")
		return
	}

	httpjson.OK(w, map[string]any{
		"message":     "Availability updated",
		"isAvailable": in.IsAvailable,
	})
}

// eligibleDonor is the public view of a donor in search results. No
// contact details, no medical history.
type eligibleDonor struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	BloodGroup     string     `json:"blood_group"`
	City           string     `json:"city"`
	TotalDonations int        `json:"total_donations"`
	Badges         []string   `json:"badges"`
	LastDonation   *time.Time `json:"last_donation_date,omitempty"`
}

// ListEligible handles the public GET /api/donors/eligible. Matches
// blood group exactly and city by substring, then filters by the
// screening rules.
func (h *Handler) ListEligible(w http.ResponseWriter, r *http.Request) {
	group := normalize.BloodGroup(r.URL.Query().Get("bloodGroup"))
	if group != "" && !models.IsValidBloodGroup(group) {
		httpjson.Error(w, http.StatusBadRequest, "Invalid blood group")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "donors.list_eligible")
	defer cancel()

	available := true
	verified := true
	page := paging.Parse(r)
	list, total, err := h.Donors.Search(ctx, donorstore.SearchFilter{
		BloodGroup: group,
		City:       normalize.QueryParam(r.URL.Query().Get("city")),
		Available:  &available,
		Verified:   &verified,
	}, page)
	if err != nil {
		h.Log.Error("search donors", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to search donors")
		return
	}

	now := time.Now()
	out := make([]eligibleDonor, 0, len(list))
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
		out = append(out, eligibleDonor{
			ID:             d.ID.Hex(),
			Name:           name,
			BloodGroup:     d.BloodGroup,
			City:           d.Location.City,
			TotalDonations: d.TotalDonations,
			Badges:         badges,
			LastDonation:   d.LastDonationDate,
		})
	}

	httpjson.OK(w, map[string]any{
		"donors":     out,
		"pagination": page.Meta(total),
	})
}
