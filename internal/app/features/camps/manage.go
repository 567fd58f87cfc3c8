// internal/app/features/camps/manage.go
//
// Admin camp management: create, patch, delete.
package camps

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type campLocationInput struct {
	Address string `json:"address" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"max=100"`
	Pincode string `json:"pincode" validate:"max=10"`
}

type campRequirementsInput struct {
	MinAge      int      `json:"minAge" validate:"gte=0,lte=130"`
	MaxAge      int      `json:"maxAge" validate:"gte=0,lte=130"`
	MinWeightKG float64  `json:"minWeight" validate:"gte=0,lt=500"`
	Documents   []string `json:"documents" validate:"max=10,dive,max=100"`
}

type createCampInput struct {
	Name                string                `json:"name" validate:"required,max=200"`
	Description         string                `json:"description" validate:"max=2000"`
	Venue               string                `json:"venue" validate:"required,max=200"`
	Location            campLocationInput     `json:"location"`
	StartDate           string                `json:"startDate" validate:"required"`
	EndDate             string                `json:"endDate" validate:"required"`
	StartTime           string                `json:"startTime" validate:"max=10"`
	EndTime             string                `json:"endTime" validate:"max=10"`
	OrganizerName       string                `json:"organizerName" validate:"required,max=100"`
	OrganizerContact    string                `json:"organizerContact" validate:"max=100"`
	MaxParticipants     int                   `json:"maxParticipants" validate:"required,gte=1,lte=10000"`
	Requirements        campRequirementsInput `json:"requirements"`
	TargetBloodGroups   []string              `json:"targetBloodGroups" validate:"max=8,dive,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	SpecialInstructions string                `json:"specialInstructions" validate:"max=2000"`
	IsPublic            *bool                 `json:"isPublic"`
}

// Create handles the admin POST /api/camps. Public camps are announced
// to every verified donor.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in createCampInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	start, err := parseDate(in.StartDate)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid startDate")
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid endDate")
		return
	}
	if end.Before(start) {
		httpjson.Error(w, http.StatusBadRequest, "endDate must not be before startDate")
		return
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "camps.create")
	defer cancel()

	c, err := h.Camps.Create(ctx, models.DonationCamp{
		Name:        htmlsanitize.StripTags(in.Name),
		Description: htmlsanitize.StripTags(in.Description),
		Venue:       htmlsanitize.StripTags(in.Venue),
		Location: models.CampLocation{
			Address: in.Location.Address,
			City:    in.Location.City,
			State:   in.Location.State,
			Pincode: in.Location.Pincode,
		},
		StartDate: start,
		EndDate:   end,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Organizer: models.OrganizerInfo{
			Name:    in.OrganizerName,
			Contact: in.OrganizerContact,
			UserID:  &su.ID,
		},
		MaxParticipants: in.MaxParticipants,
		Requirements: models.CampRequirements{
			MinAge:      in.Requirements.MinAge,
			MaxAge:      in.Requirements.MaxAge,
			MinWeightKG: in.Requirements.MinWeightKG,
			Documents:   in.Requirements.Documents,
		},
		TargetBloodGroups:   in.TargetBloodGroups,
		SpecialInstructions: htmlsanitize.StripTags(in.SpecialInstructions),
		IsPublic:            isPublic,
	})
	if err != nil {
		h.Log.Error("create camp", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create camp")
		return
	}

	notified := h.Notify.CampCreated(ctx, c)
	h.recordAudit(ctx, audit.Event{EventType: audit.EventCampCreated, ActorID: &su.ID, SubjectID: &c.ID})

	httpjson.Created(w, map[string]any{
		"message":        "Camp created",
		"camp":           c,
		"donorsNotified": notified,
	})
}

type patchCampInput struct {
	Name                *string `json:"name" validate:"omitempty,max=200"`
	Description         *string `json:"description" validate:"omitempty,max=2000"`
	Venue               *string `json:"venue" validate:"omitempty,max=200"`
	StartDate           *string `json:"startDate"`
	EndDate             *string `json:"endDate"`
	StartTime           *string `json:"startTime" validate:"omitempty,max=10"`
	EndTime             *string `json:"endTime" validate:"omitempty,max=10"`
	MaxParticipants     *int    `json:"maxParticipants" validate:"omitempty,gte=1,lte=10000"`
	SpecialInstructions *string `json:"specialInstructions" validate:"omitempty,max=2000"`
	Status              *string `json:"status" validate:"omitempty,oneof=scheduled ongoing paused completed cancelled"`
	IsPublic            *bool   `json:"isPublic"`
}

// Patch handles the admin PATCH /api/camps/{id}. Only provided fields
// change; setting status to paused holds the camp's clock.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid camp id")
		return
	}

	var in patchCampInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	set := bson.M{}
	if in.Name != nil {
		set["name"] = htmlsanitize.StripTags(*in.Name)
	}
	if in.Description != nil {
		set["description"] = htmlsanitize.StripTags(*in.Description)
	}
	if in.Venue != nil {
		set["venue"] = htmlsanitize.StripTags(*in.Venue)
	}
	if in.StartDate != nil {
		start, err := parseDate(*in.StartDate)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid startDate")
			return
		}
		set["start_date"] = start
	}
	if in.EndDate != nil {
		end, err := parseDate(*in.EndDate)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid endDate")
			return
		}
		set["end_date"] = end
	}
	if in.StartTime != nil {
		set["start_time"] = *in.StartTime
	}
	if in.EndTime != nil {
		set["end_time"] = *in.EndTime
	}
	if in.MaxParticipants != nil {
		set["max_participants"] = *in.MaxParticipants
	}
	if in.SpecialInstructions != nil {
		set["special_instructions"] = htmlsanitize.StripTags(*in.SpecialInstructions)
	}
	if in.Status != nil {
		set["status"] = normalize.Status(*in.Status)
	}
	if in.IsPublic != nil {
		set["is_public"] = *in.IsPublic
	}
	if len(set) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.patch")
	defer cancel()

	c, err := h.Camps.Patch(ctx, id, set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Camp not found")
			return
		}
		h.Log.Error("patch camp", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update camp")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Camp updated", "camp": c})
}

// Delete handles the admin DELETE /api/camps/{id}. Donors still on the
// roster are notified.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid camp id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.delete")
	defer cancel()

	c, err := h.Camps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Camp not found")
			return
		}
		h.Log.Error("load camp", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete camp")
		return
	}

	roster, err := h.Camps.Delete(ctx, id)
	if err != nil {
		h.Log.Error("delete camp", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete camp")
		return
	}
	h.Notify.CampDeleted(ctx, *c, roster)
	h.recordAudit(ctx, audit.Event{
		EventType: audit.EventCampDeleted,
		ActorID:   &su.ID,
		SubjectID: &c.ID,
		Details:   map[string]string{"name": c.Name},
	})

	httpjson.OK(w, map[string]any{"message": "Camp deleted"})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
