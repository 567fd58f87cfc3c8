// internal/app/features/recipients/requests.go
package recipients

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/htmlsanitize"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/metrics"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type patientInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Age      int    `json:"age" validate:"gte=0,lte=130"`
	Gender   string `json:"gender" validate:"max=20"`
	Relation string `json:"relation" validate:"max=50"`
}

type hospitalInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address" validate:"max=300"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"max=100"`
	Pincode       string `json:"pincode" validate:"max=10"`
	ContactPerson string `json:"contactPerson" validate:"max=100"`
}

type createRequestInput struct {
	BloodGroup    string        `json:"bloodGroup" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	UnitsRequired int           `json:"unitsRequired" validate:"required,gte=1,lte=20"`
	Urgency       string        `json:"urgency" validate:"required,oneof=low medium high critical"`
	Patient       patientInput  `json:"patient"`
	Hospital      hospitalInput `json:"hospital"`
	NeededBy      string        `json:"neededBy" validate:"required"`
	Description   string        `json:"description" validate:"max=1000"`
	ContactPhone  string        `json:"contactPhone" validate:"required,min=7,max=20"`
}

// CreateRequest handles POST /api/recipients/request. Creates the
// pending request and synchronously fans out notifications to every
// compatible donor in the hospital's city.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var in createRequestInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	neededBy, err := parseDate(in.NeededBy)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid neededBy date")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "recipients.create_request")
	defer cancel()

	req, err := h.Requests.Create(ctx, models.BloodRequest{
		RequesterID:   su.ID,
		BloodGroup:    in.BloodGroup,
		UnitsRequired: in.UnitsRequired,
		Urgency:       in.Urgency,
		Patient: models.PatientInfo{
			Name:     in.Patient.Name,
			Age:      in.Patient.Age,
			Gender:   in.Patient.Gender,
			Relation: in.Patient.Relation,
		},
		Hospital: models.HospitalInfo{
			Name:          in.Hospital.Name,
			Address:       in.Hospital.Address,
			City:          in.Hospital.City,
			State:         in.Hospital.State,
			Pincode:       in.Hospital.Pincode,
			ContactPerson: in.Hospital.ContactPerson,
		},
		NeededBy:     neededBy,
		Description:  htmlsanitize.StripTags(in.Description),
		ContactPhone: in.ContactPhone,
	})
	if err != nil {
		h.Log.Error("create blood request", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create request")
		return
	}
	metrics.RequestCreated(req.Urgency)

	notified := h.Notify.NewRequest(ctx, req)

	httpjson.Created(w, map[string]any{
		"message":        "Blood request created. Matching donors have been notified.",
		"request":        req,
		"matchingDonors": notified,
	})
}

// ListRequests handles GET /api/recipients/requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recipients.list_requests")
	defer cancel()

	page := paging.Parse(r)
	list, total, err := h.Requests.ListForRequester(ctx, su.ID, page)
	if err != nil {
		h.Log.Error("list requests", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}

	httpjson.OK(w, map[string]any{
		"requests":   list,
		"pagination": page.Meta(total),
	})
}

// GetRequest handles GET /api/recipients/requests/{id}. Owners only.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "recipients.get_request")
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
	if req.RequesterID != su.ID {
		httpjson.Error(w, http.StatusForbidden, "This request belongs to another user")
		return
	}

	httpjson.OK(w, map[string]any{"request": req})
}

type updateRequestInput struct {
	UnitsRequired int           `json:"unitsRequired" validate:"required,gte=1,lte=20"`
	Urgency       string        `json:"urgency" validate:"required,oneof=low medium high critical"`
	NeededBy      string        `json:"neededBy" validate:"required"`
	Description   string        `json:"description" validate:"max=1000"`
	ContactPhone  string        `json:"contactPhone" validate:"required,min=7,max=20"`
	Hospital      hospitalInput `json:"hospital"`
}

// UpdateRequest handles PUT /api/recipients/requests/{id}. Completed
// and cancelled requests cannot be changed.
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var in updateRequestInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}
	neededBy, err := parseDate(in.NeededBy)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid neededBy date")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recipients.update_request")
	defer cancel()

	req, err := h.Requests.Update(ctx, id, su.ID, requeststore.Update{
		UnitsRequired: in.UnitsRequired,
		Urgency:       in.Urgency,
		NeededBy:      neededBy,
		Description:   htmlsanitize.StripTags(in.Description),
		ContactPhone:  in.ContactPhone,
		Hospital: models.HospitalInfo{
			Name:          in.Hospital.Name,
			Address:       in.Hospital.Address,
			City:          in.Hospital.City,
			State:         in.Hospital.State,
			Pincode:       in.Hospital.Pincode,
			ContactPerson: in.Hospital.ContactPerson,
		},
	})
	if err != nil {
		h.respondRequestError(w, err, "Failed to update request")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Request updated", "request": req})
}

// CancelRequest handles DELETE /api/recipients/requests/{id}. Accepted
// donors are notified of the cancellation.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recipients.cancel_request")
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Request not found")
			return
		}
		h.Log.Error("load request", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to cancel request")
		return
	}

	acceptedDonors, err := h.Requests.Cancel(ctx, id, su.ID)
	if err != nil {
		h.respondRequestError(w, err, "Failed to cancel request")
		return
	}
	h.Notify.RequestCancelled(ctx, *req, acceptedDonors)

	httpjson.OK(w, map[string]any{"message": "Request cancelled"})
}

func (h *Handler) respondRequestError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "Request not found")
	case errors.Is(err, requeststore.ErrNotOwner):
		httpjson.Error(w, http.StatusForbidden, "This request belongs to another user")
	case errors.Is(err, requeststore.ErrCannotModify):
		httpjson.Error(w, http.StatusBadRequest, "A completed or cancelled request cannot be changed")
	default:
		h.Log.Error(fallback, zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, fallback)
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
