// internal/app/features/camps/register.go
//
// Donor roster registration.
package camps

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/camps"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

type registerInput struct {
	SlotTime string `json:"slotTime" validate:"max=10"`
}

// Register handles POST /api/camps/{id}/register. The donor must have
// a complete, eligible profile; the roster guard enforces capacity and
// duplicates atomically.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	campID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid camp id")
		return
	}

	var in registerInput
	if r.ContentLength > 0 && !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.register")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Complete your donor profile to register for camps")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to register")
		return
	}
	if reasons := d.EligibilityAt(time.Now()); len(reasons) > 0 {
		httpjson.Error(w, http.StatusBadRequest, "Not eligible to donate: "+strings.Join(reasons, "; "))
		return
	}

	c, err := h.Camps.Register(ctx, campID, d.ID, in.SlotTime)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "Camp not found")
		case errors.Is(err, campstore.ErrAlreadyRegistered):
			httpjson.Error(w, http.StatusBadRequest, "You are already registered for this camp")
		case errors.Is(err, campstore.ErrCampFull):
			httpjson.Error(w, http.StatusBadRequest, "This camp has reached its maximum number of participants")
		case errors.Is(err, campstore.ErrRegistrationClosed):
			httpjson.Error(w, http.StatusBadRequest, "Registration for this camp is closed")
		default:
			h.Log.Error("register for camp", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to register")
		}
		return
	}

	donorName := "A donor"
	if u, err := h.Users.GetByID(ctx, su.ID); err == nil {
		donorName = u.Name
	}
	h.Notify.CampRegistered(ctx, *c, donorName)

	httpjson.OK(w, map[string]any{
		"message":   "Registered for camp. See you there!",
		"camp":      c,
		"slotsLeft": c.SlotsLeft(),
	})
}

// Unregister handles DELETE /api/camps/{id}/register.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	campID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid camp id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.unregister")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to unregister")
		return
	}

	if err := h.Camps.Unregister(ctx, campID, d.ID); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "Camp not found")
		case errors.Is(err, campstore.ErrNotRegistered):
			httpjson.Error(w, http.StatusBadRequest, "You are not registered for this camp")
		default:
			h.Log.Error("unregister from camp", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to unregister")
		}
		return
	}

	httpjson.OK(w, map[string]any{"message": "Registration cancelled"})
}

// MyRegistrations handles GET /api/camps/my-registrations, the camps a
// donor has signed up for.
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.my_registrations")
	defer cancel()

	d, err := h.Donors.GetByUserID(ctx, su.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Donor profile not found")
			return
		}
		h.Log.Error("load donor profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load registrations")
		return
	}

	page := paging.Parse(r)
	list, total, err := h.Camps.RegisteredCamps(ctx, d.ID, page)
	if err != nil {
		h.Log.Error("load registered camps", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load registrations")
		return
	}

	httpjson.OK(w, map[string]any{
		"camps":      list,
		"pagination": page.Meta(total),
	})
}
