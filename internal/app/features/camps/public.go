// internal/app/features/camps/public.go
//
// Public camp browsing endpoints.
package camps

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/camps"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// List handles GET /api/camps. Sweeps overdue statuses first so the
// stored statuses read true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.list")
	defer cancel()

	page := paging.Parse(r)
	list, total, err := h.Camps.List(ctx, campstore.ListFilter{
		Status:     normalize.QueryParam(r.URL.Query().Get("status")),
		City:       normalize.QueryParam(r.URL.Query().Get("city")),
		PublicOnly: true,
	}, page)
	if err != nil {
		h.Log.Error("list camps", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load camps")
		return
	}

	httpjson.OK(w, map[string]any{
		"camps":      list,
		"pagination": page.Meta(total),
	})
}

// Upcoming handles GET /api/camps/upcoming: public scheduled camps
// that have not started yet, soonest first.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "camps.upcoming")
	defer cancel()

	page := paging.Parse(r)
	list, total, err := h.Camps.Upcoming(ctx, page)
	if err != nil {
		h.Log.Error("list upcoming camps", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load camps")
		return
	}

	httpjson.OK(w, map[string]any{
		"camps":      list,
		"pagination": page.Meta(total),
	})
}

// Get handles GET /api/camps/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid camp id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "camps.get")
	defer cancel()

	c, err := h.Camps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "Camp not found")
			return
		}
		h.Log.Error("load camp", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load camp")
		return
	}

	httpjson.OK(w, map[string]any{
		"camp":             c,
		"slotsLeft":        c.SlotsLeft(),
		"registrationOpen": c.RegistrationOpenAt(time.Now()),
	})
}
