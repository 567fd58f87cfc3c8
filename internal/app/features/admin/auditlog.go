// internal/app/features/admin/auditlog.go
package admin

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

// AuditLog returns a page of audit trail events, newest first,
// filterable by event type, actor, and subject.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := paging.Parse(r)

	f := audit.QueryFilter{
		EventType: normalize.QueryParam(q.Get("event")),
	}
	if s := q.Get("actorId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid actorId")
			return
		}
		f.ActorID = &id
	}
	if s := q.Get("subjectId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid subjectId")
			return
		}
		f.SubjectID = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin.auditlog")
	defer cancel()

	events, total, err := h.Audit.Query(ctx, f, page)
	if err != nil {
		h.Log.Error("query audit log", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load audit log")
		return
	}

	httpjson.OK(w, map[string]any{
		"events":     events,
		"pagination": page.Meta(total),
	})
}
