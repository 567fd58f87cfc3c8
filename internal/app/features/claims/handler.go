// internal/app/features/claims/handler.go
//
// Package claims serves donor-submitted donation claims and their
// admin review. Mounted under /api/donation-requests.
package claims

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/claims"
	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/notifications"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/notify"
)

// Handler holds dependencies for the claim endpoints.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Claims *claimstore.Store
	Donors *donorstore.Store
	Users  *userstore.Store
	Audit  *audit.Store
	Notify *notify.Notifier
}

// NewHandler constructs a claims Handler with its stores and notifier.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	donors := donorstore.New(db)
	users := userstore.New(db)
	return &Handler{
		DB:     db,
		Log:    logger,
		Claims: claimstore.New(db),
		Donors: donors,
		Users:  users,
		Audit:  audit.New(db),
		Notify: notify.New(notificationstore.New(db), donors, users, logger),
	}
}

// recordAudit writes an audit event, logging instead of failing the
// request when the write does not land.
func (h *Handler) recordAudit(ctx context.Context, ev audit.Event) {
	if err := h.Audit.Log(ctx, ev); err != nil {
		h.Log.Warn("audit log", zap.String("event", ev.EventType), zap.Error(err))
	}
}
