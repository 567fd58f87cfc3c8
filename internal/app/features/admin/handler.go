// internal/app/features/admin/handler.go
//
// Package admin serves the admin console: dashboard aggregates, user
// and donor management, request verification, broadcasts, and
// analytics. Mounted under /api/admin.
package admin

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/camps"
	"github.com/openblood/donorhub/internal/app/store/claims"
	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/notifications"
	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/notify"
)

// Handler holds dependencies for the admin endpoints.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Users    *userstore.Store
	Donors   *donorstore.Store
	Requests *requeststore.Store
	Camps    *campstore.Store
	Claims   *claimstore.Store
	Audit    *audit.Store
	Notify   *notify.Notifier
}

// NewHandler constructs an admin Handler with its stores and notifier.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	donors := donorstore.New(db)
	users := userstore.New(db)
	return &Handler{
		DB:       db,
		Log:      logger,
		Users:    users,
		Donors:   donors,
		Requests: requeststore.New(db),
		Camps:    campstore.New(db),
		Claims:   claimstore.New(db),
		Audit:    audit.New(db),
		Notify:   notify.New(notificationstore.New(db), donors, users, logger),
	}
}

// recordAudit writes an audit event, logging instead of failing the
// request when the write does not land.
func (h *Handler) recordAudit(ctx context.Context, ev audit.Event) {
	if err := h.Audit.Log(ctx, ev); err != nil {
		h.Log.Warn("audit log", zap.String("event", ev.EventType), zap.Error(err))
	}
}
