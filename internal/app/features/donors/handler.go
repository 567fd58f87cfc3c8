// internal/app/features/donors/handler.go
//
// Package donors serves the donor-side API: profile management,
// the open-request feed, responses, and donation history. Mounted
// under /api/donors.
package donors

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/notifications"
	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/notify"
)

// Handler holds dependencies for the donor endpoints.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Donors   *donorstore.Store
	Requests *requeststore.Store
	Users    *userstore.Store
	Notify   *notify.Notifier
}

// NewHandler constructs a donors Handler with its stores and notifier.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	donors := donorstore.New(db)
	users := userstore.New(db)
	return &Handler{
		DB:       db,
		Log:      logger,
		Donors:   donors,
		Requests: requeststore.New(db),
		Users:    users,
		Notify:   notify.New(notificationstore.New(db), donors, users, logger),
	}
}
