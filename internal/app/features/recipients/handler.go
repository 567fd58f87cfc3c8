// internal/app/features/recipients/handler.go
//
// Package recipients serves the recipient-side API: creating and
// managing blood requests, browsing compatible donors, and confirming
// completed donations. Mounted under /api/recipients.
package recipients

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/notifications"
	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/notify"
)

// Handler holds dependencies for the recipient endpoints.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Requests *requeststore.Store
	Donors   *donorstore.Store
	Users    *userstore.Store
	Notify   *notify.Notifier
}

// NewHandler constructs a recipients Handler with its stores and notifier.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	donors := donorstore.New(db)
	users := userstore.New(db)
	return &Handler{
		DB:       db,
		Log:      logger,
		Requests: requeststore.New(db),
		Donors:   donors,
		Users:    users,
		Notify:   notify.New(notificationstore.New(db), donors, users, logger),
	}
}
