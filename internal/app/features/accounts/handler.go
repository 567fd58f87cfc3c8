// internal/app/features/accounts/handler.go
//
// Package accounts implements registration with email OTP verification,
// login, and self-service account management. Mounted under /api/auth.
package accounts

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/donors"
	"github.com/openblood/donorhub/internal/app/store/emailverify"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/mailer"
	"github.com/openblood/donorhub/internal/app/system/ratelimit"
)

// Handler holds dependencies for the account endpoints.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	Users         *userstore.Store
	Donors        *donorstore.Store
	Verifications *emailverify.Store
	Audit         *audit.Store
	Mail          *mailer.Mailer
	SiteName      string
	BaseURL       string

	RegisterLimiter *ratelimit.Limiter
	LoginLimiter    *ratelimit.LoginLimiter
}

// NewHandler constructs an accounts Handler with its stores and
// limiters. A zero verifyExpiry means emailverify.DefaultExpiry.
func NewHandler(db *mongo.Database, mail *mailer.Mailer, siteName, baseURL string, verifyExpiry time.Duration, logger *zap.Logger) *Handler {
	if verifyExpiry == 0 {
		verifyExpiry = emailverify.DefaultExpiry
	}
	return &Handler{
		DB:              db,
		Log:             logger,
		Users:           userstore.New(db),
		Donors:          donorstore.New(db),
		Verifications:   emailverify.New(db, verifyExpiry),
		Audit:           audit.New(db),
		Mail:            mail,
		SiteName:        siteName,
		BaseURL:         baseURL,
		RegisterLimiter: ratelimit.New(5, 15*time.Minute),
		LoginLimiter:    ratelimit.NewLoginLimiter(),
	}
}

// recordAudit writes an audit event, logging instead of failing the
// request when the write does not land.
func (h *Handler) recordAudit(ctx context.Context, ev audit.Event) {
	if err := h.Audit.Log(ctx, ev); err != nil {
		h.Log.Warn("audit log", zap.String("event", ev.EventType), zap.Error(err))
	}
}
