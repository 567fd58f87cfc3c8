// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	campstore "github.com/openblood/donorhub/internal/app/store/camps"
	requeststore "github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/workers"
	"github.com/openblood/donorhub/internal/domain/models"
)

// statusSweep runs for the life of the process; Shutdown stops it.
var statusSweep *workers.StatusSweep

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := auth.InitTokenIssuer(appCfg.TokenSecret, appCfg.TokenTTL, logger); err != nil {
		return err
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	statusSweep = workers.NewStatusSweep(
		requeststore.New(deps.MongoDatabase),
		campstore.New(deps.MongoDatabase),
		logger,
		5*time.Minute)
	statusSweep.Start()

	return nil
}

// ensureAdmin promotes the configured account to admin. The account
// must already exist; passwords only enter the system through the
// registration flow, so an unknown email is logged and skipped rather
// than half-created.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	users := deps.MongoDatabase.Collection("users")

	res, err := users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$addToSet": bson.M{"roles": models.RoleAdmin},
			"$set": bson.M{
				"is_email_verified": true,
				"is_active":         true,
				"updated_at":        time.Now(),
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		logger.Warn("admin_email does not match a registered user; register the account and restart",
			zap.String("email", email))
		return nil
	}
	logger.Info("admin account ensured", zap.String("email", email))
	return nil
}
