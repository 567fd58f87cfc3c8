// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	accountsfeature "github.com/openblood/donorhub/internal/app/features/accounts"
	adminfeature "github.com/openblood/donorhub/internal/app/features/admin"
	campsfeature "github.com/openblood/donorhub/internal/app/features/camps"
	claimsfeature "github.com/openblood/donorhub/internal/app/features/claims"
	donorsfeature "github.com/openblood/donorhub/internal/app/features/donors"
	healthfeature "github.com/openblood/donorhub/internal/app/features/health"
	notificationsfeature "github.com/openblood/donorhub/internal/app/features/notifications"
	recipientsfeature "github.com/openblood/donorhub/internal/app/features/recipients"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/mailer"
	"github.com/openblood/donorhub/internal/app/system/metrics"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// DonorHub mounts a pure JSON API: every feature router lives under
// /api, with /health and /metrics alongside for operators.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	from := appCfg.MailFrom
	if appCfg.MailFromName != "" {
		from = fmt.Sprintf("%s <%s>", appCfg.MailFromName, appCfg.MailFrom)
	}
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     from,
	}, logger)
	if !mail.Enabled() {
		logger.Warn("no SMTP host configured; verification emails will be logged, not sent")
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	// Loads the token user into context; RequireSignedIn enforces it
	// where routes demand auth.
	r.Use(auth.LoadTokenUser)

	// Operational endpoints.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// API surface.
	r.Route("/api", func(api chi.Router) {
		accountsHandler := accountsfeature.NewHandler(db, mail, appCfg.SiteName, appCfg.BaseURL, appCfg.EmailVerifyExpiry, logger)
		api.Mount("/auth", accountsfeature.Routes(accountsHandler))

		donorsHandler := donorsfeature.NewHandler(db, logger)
		api.Mount("/donors", donorsfeature.Routes(donorsHandler))

		recipientsHandler := recipientsfeature.NewHandler(db, logger)
		api.Mount("/recipients", recipientsfeature.Routes(recipientsHandler))

		campsHandler := campsfeature.NewHandler(db, logger)
		api.Mount("/camps", campsfeature.Routes(campsHandler))

		claimsHandler := claimsfeature.NewHandler(db, logger)
		api.Mount("/donation-requests", claimsfeature.Routes(claimsHandler))

		notificationsHandler := notificationsfeature.NewHandler(db, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

		adminHandler := adminfeature.NewHandler(db, logger)
		api.Mount("/admin", adminfeature.Routes(adminHandler))
	})

	return r, nil
}
