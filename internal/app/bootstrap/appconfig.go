// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer-token auth configuration
	TokenSecret string        // HS256 signing secret (must be strong in production)
	TokenTTL    time.Duration // How long issued tokens stay valid

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (blank disables outbound mail)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@donorhub.org)
	MailFromName string // From display name

	// Email verification settings
	EmailVerifyExpiry time.Duration // OTP code / magic-link expiry

	// Base URL for email links (magic verification links)
	BaseURL string // e.g., "https://donorhub.org" or "http://localhost:8080"

	// SiteName appears in outbound email subjects and bodies.
	SiteName string

	// AdminEmail, when set, promotes that account to admin on startup.
	AdminEmail string
}
