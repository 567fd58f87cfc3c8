package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/domain/models"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token constants & globals                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// CookieName is the fallback cookie checked when no Authorization
	// header is present.
	CookieName = "donorhub_token"

	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

// issuer is initialised once via InitTokenIssuer.
var issuer *TokenIssuer

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we decode from the token & inject into r.Context().
type SessionUser struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  string
	Roles []string
}

// HasRole reports whether the signed-in user holds role.
func (u SessionUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token issuing & parsing                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenIssuer signs and verifies the HS256 tokens handed to clients on
// login.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer. A zero ttl means DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty; provide ≥32 random chars")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token for the user.
func (ti *TokenIssuer) Issue(u models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID.Hex(),
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"roles": u.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ti.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(ti.secret)
}

// TTL returns how long issued tokens live. Used to set cookie expiry.
func (ti *TokenIssuer) TTL() time.Duration { return ti.ttl }

// Parse verifies raw and returns the embedded user.
func (ti *TokenIssuer) Parse(raw string) (*SessionUser, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	id, err := primitive.ObjectIDFromHex(claimString(claims, "sub"))
	if err != nil {
		return nil, errors.New("token missing subject")
	}
	u := &SessionUser{
		ID:    id,
		Name:  claimString(claims, "name"),
		Email: claimString(claims, "email"),
		Role:  claimString(claims, "role"),
	}
	if raw, ok := claims["roles"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				u.Roles = append(u.Roles, s)
			}
		}
	}
	if len(u.Roles) == 0 && u.Role != "" {
		u.Roles = []string{u.Role}
	}
	return u, nil
}

// InitTokenIssuer initializes the package-level issuer used by the
// middleware. Call once during startup before handlers are registered.
func InitTokenIssuer(secret string, ttl time.Duration, logger *zap.Logger) error {
	ti, err := NewTokenIssuer(secret, ttl)
	if err != nil {
		return err
	}
	if len(secret) < 32 {
		logger.Warn("token secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	issuer = ti
	logger.Info("token issuer initialized", zap.Duration("ttl", ti.ttl))
	return nil
}

// Issuer returns the package-level issuer, or nil before init.
func Issuer() *TokenIssuer { return issuer }

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadTokenUser injects the user into context if the request carries a
// valid token. If the issuer has not been initialized yet, it is a no-op.
func LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			next.ServeHTTP(w, r)
			return
		}
		if raw := tokenFromRequest(r); raw != "" {
			if u, err := issuer.Parse(raw); err == nil {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadTokenUser).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
	})
}

// RequireRole ensures the signed-in user holds at least one of the
// allowed roles. Role checks look at the full role set, so a user who
// registered as a donor and later added the recipient role passes both.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range u.Roles {
				if _, has := set[strings.ToLower(role)]; has {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpjson.Error(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// WithTestUser injects u into the request context the same way
// LoadTokenUser does. Test helper.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// tokenFromRequest prefers the Authorization header and falls back to
// the cookie set for browser clients.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
