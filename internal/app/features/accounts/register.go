// internal/app/features/accounts/register.go
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/store/audit"
	"github.com/openblood/donorhub/internal/app/store/emailverify"
	"github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/auth"
	"github.com/openblood/donorhub/internal/app/system/authutil"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/mailer"
	"github.com/openblood/donorhub/internal/app/system/normalize"
	"github.com/openblood/donorhub/internal/app/system/ratelimit"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type registerInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
	Role       string `json:"role" validate:"required,oneof=donor recipient"`
	Department string `json:"department" validate:"max=100"`
	Year       string `json:"year" validate:"max=20"`
}

// Register handles POST /api/auth/register. Creates an unverified
// account and emails a one-time code. No token is issued until the
// email is verified.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.RegisterLimiter.Allow(ratelimit.ClientIP(r)) {
		httpjson.Error(w, http.StatusTooManyRequests, "Too many registration attempts, please try again later")
		return
	}

	var in registerInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.register")
	defer cancel()

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		Department:   in.Department,
		Year:         in.Year,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		h.Log.Error("create user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := h.sendVerification(ctx, u.ID, u.Email, false); err != nil {
		h.Log.Error("send verification email", zap.String("email", u.Email), zap.Error(err))
	}
	h.recordAudit(ctx, audit.Event{
		EventType: audit.EventUserRegistered,
		SubjectID: &u.ID,
		IP:        ratelimit.ClientIP(r),
		Details:   map[string]string{"role": u.Role},
	})

	httpjson.Created(w, map[string]any{
		"message": "Registration successful. Please check your email for the verification code.",
		"userId":  u.ID.Hex(),
		"email":   u.Email,
	})
}

type verifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// VerifyOTP handles POST /api/auth/verify-otp. A correct, unexpired
// code marks the email verified and signs the user in.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in verifyOTPInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.verify_otp")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, normalize.Email(in.Email))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid verification code")
		return
	}
	if u.IsEmailVerified {
		httpjson.Error(w, http.StatusBadRequest, "Email is already verified")
		return
	}

	if _, err := h.Verifications.VerifyCode(ctx, u.ID, in.Code); err != nil {
		switch {
		case errors.Is(err, emailverify.ErrTooManyAttempts):
			httpjson.Error(w, http.StatusBadRequest, "Too many incorrect attempts. Please request a new code.")
		case errors.Is(err, emailverify.ErrNotFound):
			httpjson.Error(w, http.StatusBadRequest, "Verification code expired. Please request a new one.")
		default:
			httpjson.Error(w, http.StatusBadRequest, "Invalid verification code")
		}
		return
	}

	if err := h.Users.MarkEmailVerified(ctx, u.ID); err != nil {
		h.Log.Error("mark email verified", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if err := h.Verifications.DeleteByUser(ctx, u.ID); err != nil {
		h.Log.Warn("clear verification records", zap.Error(err))
	}
	u.IsEmailVerified = true
	h.recordAudit(ctx, audit.Event{EventType: audit.EventEmailVerified, SubjectID: &u.ID})

	token, err := auth.Issuer().Issue(*u)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	httpjson.OK(w, map[string]any{
		"message": "Email verified successfully",
		"token":   token,
		"user":    u,
	})
}

// VerifyEmailLink handles GET /api/auth/verify-email?token=…, the magic
// link alternative to typing the code.
func (h *Handler) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpjson.Error(w, http.StatusBadRequest, "Missing verification token")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.verify_email_link")
	defer cancel()

	v, err := h.Verifications.VerifyToken(ctx, token)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Verification link is invalid or expired")
		return
	}
	if err := h.Users.MarkEmailVerified(ctx, v.UserID); err != nil {
		h.Log.Error("mark email verified", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if err := h.Verifications.DeleteByUser(ctx, v.UserID); err != nil {
		h.Log.Warn("clear verification records", zap.Error(err))
	}
	h.recordAudit(ctx, audit.Event{EventType: audit.EventEmailVerified, SubjectID: &v.UserID})

	httpjson.OK(w, map[string]any{"message": "Email verified successfully. You can now log in."})
}

type resendOTPInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendOTP handles POST /api/auth/resend-otp.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var in resendOTPInput
	if !httpjson.DecodeValid(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accounts.resend_otp")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, normalize.Email(in.Email))
	if err != nil {
		// Do not reveal whether the address is registered.
		httpjson.OK(w, map[string]any{"message": "If the account exists, a new code has been sent"})
		return
	}
	if u.IsEmailVerified {
		httpjson.Error(w, http.StatusBadRequest, "Email is already verified")
		return
	}

	if err := h.sendVerification(ctx, u.ID, u.Email, true); err != nil {
		if errors.Is(err, emailverify.ErrTooManyResends) {
			httpjson.Error(w, http.StatusTooManyRequests, "Too many resend requests. Please wait before trying again.")
			return
		}
		h.Log.Error("resend verification email", zap.String("email", u.Email), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	httpjson.OK(w, map[string]any{"message": "A new verification code has been sent to your email"})
}

// sendVerification creates (or rotates) the verification record and
// emails the code plus magic link.
func (h *Handler) sendVerification(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) error {
	res, err := h.Verifications.Create(ctx, userID, email, isResend)
	if err != nil {
		return err
	}

	e := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  h.SiteName,
		Code:      res.Code,
		MagicLink: h.BaseURL + "/api/auth/verify-email?token=" + res.Token,
		ExpiresIn: formatExpiry(h.Verifications.Expiry()),
	})
	e.To = email
	return h.Mail.Send(ctx, e)
}

func formatExpiry(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
