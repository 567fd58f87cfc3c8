// Package emailverify holds the pending OTP and magic-link state for
// registration email verification. Records live in their own
// email_verifications collection, keyed by user, and expire via a TTL
// index rather than being embedded on the user document.
package emailverify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in the emailed OTP.
	CodeLength = 6
	// DefaultExpiry bounds how long an OTP and its magic link stay valid.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing the OTP at rest.
	BcryptCost = 10
	// MaxVerifyAttempts caps guesses against a single pending verification.
	MaxVerifyAttempts = 5
	// MaxResends caps resends inside one ResendWindow.
	MaxResends = 3
	// ResendWindow is the rolling window the resend cap applies to.
	ResendWindow = 10 * time.Minute
)

var (
	// ErrNotFound means no pending verification exists or it has expired.
	ErrNotFound = errors.New("verification not found or expired")
	// ErrInvalidCode means the submitted OTP does not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrTooManyAttempts means the guess cap for this verification was hit.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrTooManyResends means the resend cap for the window was hit.
	ErrTooManyResends = errors.New("too many resend requests")
)

// Verification is one pending email verification. A user has at most one
// live record; creating a new one replaces any earlier records.
type Verification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	CodeHash    string             `bson:"code_hash"`  // bcrypt of the OTP; plaintext is never stored
	Token       string             `bson:"token"`      // magic-link token
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	WindowStart time.Time          `bson:"window_start"`
}

// Store manages the email_verifications collection.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New returns a Store whose records expire after the given duration.
// Zero or negative falls back to DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("email_verifications"),
		expiry: expiry,
	}
}

// Expiry reports the configured record lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates lookup indexes plus the TTL index that reaps
// expired verifications.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_token"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateResult carries the freshly issued OTP and magic-link token back to
// the registration flow so they can go out in the verification email.
type CreateResult struct {
	Code        string
	Token       string
	ResendCount int
}

// Create replaces any pending verification for the user with a fresh OTP
// and magic-link token. When isResend is set the call counts against the
// resend cap; the resend window carries across replacements until it lapses.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) (*CreateResult, error) {
	now := time.Now()

	var existing Verification
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	existingFound := err == nil

	if isResend && existingFound && now.Before(existing.WindowStart.Add(ResendWindow)) {
		if existing.ResendCount >= MaxResends {
			return nil, ErrTooManyResends
		}
	}

	code := generateCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}
	token := generateToken()

	resendCount := 0
	windowStart := now
	if existingFound && now.Before(existing.WindowStart.Add(ResendWindow)) {
		// Window still open: carry the count forward so replacements
		// cannot reset the cap.
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount
		if isResend {
			resendCount++
		}
	}

	_, _ = s.c.DeleteMany(ctx, bson.M{"user_id": userID})

	v := Verification{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		Token:       token,
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		Attempts:    0,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}

	return &CreateResult{
		Code:        code,
		Token:       token,
		ResendCount: resendCount,
	}, nil
}

// VerifyCode checks the OTP for a user. Every call burns an attempt, and a
// match deletes the record so the code is single use.
func (s *Store) VerifyCode(ctx context.Context, userID primitive.ObjectID, code string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&v)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if v.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	_, _ = s.c.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$inc": bson.M{"attempts": 1}})

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)); err != nil {
		return nil, ErrInvalidCode
	}

	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// VerifyToken resolves a magic-link token. A match deletes the record so
// the link is single use.
func (s *Store) VerifyToken(ctx context.Context, token string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&v)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// DeleteByUser drops all pending verifications for a user.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// generateCode draws a uniform 6-digit OTP from crypto/rand. Randomness
// failure is unrecoverable here, so it panics.
func generateCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	code := (n % 900000) + 100000
	return fmt.Sprintf("%06d", code)
}

func generateToken() string {
	return uuid.NewString()
}
