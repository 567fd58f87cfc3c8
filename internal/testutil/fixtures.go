package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openblood/donorhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an unverified, active user.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Phone:     "9876543210",
		Role:      role,
		Roles:     []string{role},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateVerifiedUser inserts a user with a verified email.
func (f *Fixtures) CreateVerifiedUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, name, email, role)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"is_email_verified": true}})
	if err != nil {
		f.t.Fatalf("failed to verify test user: %v", err)
	}
	u.IsEmailVerified = true
	return u
}

// CreateDonor inserts an eligible, available donor profile for user.
func (f *Fixtures) CreateDonor(ctx context.Context, userID primitive.ObjectID, bloodGroup string) models.Donor {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Donor{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		BloodGroup:  bloodGroup,
		DateOfBirth: now.AddDate(-30, 0, 0),
		WeightKG:    70,
		IsAvailable: true,
		IsVerified:  true,
		Location:    models.DonorLocation{Address: "12 Park Street", City: "Mumbai"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("donors").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donor: %v", err)
	}
	return d
}

// CreateBloodRequest inserts a pending request from requester.
func (f *Fixtures) CreateBloodRequest(ctx context.Context, requesterID primitive.ObjectID, bloodGroup string, units int) models.BloodRequest {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.BloodRequest{
		ID:            primitive.NewObjectID(),
		RequesterID:   requesterID,
		BloodGroup:    bloodGroup,
		UnitsRequired: units,
		Urgency:       models.UrgencyHigh,
		Patient:       models.PatientInfo{Name: "Test Patient"},
		Hospital:      models.HospitalInfo{Name: "City Hospital", City: "Mumbai"},
		IsVerified:    true,
		NeededBy:      now.AddDate(0, 0, 3),
		ContactPhone:  "9876543210",
		Status:        models.RequestStatusPending,
		ExpiresAt:     now.AddDate(0, 0, models.RequestTTLDays),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("blood_requests").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test blood request: %v", err)
	}
	return r
}

// CreateCamp inserts a scheduled camp starting tomorrow.
func (f *Fixtures) CreateCamp(ctx context.Context, name string, maxParticipants int) models.DonationCamp {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.DonationCamp{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Venue:           "Main Hall",
		Location:        models.CampLocation{City: "Mumbai"},
		StartDate:       now.AddDate(0, 0, 1),
		EndDate:         now.AddDate(0, 0, 2),
		Organizer:       models.OrganizerInfo{Name: "Red Cross Club", Contact: "club@example.com"},
		MaxParticipants: maxParticipants,
		IsPublic:        true,
		Status:          models.CampStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("donation_camps").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test camp: %v", err)
	}
	return c
}

// CreateClaim inserts a pending donation claim for donor.
func (f *Fixtures) CreateClaim(ctx context.Context, donorID, userID primitive.ObjectID, units int) models.DonationClaim {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.DonationClaim{
		ID:        primitive.NewObjectID(),
		DonorID:   donorID,
		UserID:    userID,
		DonatedAt: now.AddDate(0, 0, -1),
		Location:  "City Hospital",
		Units:     units,
		Status:    models.ClaimStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("donation_claims").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test claim: %v", err)
	}
	return c
}
