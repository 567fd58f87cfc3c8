// internal/app/store/claims/claimstore.go
package claimstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donation_claims")}
}

// ErrAlreadyReviewed is returned when verifying or rejecting a claim
// an admin already decided.
var ErrAlreadyReviewed = errors.New("this donation claim has already been reviewed")

// Create inserts a pending claim.
func (s *Store) Create(ctx context.Context, c models.DonationClaim) (models.DonationClaim, error) {
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.Status = models.ClaimStatusPending
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.DonationClaim{}, err
	}
	return c, nil
}

// GetByID loads a claim.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DonationClaim, error) {
	var c models.DonationClaim
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Verify marks a pending claim verified. The caller records the
// donation on the donor profile afterwards.
func (s *Store) Verify(ctx context.Context, id, adminID primitive.ObjectID) (*models.DonationClaim, error) {
	return s.review(ctx, id, adminID, models.ClaimStatusVerified, "")
}

// Reject marks a pending claim rejected with the given reason.
func (s *Store) Reject(ctx context.Context, id, adminID primitive.ObjectID, reason string) (*models.DonationClaim, error) {
	return s.review(ctx, id, adminID, models.ClaimStatusRejected, reason)
}

// review decides a pending claim. The status filter makes the decision
// first-writer-wins; a second reviewer gets ErrAlreadyReviewed.
func (s *Store) review(ctx context.Context, id, adminID primitive.ObjectID, status, reason string) (*models.DonationClaim, error) {
	now := time.Now()
	set := bson.M{
		"status":      status,
		"reviewed_by": adminID,
		"reviewed_at": now,
		"updated_at":  now,
	}
	if reason != "" {
		set["rejection_reason"] = reason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.DonationClaim
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ClaimStatusPending},
		bson.M{"$set": set},
		opts).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Distinguish missing from already reviewed.
	if _, lookupErr := s.GetByID(ctx, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrAlreadyReviewed
}

// ListForDonor returns a donor's claims, newest first.
func (s *Store) ListForDonor(ctx context.Context, donorID primitive.ObjectID, page paging.Page) ([]models.DonationClaim, int64, error) {
	return s.list(ctx, bson.M{"donor_id": donorID}, bson.D{{Key: "created_at", Value: -1}}, page)
}

// ListPending returns the admin review queue, oldest first.
func (s *Store) ListPending(ctx context.Context, page paging.Page) ([]models.DonationClaim, int64, error) {
	return s.list(ctx, bson.M{"status": models.ClaimStatusPending}, bson.D{{Key: "created_at", Value: 1}}, page)
}

func (s *Store) list(ctx context.Context, filter bson.M, sort bson.D, page paging.Page) ([]models.DonationClaim, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	page.ApplyToFind(find, sort)
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var claims []models.DonationClaim
	if err := cur.All(ctx, &claims); err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// CountPending returns the size of the review queue.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.ClaimStatusPending})
}

// CountVerified returns how many claims have been approved.
func (s *Store) CountVerified(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.ClaimStatusVerified})
}
