package claimstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func TestVerifyPendingClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	u := f.CreateVerifiedUser(ctx, "Donor", "donor@example.com", models.RoleDonor)
	d := f.CreateDonor(ctx, u.ID, "O+")
	claim := f.CreateClaim(ctx, d.ID, u.ID, 1)

	s := New(db)
	admin := primitive.NewObjectID()

	got, err := s.Verify(ctx, claim.ID, admin)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Status != models.ClaimStatusVerified {
		t.Errorf("status = %q, want verified", got.Status)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != admin {
		t.Errorf("reviewed_by = %v, want %s", got.ReviewedBy, admin.Hex())
	}
	if got.ReviewedAt == nil {
		t.Error("reviewed_at not set")
	}

	// A second decision is rejected.
	if _, err := s.Reject(ctx, claim.ID, admin, "duplicate"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("second review: got %v, want ErrAlreadyReviewed", err)
	}
}

func TestRejectRecordsReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	u := f.CreateVerifiedUser(ctx, "Donor", "donor@example.com", models.RoleDonor)
	d := f.CreateDonor(ctx, u.ID, "A-")
	claim := f.CreateClaim(ctx, d.ID, u.ID, 1)

	s := New(db)
	got, err := s.Reject(ctx, claim.ID, primitive.NewObjectID(), "no hospital record")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != models.ClaimStatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	if got.RejectionReason != "no hospital record" {
		t.Errorf("reason = %q", got.RejectionReason)
	}
}

func TestReviewMissingClaim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	_, err := s.Verify(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestListPendingOldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	u := f.CreateVerifiedUser(ctx, "Donor", "donor@example.com", models.RoleDonor)
	d := f.CreateDonor(ctx, u.ID, "B+")

	first := f.CreateClaim(ctx, d.ID, u.ID, 1)
	second := f.CreateClaim(ctx, d.ID, u.ID, 2)

	s := New(db)
	if _, err := s.Verify(ctx, second.ID, primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}

	claims, total, err := s.ListPending(ctx, paging.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 1 || len(claims) != 1 || claims[0].ID != first.ID {
		t.Errorf("pending = %v (total %d), want only the first claim", claims, total)
	}
}
