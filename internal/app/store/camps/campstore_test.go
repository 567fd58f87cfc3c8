package campstore

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func TestRegisterGuards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Spring Drive", 2)

	s := New(db)
	donorA := primitive.NewObjectID()
	donorB := primitive.NewObjectID()
	donorC := primitive.NewObjectID()

	got, err := s.Register(ctx, camp.ID, donorA, "10:00")
	if err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if len(got.RegisteredDonors) != 1 || got.RegisteredDonors[0].SlotTime != "10:00" {
		t.Errorf("roster = %+v", got.RegisteredDonors)
	}

	// Duplicate registration rejected.
	if _, err := s.Register(ctx, camp.ID, donorA, ""); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate: got %v, want ErrAlreadyRegistered", err)
	}

	// Fill the roster, then the next donor is turned away.
	if _, err := s.Register(ctx, camp.ID, donorB, ""); err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if _, err := s.Register(ctx, camp.ID, donorC, ""); !errors.Is(err, ErrCampFull) {
		t.Errorf("full camp: got %v, want ErrCampFull", err)
	}
}

func TestRegisterClosedAfterEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Past Drive", 10)
	if _, err := db.Collection("donation_camps").UpdateOne(ctx,
		bson.M{"_id": camp.ID},
		bson.M{"$set": bson.M{
			"start_date": time.Now().AddDate(0, 0, -3),
			"end_date":   time.Now().AddDate(0, 0, -1),
		}}); err != nil {
		t.Fatal(err)
	}

	s := New(db)
	if _, err := s.Register(ctx, camp.ID, primitive.NewObjectID(), ""); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("got %v, want ErrRegistrationClosed", err)
	}
}

func TestRegisterCancelledCamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Cancelled Drive", 10)
	if _, err := db.Collection("donation_camps").UpdateOne(ctx,
		bson.M{"_id": camp.ID},
		bson.M{"$set": bson.M{"status": models.CampStatusCancelled}}); err != nil {
		t.Fatal(err)
	}

	s := New(db)
	if _, err := s.Register(ctx, camp.ID, primitive.NewObjectID(), ""); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("got %v, want ErrRegistrationClosed", err)
	}
}

func TestUnregister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Drive", 5)

	s := New(db)
	donor := primitive.NewObjectID()
	if _, err := s.Register(ctx, camp.ID, donor, ""); err != nil {
		t.Fatal(err)
	}

	if err := s.Unregister(ctx, camp.ID, donor); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := s.Unregister(ctx, camp.ID, donor); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second unregister: got %v, want ErrNotRegistered", err)
	}

	got, err := s.GetByID(ctx, camp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.RegisteredDonors) != 0 {
		t.Errorf("roster not empty: %+v", got.RegisteredDonors)
	}
}

func TestGetRollsStatusForward(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Ongoing Drive", 5)
	if _, err := db.Collection("donation_camps").UpdateOne(ctx,
		bson.M{"_id": camp.ID},
		bson.M{"$set": bson.M{
			"start_date": time.Now().Add(-time.Hour),
			"end_date":   time.Now().Add(time.Hour),
		}}); err != nil {
		t.Fatal(err)
	}

	s := New(db)
	got, err := s.GetByID(ctx, camp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.CampStatusOngoing {
		t.Errorf("status = %q, want ongoing", got.Status)
	}

	// The rollover persisted.
	var stored models.DonationCamp
	if err := db.Collection("donation_camps").FindOne(ctx, bson.M{"_id": camp.ID}).Decode(&stored); err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.CampStatusOngoing {
		t.Errorf("stored status = %q, want ongoing", stored.Status)
	}
}

func TestListSweepsStatuses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	past := f.CreateCamp(ctx, "Finished Drive", 5)
	if _, err := db.Collection("donation_camps").UpdateOne(ctx,
		bson.M{"_id": past.ID},
		bson.M{"$set": bson.M{
			"start_date": time.Now().AddDate(0, 0, -3),
			"end_date":   time.Now().AddDate(0, 0, -1),
		}}); err != nil {
		t.Fatal(err)
	}
	f.CreateCamp(ctx, "Future Drive", 5)

	s := New(db)
	camps, total, err := s.List(ctx, ListFilter{Status: "completed"}, paging.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(camps) != 1 || camps[0].Name != "Finished Drive" {
		t.Errorf("completed camps = %v (total %d)", camps, total)
	}
}

func TestDeleteReturnsRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	camp := f.CreateCamp(ctx, "Doomed Drive", 5)

	s := New(db)
	donorA := primitive.NewObjectID()
	donorB := primitive.NewObjectID()
	if _, err := s.Register(ctx, camp.ID, donorA, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Register(ctx, camp.ID, donorB, ""); err != nil {
		t.Fatal(err)
	}

	donorIDs, err := s.Delete(ctx, camp.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(donorIDs) != 2 {
		t.Errorf("roster = %v, want 2 donors", donorIDs)
	}
	if _, err := s.GetByID(ctx, camp.ID); err == nil {
		t.Error("camp still readable after delete")
	}
}
