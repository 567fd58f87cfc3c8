package userstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/openblood/donorhub/internal/app/store/users"
	"github.com/openblood/donorhub/internal/app/system/paging"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		Name:  "Ravi Kumar",
		Email: "Ravi@Example.com",
		Phone: "98765 43210",
		Role:  "donor",
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ravi@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.Phone != "9876543210" {
		t.Errorf("expected normalized phone, got %q", created.Phone)
	}
	if created.IsEmailVerified {
		t.Error("new users must start unverified")
	}
	if !created.IsActive {
		t.Error("new users must start active")
	}
	if len(created.Roles) != 1 || created.Roles[0] != "donor" {
		t.Errorf("expected roles seeded from role, got %v", created.Roles)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		Name:  "Nobody",
		Email: "nobody@example.com",
		Role:  "superuser",
	})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "First", "dup@example.com", "donor")

	_, err := store.Create(ctx, models.User{
		Name:  "Second",
		Email: "DUP@example.com",
		Role:  "recipient",
	})
	if err != userstore.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_Normalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := fixtures.CreateUser(ctx, "Ravi", "ravi@example.com", "donor")

	got, err := store.GetByEmail(ctx, "  RAVI@example.com  ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got user %v, want %v", got.ID, created.ID)
	}
}

func TestStore_AddRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Ravi", "ravi@example.com", "donor")

	if err := store.AddRole(ctx, u.ID, "recipient"); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	// Adding again must not duplicate
	if err := store.AddRole(ctx, u.ID, "recipient"); err != nil {
		t.Fatalf("second AddRole failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Roles) != 2 {
		t.Errorf("expected 2 roles, got %v", got.Roles)
	}
	if !got.HasRole("recipient") {
		t.Errorf("expected recipient role, got %v", got.Roles)
	}
}

func TestStore_AddRole_RejectsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Ravi", "ravi@example.com", "donor")
	if err := store.AddRole(ctx, u.ID, "admin"); err == nil {
		t.Fatal("expected error when adding admin role")
	}
}

func TestStore_MarkEmailVerified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Ravi", "ravi@example.com", "donor")
	if err := store.MarkEmailVerified(ctx, u.ID); err != nil {
		t.Fatalf("MarkEmailVerified failed: %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if !got.IsEmailVerified {
		t.Error("expected user to be verified")
	}
}

func TestStore_SetActive_MissingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetActive(ctx, primitive.NewObjectID(), false)
	if err != mongo.ErrNoDocuments {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_List_FilterAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Donor One", "d1@example.com", "donor")
	fixtures.CreateUser(ctx, "Donor Two", "d2@example.com", "donor")
	fixtures.CreateUser(ctx, "Recipient", "r1@example.com", "recipient")

	users, total, err := store.List(ctx, userstore.ListFilter{Role: "donor"}, paging.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("expected 2 donors, got total=%d len=%d", total, len(users))
	}

	users, total, err = store.List(ctx, userstore.ListFilter{Search: "Donor O"}, paging.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("List with search failed: %v", err)
	}
	if total != 1 || len(users) != 1 {
		t.Errorf("expected 1 match, got total=%d len=%d", total, len(users))
	}
}

func TestStore_IDsWithRole_SkipsUnverified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	verified := fixtures.CreateVerifiedUser(ctx, "Verified", "v@example.com", "donor")
	fixtures.CreateUser(ctx, "Unverified", "u@example.com", "donor")

	ids, err := store.IDsWithRole(ctx, "donor")
	if err != nil {
		t.Fatalf("IDsWithRole failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != verified.ID {
		t.Errorf("expected only the verified donor, got %v", ids)
	}
}
