package indexes_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/openblood/donorhub/internal/app/system/indexes"
	"github.com/openblood/donorhub/internal/testutil"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesDomainIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":           {"uniq_users_email", "idx_users_role_created", "idx_users_roles"},
		"donors":          {"uniq_donors_user", "idx_donors_group_available", "idx_donors_city"},
		"blood_requests":  {"idx_requests_requester_created", "idx_requests_status_group_created", "idx_requests_status_expires", "idx_requests_matched_donor"},
		"donation_camps":  {"idx_camps_status_start", "idx_camps_end", "idx_camps_registered_donor"},
		"donation_claims": {"idx_claims_donor_created", "idx_claims_status_created"},
		"notifications":   {"idx_notif_user_created", "idx_notif_user_read"},
	}

	for coll, wantNames := range expected {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("%s: list indexes failed: %v", coll, err)
		}

		got := make(map[string]bool)
		for cur.Next(ctx) {
			var idx bson.M
			if err := cur.Decode(&idx); err != nil {
				continue
			}
			if name, ok := idx["name"].(string); ok {
				got[name] = true
			}
		}
		cur.Close(ctx)

		for _, name := range wantNames {
			if !got[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}
