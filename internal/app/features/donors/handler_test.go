package donors_test

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/features/donors"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func newTestHandler(t *testing.T) *donors.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return donors.NewHandler(db, zap.NewNop())
}

func TestUpsertAndGetProfile(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)
	u := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "ravi@college.edu", "donor")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/profile",
		map[string]any{
			"bloodGroup":  "O-",
			"dateOfBirth": "1998-04-12",
			"weight":      68.5,
			"isAvailable": true,
			"location":    map[string]any{"city": "Mumbai"},
		}, testutil.UserWithID(u.ID, "donor"))
	rec := testutil.NewRecorder()
	h.UpsertProfile(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"eligible":true`)

	getReq := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/donors/profile",
		testutil.UserWithID(u.ID, "donor"))
	rec = testutil.NewRecorder()
	h.GetProfile(rec, getReq)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"O-"`)
}

func TestGetProfileMissing(t *testing.T) {
	h := newTestHandler(t)
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/donors/profile",
		testutil.DonorUser())
	rec := testutil.NewRecorder()
	h.GetProfile(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUnderweightProfileReportedIneligible(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)
	u := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "light@college.edu", "donor")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/profile",
		map[string]any{
			"bloodGroup":  "A+",
			"dateOfBirth": "1998-04-12",
			"weight":      40,
			"isAvailable": true,
			"location":    map[string]any{"city": "Mumbai"},
		}, testutil.UserWithID(u.ID, "donor"))
	rec := testutil.NewRecorder()
	h.UpsertProfile(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"eligible":false`)
	rec.AssertContains(t, "weight must be at least 45 kg")
}

func TestRespondAcceptMatchesRequest(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "accept@college.edu", "donor")
	fx.CreateDonor(ctx, donorUser.ID, "O-")
	requester := fx.CreateVerifiedUser(ctx, "Asha Rao", "needs@college.edu", "recipient")
	blood := fx.CreateBloodRequest(ctx, requester.ID, "A+", 2)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/respond-request",
		map[string]any{"requestId": blood.ID.Hex(), "action": "accept"},
		testutil.UserWithID(donorUser.ID, "donor"))
	rec := testutil.NewRecorder()
	h.Respond(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"matched"`)

	// The requester gets a match notification.
	count := 0
	cur, err := h.DB.Collection("notifications").Find(ctx, map[string]any{"user_id": requester.ID})
	if err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	var notes []models.Notification
	if err := cur.All(ctx, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	for _, n := range notes {
		if n.Type == models.NotifyDonorMatch {
			count++
		}
	}
	if count != 1 {
		t.Errorf("donor match notifications: got %d, want 1", count)
	}

	// Responding again is rejected.
	req = testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/respond-request",
		map[string]any{"requestId": blood.ID.Hex(), "action": "accept"},
		testutil.UserWithID(donorUser.ID, "donor"))
	rec = testutil.NewRecorder()
	h.Respond(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "already responded")
}

func TestRespondUnavailableDonorRejected(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "busy@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")
	if err := h.Donors.SetAvailability(ctx, donorUser.ID, false, "exams"); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	requester := fx.CreateVerifiedUser(ctx, "Asha Rao", "needs2@college.edu", "recipient")
	blood := fx.CreateBloodRequest(ctx, requester.ID, "A+", 2)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/respond-request",
		map[string]any{"requestId": blood.ID.Hex(), "action": "accept"},
		testutil.UserWithID(donorUser.ID, "donor"))
	rec := testutil.NewRecorder()
	h.Respond(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "unavailable")

	// Declining is rejected too; an unavailable donor cannot respond
	// either way.
	req = testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/respond-request",
		map[string]any{"requestId": blood.ID.Hex(), "action": "decline"},
		testutil.UserWithID(donorUser.ID, "donor"))
	rec = testutil.NewRecorder()
	h.Respond(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "unavailable")

	got, err := h.Requests.GetByID(ctx, blood.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if m := got.ResponseOf(d.ID); m != nil {
		t.Errorf("expected no recorded response for donor %s, got %q", d.ID.Hex(), m.Status)
	}
}

func TestRespondIneligibleDonorRejected(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "recent@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")

	// A donation 30 days ago puts the donor inside the 90-day gap.
	if _, _, err := h.Donors.RecordDonation(ctx, d.ID, time.Now().AddDate(0, 0, -30)); err != nil {
		t.Fatalf("record donation: %v", err)
	}

	requester := fx.CreateVerifiedUser(ctx, "Asha Rao", "needs3@college.edu", "recipient")
	blood := fx.CreateBloodRequest(ctx, requester.ID, "A+", 2)

	for _, action := range []string{"accept", "decline"} {
		req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/donors/respond-request",
			map[string]any{"requestId": blood.ID.Hex(), "action": action},
			testutil.UserWithID(donorUser.ID, "donor"))
		rec := testutil.NewRecorder()
		h.Respond(rec, req)
		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, "90 days")
	}

	got, err := h.Requests.GetByID(ctx, blood.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if len(got.MatchedDonors) != 0 {
		t.Errorf("expected no recorded responses, got %d", len(got.MatchedDonors))
	}
}

func TestListRequestsFiltersByCompatibility(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	// An A+ donor can serve A+ and AB+ recipients only.
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "feed@college.edu", "donor")
	fx.CreateDonor(ctx, donorUser.ID, "A+")
	requester := fx.CreateVerifiedUser(ctx, "Asha Rao", "needs3@college.edu", "recipient")
	fx.CreateBloodRequest(ctx, requester.ID, "A+", 1)
	fx.CreateBloodRequest(ctx, requester.ID, "AB+", 1)
	fx.CreateBloodRequest(ctx, requester.ID, "O-", 1)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/donors/requests",
		testutil.UserWithID(donorUser.ID, "donor"))
	rec := testutil.NewRecorder()
	h.ListRequests(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Requests []models.BloodRequest `json:"requests"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Requests) != 2 {
		t.Fatalf("feed size: got %d, want 2", len(body.Requests))
	}
	for _, br := range body.Requests {
		if br.BloodGroup != "A+" && br.BloodGroup != "AB+" {
			t.Errorf("unexpected group %q in A+ donor feed", br.BloodGroup)
		}
	}
}
