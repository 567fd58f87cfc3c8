package recipients_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/features/recipients"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func newTestHandler(t *testing.T) *recipients.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return recipients.NewHandler(db, zap.NewNop())
}

func TestCreateRequestNotifiesCompatibleDonors(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	requester := fx.CreateVerifiedUser(ctx, "Asha Rao", "asha@college.edu", "recipient")
	// O- can serve A+; B+ cannot.
	oNeg := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "oneg@college.edu", "donor")
	fx.CreateDonor(ctx, oNeg.ID, "O-")
	bPos := fx.CreateVerifiedUser(ctx, "Mira Shah", "bpos@college.edu", "donor")
	fx.CreateDonor(ctx, bPos.ID, "B+")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/recipients/request",
		map[string]any{
			"bloodGroup":    "A+",
			"unitsRequired": 2,
			"urgency":       "high",
			"patient":       map[string]any{"name": "Uncle Prakash"},
			"hospital":      map[string]any{"name": "City Hospital", "city": "Mumbai"},
			"neededBy":      "2030-01-15",
			"contactPhone":  "9876543210",
		}, testutil.UserWithID(requester.ID, "recipient"))
	rec := testutil.NewRecorder()
	h.CreateRequest(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"matchingDonors":1`)
	rec.AssertContains(t, `"status":"pending"`)
}

func TestCreateRequestValidation(t *testing.T) {
	h := newTestHandler(t)
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/recipients/request",
		map[string]any{"bloodGroup": "Z+", "unitsRequired": 0},
		testutil.RecipientUser())
	rec := testutil.NewRecorder()
	h.CreateRequest(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestGetRequestOwnershipEnforced(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	owner := fx.CreateVerifiedUser(ctx, "Asha Rao", "owner@college.edu", "recipient")
	other := fx.CreateVerifiedUser(ctx, "Mira Shah", "other@college.edu", "recipient")
	blood := fx.CreateBloodRequest(ctx, owner.ID, "A+", 2)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/recipients/requests/"+blood.ID.Hex(),
		testutil.UserWithID(other.ID, "recipient"))
	req = testutil.WithChiURLParam(req, "id", blood.ID.Hex())
	rec := testutil.NewRecorder()
	h.GetRequest(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/recipients/requests/"+blood.ID.Hex(),
		testutil.UserWithID(owner.ID, "recipient"))
	req = testutil.WithChiURLParam(req, "id", blood.ID.Hex())
	rec = testutil.NewRecorder()
	h.GetRequest(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestCancelRequestNotifiesAcceptedDonors(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	owner := fx.CreateVerifiedUser(ctx, "Asha Rao", "cancel@college.edu", "recipient")
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor1@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")
	blood := fx.CreateBloodRequest(ctx, owner.ID, "A+", 2)

	if _, err := h.Requests.Respond(ctx, blood.ID, d.ID, true); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/recipients/requests/"+blood.ID.Hex(),
		testutil.UserWithID(owner.ID, "recipient"))
	req = testutil.WithChiURLParam(req, "id", blood.ID.Hex())
	rec := testutil.NewRecorder()
	h.CancelRequest(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Requests.GetByID(ctx, blood.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if got.Status != models.RequestStatusCancelled {
		t.Errorf("status: got %q, want cancelled", got.Status)
	}

	cur, err := h.DB.Collection("notifications").Find(ctx, map[string]any{"user_id": donorUser.ID})
	if err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	var notes []models.Notification
	if err := cur.All(ctx, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	found := false
	for _, n := range notes {
		if n.Type == models.NotifyRequestCancelled {
			found = true
		}
	}
	if !found {
		t.Error("expected the accepted donor to get a cancellation notification")
	}
}

func TestCompleteDonationAwardsBadge(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	owner := fx.CreateVerifiedUser(ctx, "Asha Rao", "complete@college.edu", "recipient")
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor2@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")
	blood := fx.CreateBloodRequest(ctx, owner.ID, "A+", 2)

	if _, err := h.Requests.Respond(ctx, blood.ID, d.ID, true); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/recipients/complete-donation",
		map[string]any{"requestId": blood.ID.Hex(), "donorId": d.ID.Hex(), "units": 2},
		testutil.UserWithID(owner.ID, "recipient"))
	rec := testutil.NewRecorder()
	h.CompleteDonation(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"completed"`)
	rec.AssertContains(t, "first_donation")

	updated, err := h.Donors.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("reload donor: %v", err)
	}
	if updated.TotalDonations != 1 {
		t.Errorf("total donations: got %d, want 1", updated.TotalDonations)
	}
	if updated.LastDonationDate == nil {
		t.Error("expected last donation date to be set")
	}
}

func TestCompleteDonationRequiresAcceptedDonor(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	owner := fx.CreateVerifiedUser(ctx, "Asha Rao", "strict@college.edu", "recipient")
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor3@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")
	blood := fx.CreateBloodRequest(ctx, owner.ID, "A+", 2)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/recipients/complete-donation",
		map[string]any{"requestId": blood.ID.Hex(), "donorId": d.ID.Hex(), "units": 1},
		testutil.UserWithID(owner.ID, "recipient"))
	rec := testutil.NewRecorder()
	h.CompleteDonation(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "has not accepted")
}

func TestAvailableDonorsFiltersByCompatibility(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	oNeg := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "av1@college.edu", "donor")
	fx.CreateDonor(ctx, oNeg.ID, "O-")
	aPos := fx.CreateVerifiedUser(ctx, "Mira Shah", "av2@college.edu", "donor")
	fx.CreateDonor(ctx, aPos.ID, "A+")
	abPos := fx.CreateVerifiedUser(ctx, "Dev Patel", "av3@college.edu", "donor")
	fx.CreateDonor(ctx, abPos.ID, "AB+")

	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/api/recipients/available-donors?bloodGroup=A%2B", testutil.RecipientUser())
	rec := testutil.NewRecorder()
	h.AvailableDonors(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Donors []struct {
			BloodGroup string `json:"blood_group"`
		} `json:"donors"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Donors) != 2 {
		t.Fatalf("donor count: got %d, want 2", len(body.Donors))
	}
	for _, d := range body.Donors {
		if d.BloodGroup == "AB+" {
			t.Error("AB+ donor cannot serve an A+ request")
		}
	}
}
