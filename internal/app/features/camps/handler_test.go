package camps_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/features/camps"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func newTestHandler(t *testing.T) *camps.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return camps.NewHandler(db, zap.NewNop())
}

func TestCreateCampAnnouncesToVerifiedDonors(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	admin := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor@college.edu", "donor")
	fx.CreateDonor(ctx, donorUser.ID, "O-")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/camps",
		map[string]any{
			"name":            "Campus Blood Drive",
			"venue":           "Main Auditorium",
			"location":        map[string]any{"city": "Mumbai"},
			"startDate":       "2030-03-01",
			"endDate":         "2030-03-02",
			"organizerName":   "Red Cross Club",
			"maxParticipants": 50,
		}, testutil.UserWithID(admin.ID, "admin"))
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"donorsNotified":1`)
	rec.AssertContains(t, `"status":"scheduled"`)
}

func TestCreateCampRejectsBackwardsDates(t *testing.T) {
	h := newTestHandler(t)
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/camps",
		map[string]any{
			"name":            "Backwards Drive",
			"venue":           "Hall",
			"startDate":       "2030-03-02",
			"endDate":         "2030-03-01",
			"organizerName":   "Club",
			"maxParticipants": 10,
		}, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestRegisterCapacityAndDuplicates(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	camp := fx.CreateCamp(ctx, "Small Drive", 1)
	u1 := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "r1@college.edu", "donor")
	fx.CreateDonor(ctx, u1.ID, "O-")
	u2 := fx.CreateVerifiedUser(ctx, "Mira Shah", "r2@college.edu", "donor")
	fx.CreateDonor(ctx, u2.ID, "A+")

	register := func(u models.User, want int, contains string) {
		t.Helper()
		req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/camps/"+camp.ID.Hex()+"/register",
			map[string]any{"slotTime": "10:00"}, testutil.UserWithID(u.ID, "donor"))
		req = testutil.WithChiURLParam(req, "id", camp.ID.Hex())
		rec := testutil.NewRecorder()
		h.Register(rec, req)
		rec.AssertStatus(t, want)
		if contains != "" {
			rec.AssertContains(t, contains)
		}
	}

	register(u1, http.StatusOK, "Registered for camp")
	register(u1, http.StatusBadRequest, "already registered")
	register(u2, http.StatusBadRequest, "maximum number of participants")
}

func TestRegisterRequiresEligibleDonor(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	camp := fx.CreateCamp(ctx, "Strict Drive", 10)
	u := fx.CreateVerifiedUser(ctx, "Low Weight", "lw@college.edu", "donor")
	d := fx.CreateDonor(ctx, u.ID, "O-")
	if _, err := h.DB.Collection("donors").UpdateOne(ctx,
		map[string]any{"_id": d.ID},
		map[string]any{"$set": map[string]any{"weight_kg": 40.0}}); err != nil {
		t.Fatalf("update donor weight: %v", err)
	}

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/camps/"+camp.ID.Hex()+"/register",
		map[string]any{}, testutil.UserWithID(u.ID, "donor"))
	req = testutil.WithChiURLParam(req, "id", camp.ID.Hex())
	rec := testutil.NewRecorder()
	h.Register(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Not eligible")
}

func TestUnregisterThenUnregisterAgain(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	camp := fx.CreateCamp(ctx, "Leave Drive", 10)
	u := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "leave@college.edu", "donor")
	d := fx.CreateDonor(ctx, u.ID, "O-")
	if _, err := h.Camps.Register(ctx, camp.ID, d.ID, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/camps/"+camp.ID.Hex()+"/register",
		testutil.UserWithID(u.ID, "donor"))
	req = testutil.WithChiURLParam(req, "id", camp.ID.Hex())
	rec := testutil.NewRecorder()
	h.Unregister(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/camps/"+camp.ID.Hex()+"/register",
		testutil.UserWithID(u.ID, "donor"))
	req = testutil.WithChiURLParam(req, "id", camp.ID.Hex())
	rec = testutil.NewRecorder()
	h.Unregister(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "not registered")
}

func TestDeleteCampNotifiesRoster(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	camp := fx.CreateCamp(ctx, "Doomed Drive", 10)
	u := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "doomed@college.edu", "donor")
	d := fx.CreateDonor(ctx, u.ID, "O-")
	if _, err := h.Camps.Register(ctx, camp.ID, d.ID, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/camps/"+camp.ID.Hex(),
		testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", camp.ID.Hex())
	rec := testutil.NewRecorder()
	h.Delete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	cur, err := h.DB.Collection("notifications").Find(ctx, map[string]any{"user_id": u.ID})
	if err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	var notes []models.Notification
	if err := cur.All(ctx, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	found := false
	for _, n := range notes {
		if n.Type == models.NotifyCampCancelled {
			found = true
		}
	}
	if !found {
		t.Error("expected the registered donor to get a cancellation notification")
	}
}

func TestListFiltersByCity(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	fx.CreateCamp(ctx, "Mumbai Drive", 10)
	delhi := fx.CreateCamp(ctx, "Delhi Drive", 10)
	if _, err := h.DB.Collection("donation_camps").UpdateOne(ctx,
		map[string]any{"_id": delhi.ID},
		map[string]any{"$set": map[string]any{"location.city": "Delhi"}}); err != nil {
		t.Fatalf("move camp: %v", err)
	}

	req := testutil.NewRequest(http.MethodGet, "/api/camps?city=delhi")
	rec := testutil.NewRecorder()
	h.List(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Camps []models.DonationCamp `json:"camps"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Camps) != 1 || body.Camps[0].Name != "Delhi Drive" {
		t.Fatalf("city filter: got %d camps", len(body.Camps))
	}
}
