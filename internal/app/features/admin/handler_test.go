package admin_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/features/admin"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func newTestHandler(t *testing.T) *admin.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return admin.NewHandler(db, zap.NewNop())
}

func TestDashboardCounts(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor@college.edu", "donor")
	recipient := fx.CreateVerifiedUser(ctx, "Asha Rao", "recipient@college.edu", "recipient")
	d := fx.CreateDonor(ctx, donorUser.ID, "O-")
	fx.CreateBloodRequest(ctx, recipient.ID, "A+", 2)
	fx.CreateCamp(ctx, "Campus Drive", 50)
	fx.CreateClaim(ctx, d.ID, donorUser.ID, 1)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/admin/dashboard",
		testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.Dashboard(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Counts struct {
			TotalUsers      int64 `json:"totalUsers"`
			TotalDonors     int64 `json:"totalDonors"`
			TotalRecipients int64 `json:"totalRecipients"`
			AvailableDonors int64 `json:"availableDonors"`
			TotalRequests   int64 `json:"totalRequests"`
			TotalCamps      int64 `json:"totalCamps"`
			UpcomingCamps   int64 `json:"upcomingCamps"`
			PendingClaims   int64 `json:"pendingClaims"`
		} `json:"counts"`
		RequestsByUrgency map[string]int64      `json:"requestsByUrgency"`
		RecentRequests    []models.BloodRequest `json:"recentRequests"`
	}
	rec.DecodeJSON(t, &body)

	if body.Counts.TotalUsers != 2 {
		t.Errorf("totalUsers: got %d, want 2", body.Counts.TotalUsers)
	}
	if body.Counts.TotalDonors != 1 || body.Counts.TotalRecipients != 1 {
		t.Errorf("role counts: donors=%d recipients=%d, want 1/1",
			body.Counts.TotalDonors, body.Counts.TotalRecipients)
	}
	if body.Counts.AvailableDonors != 1 {
		t.Errorf("availableDonors: got %d, want 1", body.Counts.AvailableDonors)
	}
	if body.Counts.TotalRequests != 1 || body.Counts.TotalCamps != 1 {
		t.Errorf("requests=%d camps=%d, want 1/1",
			body.Counts.TotalRequests, body.Counts.TotalCamps)
	}
	if body.Counts.UpcomingCamps != 1 {
		t.Errorf("upcomingCamps: got %d, want 1", body.Counts.UpcomingCamps)
	}
	if body.Counts.PendingClaims != 1 {
		t.Errorf("pendingClaims: got %d, want 1", body.Counts.PendingClaims)
	}
	if body.RequestsByUrgency["high"] != 1 {
		t.Errorf("requestsByUrgency[high]: got %d, want 1", body.RequestsByUrgency["high"])
	}
	if len(body.RecentRequests) != 1 {
		t.Errorf("recentRequests: got %d, want 1", len(body.RecentRequests))
	}
}

func TestSetUserStatus(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	adminUser := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")
	target := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "target@college.edu", "donor")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/users/"+target.ID.Hex()+"/status",
		map[string]any{"isActive": false}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := testutil.NewRecorder()
	h.SetUserStatus(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "User deactivated")

	u, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.IsActive {
		t.Error("user should be deactivated")
	}

	// Reactivate.
	req = testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/users/"+target.ID.Hex()+"/status",
		map[string]any{"isActive": true}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec = testutil.NewRecorder()
	h.SetUserStatus(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "User activated")
}

func TestSetUserStatusRejectsSelfDeactivation(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	adminUser := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/users/"+adminUser.ID.Hex()+"/status",
		map[string]any{"isActive": false}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", adminUser.ID.Hex())
	rec := testutil.NewRecorder()
	h.SetUserStatus(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "cannot deactivate your own account")
}

func TestVerifyDonorNotifies(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	adminUser := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")
	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor@college.edu", "donor")
	d := fx.CreateDonor(ctx, donorUser.ID, "B+")

	// Fixture donors start verified; clear the flag first.
	if err := h.Donors.SetVerified(ctx, d.ID, false); err != nil {
		t.Fatalf("unverify donor: %v", err)
	}

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/donors/"+d.ID.Hex()+"/verify",
		map[string]any{"isVerified": true}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.VerifyDonor(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Donor verified")

	updated, err := h.Donors.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("reload donor: %v", err)
	}
	if !updated.IsVerified {
		t.Error("donor should be verified")
	}
	if updated.VerificationDate == nil {
		t.Error("verification date should be set")
	}

	cur, err := h.DB.Collection("notifications").Find(ctx, map[string]any{"user_id": donorUser.ID})
	if err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	var notes []models.Notification
	if err := cur.All(ctx, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Type != models.NotifySystemAlert {
		t.Errorf("notifications = %+v, want one system alert", notes)
	}
}

func TestVerifyRequestToggle(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	adminUser := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")
	recipient := fx.CreateVerifiedUser(ctx, "Asha Rao", "recipient@college.edu", "recipient")
	blood := fx.CreateBloodRequest(ctx, recipient.ID, "A+", 2)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/requests/"+blood.ID.Hex()+"/verify",
		map[string]any{"isVerified": false}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", blood.ID.Hex())
	rec := testutil.NewRecorder()
	h.VerifyRequest(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Request verification removed")

	reloaded, err := h.Requests.GetByID(ctx, blood.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloaded.IsVerified {
		t.Error("request should be unverified")
	}

	// The requester hears about the toggle.
	n, err := h.DB.Collection("notifications").CountDocuments(ctx, map[string]any{"user_id": recipient.ID})
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if n != 1 {
		t.Errorf("notifications: got %d, want 1", n)
	}
}

func TestAnnouncementBroadcastsToRole(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	donorUser := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor@college.edu", "donor")
	fx.CreateVerifiedUser(ctx, "Asha Rao", "recipient@college.edu", "recipient")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/admin/announcement",
		map[string]any{
			"title":      "Urgent need for O- blood",
			"message":    "City Hospital is short on O- units this week.",
			"targetRole": "donor",
			"priority":   "high",
		}, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.Announce(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"usersNotified":1`)

	n, err := h.DB.Collection("notifications").CountDocuments(ctx, map[string]any{"user_id": donorUser.ID})
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if n != 1 {
		t.Errorf("donor notifications: got %d, want 1", n)
	}
}

func TestListUsersFiltersByRole(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	fx.CreateVerifiedUser(ctx, "Ravi Kumar", "donor@college.edu", "donor")
	fx.CreateVerifiedUser(ctx, "Asha Rao", "recipient@college.edu", "recipient")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/admin/users?role=donor",
		testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ListUsers(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Users []models.User `json:"users"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Users) != 1 || body.Users[0].Email != "donor@college.edu" {
		t.Errorf("users = %+v, want only the donor", body.Users)
	}
}

func TestAnalyticsSuccessRate(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	recipient := fx.CreateVerifiedUser(ctx, "Asha Rao", "recipient@college.edu", "recipient")
	fx.CreateBloodRequest(ctx, recipient.ID, "A+", 2)
	done := fx.CreateBloodRequest(ctx, recipient.ID, "B+", 1)
	_, err := h.DB.Collection("blood_requests").UpdateOne(ctx,
		map[string]any{"_id": done.ID},
		map[string]any{"$set": map[string]any{"status": models.RequestStatusCompleted}})
	if err != nil {
		t.Fatalf("complete request: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/admin/analytics?months=3",
		testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.Analytics(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		PeriodRequests  int64   `json:"periodRequests"`
		PeriodCompleted int64   `json:"periodCompleted"`
		SuccessRate     float64 `json:"successRate"`
	}
	rec.DecodeJSON(t, &body)
	if body.PeriodRequests != 2 || body.PeriodCompleted != 1 {
		t.Errorf("period counts: requests=%d completed=%d, want 2/1",
			body.PeriodRequests, body.PeriodCompleted)
	}
	if body.SuccessRate != 0.5 {
		t.Errorf("successRate: got %v, want 0.5", body.SuccessRate)
	}

	// Nonsense period is rejected.
	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/admin/analytics?months=0",
		testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.Analytics(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestAuditLogRecordsAdminActions(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, h.DB)

	adminUser := fx.CreateVerifiedUser(ctx, "Admin", "admin@college.edu", "admin")
	target := fx.CreateVerifiedUser(ctx, "Ravi Kumar", "target@college.edu", "donor")

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/api/admin/users/"+target.ID.Hex()+"/status",
		map[string]any{"isActive": false}, testutil.UserWithID(adminUser.ID, "admin"))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := testutil.NewRecorder()
	h.SetUserStatus(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest(http.MethodGet,
		"/api/admin/audit-log?event=user_disabled", testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.AuditLog(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Events []struct {
			EventType string `json:"eventType"`
			ActorID   string `json:"actorId"`
			SubjectID string `json:"subjectId"`
		} `json:"events"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 1 {
		t.Fatalf("audit events: got %d, want 1", len(body.Events))
	}
	ev := body.Events[0]
	if ev.ActorID != adminUser.ID.Hex() || ev.SubjectID != target.ID.Hex() {
		t.Errorf("event actors: actor=%s subject=%s", ev.ActorID, ev.SubjectID)
	}

	// Bad actor filter is rejected.
	req = testutil.NewAuthenticatedRequest(http.MethodGet,
		"/api/admin/audit-log?actorId=nope", testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.AuditLog(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}
