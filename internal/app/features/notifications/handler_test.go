package notifications_test

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/openblood/donorhub/internal/app/features/notifications"
	"github.com/openblood/donorhub/internal/domain/models"
	"github.com/openblood/donorhub/internal/testutil"
)

func newTestHandler(t *testing.T) *notifications.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return notifications.NewHandler(db, zap.NewNop())
}

func seed(t *testing.T, h *notifications.Handler, userID primitive.ObjectID, n int) []models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		created, err := h.Notifications.Create(ctx, models.Notification{
			UserID:   userID,
			Type:     models.NotifySystemAlert,
			Title:    "Test",
			Message:  "Hello",
			Priority: models.PriorityMedium,
		})
		if err != nil {
			t.Fatalf("seed notification: %v", err)
		}
		out = append(out, created)
	}
	return out
}

func TestListWithUnreadCount(t *testing.T) {
	h := newTestHandler(t)
	userID := primitive.NewObjectID()
	seed(t, h, userID, 3)
	seed(t, h, primitive.NewObjectID(), 2) // someone else's inbox

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notifications",
		testutil.UserWithID(userID, "donor"))
	rec := testutil.NewRecorder()
	h.List(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"unreadCount":3`)

	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Notifications) != 3 {
		t.Fatalf("inbox size: got %d, want 3", len(body.Notifications))
	}
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	h := newTestHandler(t)
	owner := primitive.NewObjectID()
	notes := seed(t, h, owner, 1)

	// A different user cannot mark it.
	req := testutil.NewAuthenticatedRequest(http.MethodPut,
		"/api/notifications/"+notes[0].ID.Hex()+"/read",
		testutil.UserWithID(primitive.NewObjectID(), "donor"))
	req = testutil.WithChiURLParam(req, "id", notes[0].ID.Hex())
	rec := testutil.NewRecorder()
	h.MarkRead(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)

	req = testutil.NewAuthenticatedRequest(http.MethodPut,
		"/api/notifications/"+notes[0].ID.Hex()+"/read",
		testutil.UserWithID(owner, "donor"))
	req = testutil.WithChiURLParam(req, "id", notes[0].ID.Hex())
	rec = testutil.NewRecorder()
	h.MarkRead(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestMarkAllReadThenListShowsZeroUnread(t *testing.T) {
	h := newTestHandler(t)
	userID := primitive.NewObjectID()
	seed(t, h, userID, 4)

	req := testutil.NewAuthenticatedRequest(http.MethodPut, "/api/notifications/read-all",
		testutil.UserWithID(userID, "donor"))
	rec := testutil.NewRecorder()
	h.MarkAllRead(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"markedCount":4`)

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notifications",
		testutil.UserWithID(userID, "donor"))
	rec = testutil.NewRecorder()
	h.List(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"unreadCount":0`)
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	h := newTestHandler(t)
	userID := primitive.NewObjectID()
	notes := seed(t, h, userID, 1)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/notifications/"+notes[0].ID.Hex(),
		testutil.UserWithID(userID, "donor"))
	req = testutil.WithChiURLParam(req, "id", notes[0].ID.Hex())
	rec := testutil.NewRecorder()
	h.Delete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/notifications/"+notes[0].ID.Hex(),
		testutil.UserWithID(userID, "donor"))
	req = testutil.WithChiURLParam(req, "id", notes[0].ID.Hex())
	rec = testutil.NewRecorder()
	h.Delete(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}
