// internal/app/features/admin/dashboard.go
package admin

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
	"github.com/openblood/donorhub/internal/domain/models"
)

type dashboardCounts struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalDonors     int64 `json:"totalDonors"`
	TotalRecipients int64 `json:"totalRecipients"`
	AvailableDonors int64 `json:"availableDonors"`
	TotalRequests   int64 `json:"totalRequests"`
	TotalCamps      int64 `json:"totalCamps"`
	UpcomingCamps   int64 `json:"upcomingCamps"`
	PendingClaims   int64 `json:"pendingClaims"`
	VerifiedClaims  int64 `json:"verifiedClaims"`
}

// Dashboard returns the admin console overview: headline counts,
// open-request breakdowns by blood group and urgency, six months of
// request trends, and the most recent requests. The independent
// aggregations run in parallel.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "admin.dashboard")
	defer cancel()

	var (
		counts         dashboardCounts
		requestsByBG   map[string]int64
		requestsByUrg  map[string]int64
		donorsByBG     map[string]int64
		statusCounts   map[string]int64
		trends         []requeststore.MonthlyPoint
		recentRequests []models.BloodRequest
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { counts.TotalUsers, err = h.Users.Count(gctx); return })
	g.Go(func() (err error) { counts.TotalDonors, err = h.Users.CountByRole(gctx, models.RoleDonor); return })
	g.Go(func() (err error) {
		counts.TotalRecipients, err = h.Users.CountByRole(gctx, models.RoleRecipient)
		return
	})
	g.Go(func() (err error) { counts.AvailableDonors, err = h.Donors.CountAvailable(gctx); return })
	g.Go(func() (err error) { counts.TotalRequests, err = h.Requests.Count(gctx); return })
	g.Go(func() (err error) { counts.TotalCamps, err = h.Camps.Count(gctx); return })
	g.Go(func() (err error) { counts.UpcomingCamps, err = h.Camps.CountUpcoming(gctx); return })
	g.Go(func() (err error) { counts.PendingClaims, err = h.Claims.CountPending(gctx); return })
	g.Go(func() (err error) { counts.VerifiedClaims, err = h.Claims.CountVerified(gctx); return })
	g.Go(func() (err error) { statusCounts, err = h.Requests.CountByStatus(gctx); return })
	g.Go(func() (err error) { requestsByBG, err = h.Requests.CountByBloodGroup(gctx); return })
	g.Go(func() (err error) { requestsByUrg, err = h.Requests.CountByUrgency(gctx); return })
	g.Go(func() (err error) { donorsByBG, err = h.Donors.CountByBloodGroup(gctx); return })
	g.Go(func() (err error) {
		since := time.Now().AddDate(0, -6, 0)
		trends, err = h.Requests.MonthlyTrends(gctx, since)
		return
	})
	g.Go(func() (err error) { recentRequests, err = h.Requests.Recent(gctx, 10); return })

	if err := g.Wait(); err != nil {
		h.Log.Error("dashboard aggregation", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	httpjson.OK(w, map[string]any{
		"counts":            counts,
		"requestsByStatus":  statusCounts,
		"requestsByGroup":   requestsByBG,
		"requestsByUrgency": requestsByUrg,
		"donorsByGroup":     donorsByBG,
		"monthlyTrends":     trends,
		"recentRequests":    recentRequests,
	})
}
