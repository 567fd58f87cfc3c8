// internal/app/features/admin/analytics.go
package admin

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openblood/donorhub/internal/app/store/requests"
	"github.com/openblood/donorhub/internal/app/system/httpjson"
	"github.com/openblood/donorhub/internal/app/system/timeouts"
)

const (
	defaultAnalyticsMonths = 6
	maxAnalyticsMonths     = 24
)

// Analytics returns period-scoped request trends and fulfilment rates.
// The period is ?months=N counted back from now, clamped to 1..24.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	months := defaultAnalyticsMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpjson.Error(w, http.StatusBadRequest, "months must be a positive number")
			return
		}
		months = n
	}
	if months > maxAnalyticsMonths {
		months = maxAnalyticsMonths
	}
	since := time.Now().AddDate(0, -months, 0)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "admin.analytics")
	defer cancel()

	var (
		trends       []requeststore.MonthlyPoint
		statusCounts map[string]int64
		requestsByBG map[string]int64
		donorsByBG   map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { trends, err = h.Requests.MonthlyTrends(gctx, since); return })
	g.Go(func() (err error) { statusCounts, err = h.Requests.CountByStatus(gctx); return })
	g.Go(func() (err error) { requestsByBG, err = h.Requests.CountByBloodGroup(gctx); return })
	g.Go(func() (err error) { donorsByBG, err = h.Donors.CountByBloodGroup(gctx); return })
	if err := g.Wait(); err != nil {
		h.Log.Error("analytics aggregation", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	var periodRequests, periodCompleted int64
	for _, p := range trends {
		periodRequests += p.Requests
		periodCompleted += p.Completed
	}
	successRate := 0.0
	if periodRequests > 0 {
		successRate = float64(periodCompleted) / float64(periodRequests)
	}

	httpjson.OK(w, map[string]any{
		"period": map[string]any{
			"months": months,
			"since":  since,
		},
		"monthlyTrends":       trends,
		"periodRequests":      periodRequests,
		"periodCompleted":     periodCompleted,
		"successRate":         successRate,
		"requestsByStatus":    statusCounts,
		"openRequestsByGroup": requestsByBG,
		"donorsByGroup":       donorsByBG,
	})
}
