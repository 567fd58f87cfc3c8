// internal/app/system/metrics/metrics.go
//
// Package metrics exposes Prometheus counters for the HTTP surface and
// a few domain events worth graphing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorhub_http_requests_total",
		Help: "HTTP requests by method, route pattern, and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "donorhub_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "donorhub_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})

	bloodRequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorhub_blood_requests_created_total",
		Help: "Blood requests created, by urgency.",
	}, []string{"urgency"})

	donorResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorhub_donor_responses_total",
		Help: "Donor responses to blood requests, by response.",
	}, []string{"response"})

	donationsVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donorhub_donations_verified_total",
		Help: "Donation claims verified by an admin.",
	})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorhub_notifications_sent_total",
		Help: "In-app notifications created, by type.",
	}, []string{"type"})
)

// RequestCreated records a new blood request.
func RequestCreated(urgency string) {
	bloodRequestsCreated.WithLabelValues(urgency).Inc()
}

// DonorResponded records an accept or decline.
func DonorResponded(response string) {
	donorResponses.WithLabelValues(response).Inc()
}

// DonationVerified records an approved claim.
func DonationVerified() { donationsVerified.Inc() }

// NotificationSent records a created notification.
func NotificationSent(typ string) {
	notificationsSent.WithLabelValues(typ).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request counts, latency, and in-flight gauge.
// The chi route pattern keeps label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inFlight.Inc()
		defer inFlight.Dec()

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
