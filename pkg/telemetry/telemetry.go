// Package telemetry exposes Prometheus request metrics and journal
// gauges for the /metrics endpoint.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nanopubd/pkg/journal"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nanopubd_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nanopubd_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// RegisterJournal exports the journal counters as gauges. Call once per
// process; duplicate registration panics by prometheus convention.
func RegisterJournal(j *journal.Journal) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "nanopubd_journal_next_nanopub_no",
		Help: "Next sequence number to be assigned.",
	}, func() float64 { return float64(j.NextNanopubNo()) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "nanopubd_journal_current_page",
		Help: "Current (not yet complete) journal page number.",
	}, func() float64 { return float64(j.CurrentPageNo()) })
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. Attach it with
// mux's Router.Use so the route template is available for labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
