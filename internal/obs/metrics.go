package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RateLimited       *prometheus.CounterVec
	UpstreamErrors    *prometheus.CounterVec
	ReportsTotal      *prometheus.CounterVec
	VisitorIncrements prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bspot_requests_total",
				Help: "Total HTTP requests processed",
			},
			[]string{"endpoint", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bspot_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bspot_rate_limited_total",
				Help: "Requests rejected by the fixed-window limiter",
			},
			[]string{"endpoint"},
		),
		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bspot_upstream_errors_total",
				Help: "Completion service failures by category",
			},
			[]string{"category"}, // rate_limited, unavailable, other
		),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bspot_issue_reports_total",
				Help: "Issue-report notifications by outcome",
			},
			[]string{"outcome"}, // sent, failed
		),
		VisitorIncrements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bspot_visitor_increments_total",
				Help: "Successful visitor-counter increments",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RateLimited,
		m.UpstreamErrors,
		m.ReportsTotal,
		m.VisitorIncrements,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Middleware records per-request metrics, labelled by URL path. The service
// exposes a fixed handful of endpoints, so path cardinality is bounded.
func (m *Metrics) Middleware(skip map[string]struct{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			code := rec.status
			if code == 0 {
				code = http.StatusOK
			}

			m.RequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(code)).Inc()
		})
	}
}
