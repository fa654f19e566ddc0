// Package metrics holds the Prometheus collectors the service exports on
// /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is one registry plus the collectors registered on it. Every
// method is safe on a nil receiver so tests and the CLI can pass nil.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests   *prometheus.HistogramVec
	LoginAttempts  *prometheus.CounterVec
	RecordWrites   *prometheus.CounterVec
	BulkActions    *prometheus.CounterVec
	ExportsServed  *prometheus.CounterVec
	Provisioned    prometheus.Counter
	BlobBytesTotal prometheus.Counter
}

// New creates a fresh registry with the process and Go collectors plus the
// fieldaudit collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldaudit_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldaudit_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		RecordWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldaudit_record_writes_total",
			Help: "Audit and patient writes by entity and operation",
		}, []string{"entity", "op"}),
		BulkActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldaudit_bulk_action_rows_total",
			Help: "Rows touched by coordinator bulk actions",
		}, []string{"action", "result"}),
		ExportsServed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldaudit_exports_total",
			Help: "Spreadsheet exports served by format",
		}, []string{"format"}),
		Provisioned: f.NewCounter(prometheus.CounterOpts{
			Name: "fieldaudit_coordinators_provisioned_total",
			Help: "Coordinators provisioned",
		}),
		BlobBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "fieldaudit_blob_bytes_written_total",
			Help: "Bytes written to the blob store",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Login counts a login attempt: success, not_found, wrong_password,
// disabled or rate_limited.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordWrite counts an entity write ("audit"/"patient", "create"/"update"/"delete").
func (m *Metrics) RecordWrite(entity, op string) {
	if m == nil {
		return
	}
	m.RecordWrites.WithLabelValues(entity, op).Inc()
}

// Bulk counts affected and skipped rows of one bulk action.
func (m *Metrics) Bulk(action string, affected, skipped int) {
	if m == nil {
		return
	}
	m.BulkActions.WithLabelValues(action, "affected").Add(float64(affected))
	m.BulkActions.WithLabelValues(action, "skipped").Add(float64(skipped))
}

// Export counts a served export.
func (m *Metrics) Export(format string) {
	if m == nil {
		return
	}
	m.ExportsServed.WithLabelValues(format).Inc()
}

// CoordinatorProvisioned counts a successful provisioning.
func (m *Metrics) CoordinatorProvisioned() {
	if m == nil {
		return
	}
	m.Provisioned.Inc()
}

// BlobWritten adds n bytes to the blob counter.
func (m *Metrics) BlobWritten(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BlobBytesTotal.Add(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency labelled by the chi route pattern,
// so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
