package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the Prometheus instrumentation shared by the HTTP
// surface and the scheduler.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	invoicesCreated *prometheus.CounterVec
	paymentsApplied *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobErrors       *prometheus.CounterVec
	invoicesSwept   prometheus.Counter
	lateFees        prometheus.Counter
	reminders       prometheus.Counter
}

// NewMetrics registers and returns the process-wide metrics.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invosync_api_requests_total",
		Help: "Counts API requests by method, route and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invosync_api_duration_seconds",
		Help:    "API request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	invoicesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invosync_invoices_total",
		Help: "Invoices created by status.",
	}, []string{"status"})

	paymentsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invosync_payments_total",
		Help: "Payments applied by mode.",
	}, []string{"mode"})

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invosync_job_runs_total",
		Help: "Scheduler job runs by job and outcome.",
	}, []string{"job", "status"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invosync_job_duration_seconds",
		Help:    "Scheduler job durations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invosync_job_errors_total",
		Help: "Scheduler job errors by job and class.",
	}, []string{"job", "class"})

	invoicesSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invosync_overdue_invoices_total",
		Help: "Invoices flipped to overdue by the sweep.",
	})

	lateFees := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invosync_late_fees_total",
		Help: "Late fee line items appended by the sweep.",
	})

	reminders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invosync_due_reminders_total",
		Help: "Due-tomorrow reminders queued.",
	})

	prometheus.MustRegister(
		apiRequests,
		apiDuration,
		invoicesCreated,
		paymentsApplied,
		jobRuns,
		jobDuration,
		jobErrors,
		invoicesSwept,
		lateFees,
		reminders,
	)

	return &Metrics{
		apiRequests:     apiRequests,
		apiDuration:     apiDuration,
		invoicesCreated: invoicesCreated,
		paymentsApplied: paymentsApplied,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
		jobErrors:       jobErrors,
		invoicesSwept:   invoicesSwept,
		lateFees:        lateFees,
		reminders:       reminders,
	}
}

// ObserveAPIRequest records an API request and its latency.
func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveInvoiceCreated counts a created invoice by its initial status.
func (m *Metrics) ObserveInvoiceCreated(status string) {
	if m == nil {
		return
	}
	m.invoicesCreated.WithLabelValues(status).Inc()
}

// ObservePayment counts an applied payment by mode.
func (m *Metrics) ObservePayment(mode string) {
	if m == nil {
		return
	}
	m.paymentsApplied.WithLabelValues(mode).Inc()
}

// ObserveJobRun records one scheduler job execution.
func (m *Metrics) ObserveJobRun(job string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		m.jobErrors.WithLabelValues(job, classifyError(err)).Inc()
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// ObserveSweep records the outcome counters of one overdue sweep.
func (m *Metrics) ObserveSweep(updated, feesAdded, notified int) {
	if m == nil {
		return
	}
	m.invoicesSwept.Add(float64(updated))
	m.lateFees.Add(float64(feesAdded))
	m.reminders.Add(float64(notified))
}

// classifyError buckets job errors into coarse classes so the error
// counter keeps a bounded cardinality.
func classifyError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "duplicate_key"
		case "40001", "40P01":
			return "serialization"
		default:
			return "database"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "other"
}
