package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Reconstruction metrics
	passesTotal       prometheus.Counter
	passErrorsTotal   prometheus.Counter
	jobsTotal         prometheus.Counter
	passDuration      prometheus.Histogram
	fetchErrorsTotal  prometheus.Counter

	// Export metrics
	exportsTotal    *prometheus.CounterVec
	exportRowsTotal *prometheus.CounterVec

	// Monitor metrics
	jobsByStatus     *prometheus.GaugeVec
	durationMean     prometheus.Gauge
	durationMax      prometheus.Gauge
	alertsTotal      *prometheus.CounterVec
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initReconstructionMetrics(reg)
	s.initExportMetrics(reg)
	s.initMonitorMetrics(reg)
	return s
}

func (s *PrometheusSink) initReconstructionMetrics(reg prometheus.Registerer) {
	s.passesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draftaudit_reconstruction_passes_total",
		Help: "Total number of reconstruction passes run.",
	})
	s.passErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draftaudit_reconstruction_errors_total",
		Help: "Total number of reconstruction passes that failed.",
	})
	s.jobsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draftaudit_reconstruction_jobs_total",
		Help: "Total number of draft jobs reconstructed across all passes.",
	})
	s.passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "draftaudit_reconstruction_duration_seconds",
		Help:    "Duration of each reconstruction pass in seconds, fetch included.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
	s.fetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draftaudit_event_fetch_errors_total",
		Help: "Total number of failed event store fetches.",
	})

	s.register(reg, s.passesTotal, "draftaudit_reconstruction_passes_total")
	s.register(reg, s.passErrorsTotal, "draftaudit_reconstruction_errors_total")
	s.register(reg, s.jobsTotal, "draftaudit_reconstruction_jobs_total")
	s.register(reg, s.passDuration, "draftaudit_reconstruction_duration_seconds")
	s.register(reg, s.fetchErrorsTotal, "draftaudit_event_fetch_errors_total")
}

func (s *PrometheusSink) initExportMetrics(reg prometheus.Registerer) {
	s.exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draftaudit_exports_total",
		Help: "Total number of completed exports by format.",
	}, []string{"format"})
	s.exportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draftaudit_export_rows_total",
		Help: "Total number of data rows exported by format.",
	}, []string{"format"})

	s.register(reg, s.exportsTotal, "draftaudit_exports_total")
	s.register(reg, s.exportRowsTotal, "draftaudit_export_rows_total")
}

func (s *PrometheusSink) initMonitorMetrics(reg prometheus.Registerer) {
	s.jobsByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "draftaudit_jobs_by_status",
		Help: "Draft jobs in the monitor window by derived status.",
	}, []string{"status"})
	s.durationMean = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "draftaudit_job_duration_mean_seconds",
		Help: "Mean duration of finished jobs in the monitor window.",
	})
	s.durationMax = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "draftaudit_job_duration_max_seconds",
		Help: "Max duration of finished jobs in the monitor window.",
	})
	s.alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draftaudit_alerts_total",
		Help: "Total number of failure-alert webhook deliveries by outcome.",
	}, []string{"outcome"})

	s.register(reg, s.jobsByStatus, "draftaudit_jobs_by_status")
	s.register(reg, s.durationMean, "draftaudit_job_duration_mean_seconds")
	s.register(reg, s.durationMax, "draftaudit_job_duration_max_seconds")
	s.register(reg, s.alertsTotal, "draftaudit_alerts_total")
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: register %s: %v", name, err)
	}
}

func (s *PrometheusSink) ReconstructionCompleted(duration time.Duration, jobs int, err error) {
	s.passesTotal.Inc()
	s.passDuration.Observe(duration.Seconds())
	if err != nil {
		s.passErrorsTotal.Inc()
		return
	}
	s.jobsTotal.Add(float64(jobs))
}

func (s *PrometheusSink) FetchError() {
	s.fetchErrorsTotal.Inc()
}

func (s *PrometheusSink) ExportCompleted(format string, rows int) {
	s.exportsTotal.WithLabelValues(format).Inc()
	s.exportRowsTotal.WithLabelValues(format).Add(float64(rows))
}

func (s *PrometheusSink) JobsByStatusUpdate(status string, count int) {
	s.jobsByStatus.WithLabelValues(status).Set(float64(count))
}

func (s *PrometheusSink) DurationStatsUpdate(meanSeconds, maxSeconds float64) {
	s.durationMean.Set(meanSeconds)
	s.durationMax.Set(maxSeconds)
}

func (s *PrometheusSink) AlertDelivered(ok bool) {
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	s.alertsTotal.WithLabelValues(outcome).Inc()
}

// Verify PrometheusSink implements Sink interface.
var _ Sink = (*PrometheusSink)(nil)
