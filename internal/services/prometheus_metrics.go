package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by PrometheusMetrics
const (
	MetricExpenseOperation    = "expense_operation"
	MetricStatsComputation    = "stats_computation"
	MetricStatsSkipped        = "stats_skipped_records"
	MetricStatsReportEntries  = "stats_report_entries"
	MetricAuthenticationEvent = "authentication_event"
	MetricTokensCleaned       = "blacklisted_tokens_cleaned"
	MetricExpensesImported    = "expenses_imported"
)

type PrometheusMetrics struct {
	expenseOperationsTotal    *prometheus.CounterVec
	statsComputationDuration  prometheus.Histogram
	statsSkippedRecordsTotal  prometheus.Counter
	statsReportSize           *prometheus.GaugeVec
	authenticationEventsTotal *prometheus.CounterVec
	tokensCleanedTotal        prometheus.Counter
	expensesImportedTotal     *prometheus.CounterVec
}

// NewPrometheusMetrics registers the service metrics with reg
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		expenseOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_operations_total",
				Help: "Total number of expense operations",
			},
			[]string{"operation", "status"},
		),
		statsComputationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stats_computation_duration_seconds",
				Help:    "Time spent loading and aggregating expense statistics",
				Buckets: prometheus.DefBuckets,
			},
		),
		statsSkippedRecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stats_skipped_records_total",
				Help: "Expense records left out of statistics because their date was unusable",
			},
		),
		statsReportSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stats_last_report_entries",
				Help: "Number of entries in the most recently computed report section",
			},
			[]string{"section"},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
		tokensCleanedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "blacklisted_tokens_cleaned_total",
				Help: "Total number of expired blacklisted tokens removed",
			},
		),
		expensesImportedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expenses_imported_total",
				Help: "Total number of expense records processed by the importer",
			},
			[]string{"status"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricExpenseOperation:
		if operation := tags["operation"]; operation != "" {
			m.expenseOperationsTotal.WithLabelValues(operation, statusOrDefault(tags)).Inc()
		}
	case MetricAuthenticationEvent:
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	case MetricExpensesImported:
		m.expensesImportedTotal.WithLabelValues(statusOrDefault(tags)).Inc()
	}
}

// AddCounter adds value to a monotonic counter; non-positive values are ignored
func (m *PrometheusMetrics) AddCounter(name string, value float64, tags map[string]string) {
	if value <= 0 {
		return
	}

	switch name {
	case MetricStatsSkipped:
		m.statsSkippedRecordsTotal.Add(value)
	case MetricTokensCleaned:
		m.tokensCleanedTotal.Add(value)
	case MetricExpensesImported:
		m.expensesImportedTotal.WithLabelValues(statusOrDefault(tags)).Add(value)
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case MetricStatsComputation:
		m.statsComputationDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricStatsReportEntries:
		if section := tags["section"]; section != "" {
			m.statsReportSize.WithLabelValues(section).Set(value)
		}
	}
}

func statusOrDefault(tags map[string]string) string {
	if status := tags["status"]; status != "" {
		return status
	}
	return "success"
}
