package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*PrometheusMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, ok := NewPrometheusMetrics(reg).(*PrometheusMetrics)
	require.True(t, ok)
	return m, reg
}

func TestPrometheusMetrics_ExpenseOperations(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.IncrementCounter(MetricExpenseOperation, map[string]string{"operation": "create"})
	m.IncrementCounter(MetricExpenseOperation, map[string]string{"operation": "create", "status": "failed"})
	m.IncrementCounter(MetricExpenseOperation, map[string]string{"operation": "create"})
	m.IncrementCounter(MetricExpenseOperation, map[string]string{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.expenseOperationsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expenseOperationsTotal.WithLabelValues("create", "failed")))
}

func TestPrometheusMetrics_AuthenticationEvents(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.IncrementCounter(MetricAuthenticationEvent, map[string]string{"event_type": "login_success"})
	m.IncrementCounter(MetricAuthenticationEvent, map[string]string{"event_type": ""})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authenticationEventsTotal.WithLabelValues("login_success")))
}

func TestPrometheusMetrics_StatsSkippedOnlyCountsPositive(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.AddCounter(MetricStatsSkipped, 3, nil)
	m.AddCounter(MetricStatsSkipped, 0, nil)
	m.AddCounter(MetricStatsSkipped, 2, nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.statsSkippedRecordsTotal))
}

func TestPrometheusMetrics_TokensCleanedAccumulates(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.AddCounter(MetricTokensCleaned, 4, nil)
	m.AddCounter(MetricTokensCleaned, 1, nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.tokensCleanedTotal))
}

func TestPrometheusMetrics_GaugeDoesNotTouchCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordGauge(MetricStatsSkipped, 3, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.statsSkippedRecordsTotal))
}

func TestPrometheusMetrics_ReportEntries(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordGauge(MetricStatsReportEntries, 4, map[string]string{"section": "by_category"})
	m.RecordGauge(MetricStatsReportEntries, 2, map[string]string{"section": "by_category"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.statsReportSize.WithLabelValues("by_category")))
}

func TestPrometheusMetrics_StatsDuration(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordProcessingTime(MetricStatsComputation, 15*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "stats_computation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusMetrics(prometheus.NewRegistry())
		NewPrometheusMetrics(prometheus.NewRegistry())
	})
}
