package resultsmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewPrometheus(reg, "test")
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordOperationAttempt(ctx, "ImportReport", "ResultsService")
	metrics.RecordOperationAttempt(ctx, "ImportReport", "ResultsService")
	metrics.RecordOperationSuccess(ctx, "ImportReport", "ResultsService")
	metrics.RecordOperationFailure(ctx, "ImportReport", "ResultsService")
	metrics.RecordOperationDuration(ctx, "ImportReport", "ResultsService", 20*time.Millisecond)
	metrics.RecordReportParsed(ctx, 20, 3, 2, true)
	metrics.RecordReportParsed(ctx, 5, 0, 0, false)
	metrics.RecordExport(ctx, "csv")

	pm := metrics.(*promMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.attempts.WithLabelValues("ImportReport", "ResultsService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.successes.WithLabelValues("ImportReport", "ResultsService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.failures.WithLabelValues("ImportReport", "ResultsService")))
	assert.Equal(t, 25.0, testutil.ToFloat64(pm.records))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.dnfs))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.skipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reports.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.exports.WithLabelValues("csv")))
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg, "dup")
	require.NoError(t, err)

	_, err = NewPrometheus(reg, "dup")
	require.Error(t, err)
}
