package resultsmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type promMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec

	reports *prometheus.CounterVec
	records prometheus.Counter
	dnfs    prometheus.Counter
	skipped prometheus.Counter
	exports *prometheus.CounterVec
}

// NewPrometheus registers the results collectors on reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) (ResultsMetrics, error) {
	m := &promMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_parsed_total",
			Help:      "Reports parsed, by whether the first-page limit was hit.",
		}, []string{"truncated"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Result records produced by the parser.",
		}),
		dnfs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dnf_records_total",
			Help:      "DNF records produced by the parser.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_lines_total",
			Help:      "Row candidates rejected by the row grammar.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports written, by format.",
		}, []string{"format"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts, m.successes, m.failures, m.duration,
		m.reports, m.records, m.dnfs, m.skipped, m.exports,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *promMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *promMetrics) RecordReportParsed(_ context.Context, records, dnf, skipped int, truncated bool) {
	label := "false"
	if truncated {
		label = "true"
	}
	m.reports.WithLabelValues(label).Inc()
	m.records.Add(float64(records))
	m.dnfs.Add(float64(dnf))
	m.skipped.Add(float64(skipped))
}

func (m *promMetrics) RecordExport(_ context.Context, format string) {
	m.exports.WithLabelValues(format).Inc()
}
