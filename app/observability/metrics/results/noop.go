package resultsmetrics

import (
	"context"
	"time"
)

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() ResultsMetrics {
	return &NoOpMetrics{}
}

func (*NoOpMetrics) RecordOperationAttempt(context.Context, string, string) {}
func (*NoOpMetrics) RecordOperationSuccess(context.Context, string, string) {}
func (*NoOpMetrics) RecordOperationFailure(context.Context, string, string) {}
func (*NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (*NoOpMetrics) RecordReportParsed(context.Context, int, int, int, bool) {}
func (*NoOpMetrics) RecordExport(context.Context, string) {}
