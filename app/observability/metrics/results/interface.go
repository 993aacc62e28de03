package resultsmetrics

import (
	"context"
	"time"
)

// ResultsMetrics records service operations and parse outcomes for the results module.
type ResultsMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	// RecordReportParsed records the outcome of a single report parse.
	RecordReportParsed(ctx context.Context, records, dnf, skipped int, truncated bool)

	// RecordExport counts exports by format (csv, xlsx, json).
	RecordExport(ctx context.Context, format string)
}
