package resultsservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/exporters"
	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/parsers"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	resultsmetrics "github.com/Black-And-White-Club/mtb-results/app/observability/metrics/results"
	"github.com/Black-And-White-Club/mtb-results/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ResultsService"

// ResultsService implements the Service interface.
type ResultsService struct {
	repo      resultsdb.Repository
	logger    *slog.Logger
	metrics   resultsmetrics.ResultsMetrics
	tracer    trace.Tracer
	db        *bun.DB
	notifier  ImportNotifier
	exporters exporters.ExporterFactory
	pageSize  int
	firstPage bool
	palette   ChartPalette
	now       func() time.Time
}

// Option customizes a ResultsService.
type Option func(*ResultsService)

// WithNotifier sets the collaborator told about every stored report.
func WithNotifier(n ImportNotifier) Option {
	return func(s *ResultsService) { s.notifier = n }
}

// WithPageSize sets the default first-page record limit.
func WithPageSize(n int) Option {
	return func(s *ResultsService) { s.pageSize = n }
}

// WithFirstPageOnly sets whether requests that do not say otherwise stop at the first page.
func WithFirstPageOnly(b bool) Option {
	return func(s *ResultsService) { s.firstPage = b }
}

// WithChartPalette overrides the default chart colors.
func WithChartPalette(p ChartPalette) Option {
	return func(s *ResultsService) { s.palette = p }
}

// NewResultsService creates a new ResultsService.
func NewResultsService(
	repo resultsdb.Repository,
	logger *slog.Logger,
	metrics resultsmetrics.ResultsMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	opts ...Option,
) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ResultsService{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		exporters: exporters.NewFactory(),
		pageSize:  parsers.DefaultPageSize,
		palette:   DefaultChartPalette,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ResultsService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ResultsService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// unwrap converts a two-channel result into the (value, error) pair returned to callers.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
