package resultsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const serviceName = "river"

// Metrics is the subset of the results metrics the queue records into.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// Service runs report imports in the background on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics Metrics
}

// NewService connects a pgx pool to dsn and builds a River client with the import worker
// registered. River needs pgx, so it does not share bun's connection.
func NewService(ctx context.Context, dsn string, maxWorkers int, importer Importer, logger *slog.Logger, metrics Metrics) (*Service, error) {
	ctxLogger := logger.With(attr.String("component", "river_queue"))

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", serviceName)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewImportReportWorker(importer, ctxLogger))

	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  ctxLogger,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", serviceName)
	metrics.RecordOperationDuration(ctx, "initialize_service", serviceName, time.Since(start))

	ctxLogger.Info("Results queue service initialized", attr.Int("max_workers", maxWorkers))
	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// Start begins working jobs. It returns once the client is running.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Results queue service started")
	return nil
}

// Stop waits for running jobs to finish and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Results queue service stopped")
	return nil
}

// EnqueueImport inserts an import job and returns its id.
func (s *Service) EnqueueImport(ctx context.Context, payload resultsevents.ReportSubmittedPayloadV1) (int64, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_import", serviceName)

	res, err := s.client.Insert(ctx, ImportReportArgs{
		Source:        payload.Source,
		Text:          payload.Text,
		FirstPageOnly: payload.FirstPageOnly,
	}, nil)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_import", serviceName)
		s.logger.ErrorContext(ctx, "Failed to enqueue import job",
			attr.ExtractCorrelationID(ctx),
			attr.String("source", payload.Source),
			attr.Error(err),
		)
		return 0, fmt.Errorf("failed to enqueue import job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_import", serviceName)
	s.metrics.RecordOperationDuration(ctx, "enqueue_import", serviceName, time.Since(start))

	s.logger.InfoContext(ctx, "Import job enqueued",
		attr.ExtractCorrelationID(ctx),
		attr.String("source", payload.Source),
		attr.Int64("job_id", res.Job.ID),
	)
	return res.Job.ID, nil
}

// HealthCheck pings the queue's pool.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}
