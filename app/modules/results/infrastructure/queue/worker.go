package resultsqueue

import (
	"context"
	"log/slog"
	"time"

	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/riverqueue/river"
)

// Importer is the part of the results service the worker needs.
type Importer interface {
	ImportReport(ctx context.Context, req resultsservice.ParseRequest) (*resultsservice.ImportResult, error)
}

// ImportReportWorker runs queued imports through the results service.
type ImportReportWorker struct {
	river.WorkerDefaults[ImportReportArgs]
	importer Importer
	logger   *slog.Logger
}

// NewImportReportWorker creates the import worker.
func NewImportReportWorker(importer Importer, logger *slog.Logger) *ImportReportWorker {
	return &ImportReportWorker{importer: importer, logger: logger}
}

// Timeout bounds a single import attempt.
func (w *ImportReportWorker) Timeout(*river.Job[ImportReportArgs]) time.Duration {
	return 2 * time.Minute
}

// Work imports the report. A report that is empty or has no rows will never succeed,
// so the job is cancelled instead of retried.
func (w *ImportReportWorker) Work(ctx context.Context, job *river.Job[ImportReportArgs]) error {
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.String("source", job.Args.Source),
		attr.Int("attempt", job.Attempt),
	)

	imported, err := w.importer.ImportReport(ctx, resultsservice.ParseRequest{
		Source:        job.Args.Source,
		Data:          []byte(job.Args.Text),
		FirstPageOnly: job.Args.FirstPageOnly,
	})
	if err != nil {
		if resultsservice.IsRejection(err) {
			logger.WarnContext(ctx, "Cancelling import job", attr.Error(err))
			return river.JobCancel(err)
		}
		logger.ErrorContext(ctx, "Import job failed", attr.Error(err))
		return err
	}

	logger.InfoContext(ctx, "Import job completed",
		attr.ReportID(imported.ReportID.String()),
		attr.Int("records", imported.RecordCount),
	)
	return nil
}
