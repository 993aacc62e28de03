package resultsservice

import (
	"context"
	"errors"
	"fmt"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/mtb-results/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetReport returns a stored report with its categories in document order.
func (s *ResultsService) GetReport(ctx context.Context, id uuid.UUID) (*ReportSummary, error) {
	return unwrap(withTelemetry(s, ctx, "GetReport", id.String(), func(ctx context.Context) (results.OperationResult[*ReportSummary, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*ReportSummary, error], error) {
			return s.getReportLogic(ctx, db, id)
		})
	}))
}

// getReportLogic contains the core logic.
func (s *ResultsService) getReportLogic(ctx context.Context, db bun.IDB, id uuid.UUID) (results.OperationResult[*ReportSummary, error], error) {
	report, err := s.repo.GetReport(ctx, db, id)
	if err != nil {
		if errors.Is(err, resultsdb.ErrNotFound) {
			return results.FailureResult[*ReportSummary, error](ErrReportNotFound), nil
		}
		return results.OperationResult[*ReportSummary, error]{}, fmt.Errorf("failed to get report: %w", err)
	}

	categories, err := s.repo.ListCategories(ctx, db, id)
	if err != nil {
		return results.OperationResult[*ReportSummary, error]{}, fmt.Errorf("failed to list categories: %w", err)
	}

	summary := newReportSummary(report)
	summary.Categories = categories
	return results.SuccessResult[*ReportSummary, error](&summary), nil
}

// ListReports returns stored reports, newest first.
func (s *ResultsService) ListReports(ctx context.Context, q ReportQuery) ([]ReportSummary, error) {
	return unwrap(withTelemetry(s, ctx, "ListReports", q.Year+"/"+q.Region, func(ctx context.Context) (results.OperationResult[[]ReportSummary, error], error) {
		reports, err := s.repo.ListReports(ctx, s.idb(), resultsdb.ReportFilter{
			Year:   q.Year,
			Region: q.Region,
			Limit:  q.Limit,
			Offset: q.Offset,
		})
		if err != nil {
			return results.OperationResult[[]ReportSummary, error]{}, fmt.Errorf("failed to list reports: %w", err)
		}

		out := make([]ReportSummary, len(reports))
		for i := range reports {
			out[i] = newReportSummary(&reports[i])
		}
		return results.SuccessResult[[]ReportSummary, error](out), nil
	}))
}

// ListResults returns the records of one report in document order, stamped with its header.
func (s *ResultsService) ListResults(ctx context.Context, id uuid.UUID, q ResultQuery) ([]resultstypes.ResultRecord, error) {
	return unwrap(withTelemetry(s, ctx, "ListResults", id.String(), func(ctx context.Context) (results.OperationResult[[]resultstypes.ResultRecord, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]resultstypes.ResultRecord, error], error) {
			return s.listResultsLogic(ctx, db, id, q)
		})
	}))
}

// listResultsLogic contains the core logic.
func (s *ResultsService) listResultsLogic(ctx context.Context, db bun.IDB, id uuid.UUID, q ResultQuery) (results.OperationResult[[]resultstypes.ResultRecord, error], error) {
	report, err := s.repo.GetReport(ctx, db, id)
	if err != nil {
		if errors.Is(err, resultsdb.ErrNotFound) {
			return results.FailureResult[[]resultstypes.ResultRecord, error](ErrReportNotFound), nil
		}
		return results.OperationResult[[]resultstypes.ResultRecord, error]{}, fmt.Errorf("failed to get report: %w", err)
	}

	rows, err := s.repo.ListResults(ctx, db, resultsdb.ResultFilter{
		ReportID: id,
		Category: q.Category,
		Team:     q.Team,
	})
	if err != nil {
		return results.OperationResult[[]resultstypes.ResultRecord, error]{}, fmt.Errorf("failed to list results: %w", err)
	}

	header := report.Header()
	records := make([]resultstypes.ResultRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].Record(header)
	}
	return results.SuccessResult[[]resultstypes.ResultRecord, error](records), nil
}

// DeleteReport removes a report and its rows.
func (s *ResultsService) DeleteReport(ctx context.Context, id uuid.UUID) error {
	_, err := unwrap(withTelemetry(s, ctx, "DeleteReport", id.String(), func(ctx context.Context) (results.OperationResult[uuid.UUID, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[uuid.UUID, error], error) {
			if err := s.repo.DeleteReport(ctx, db, id); err != nil {
				if errors.Is(err, resultsdb.ErrNotFound) {
					return results.FailureResult[uuid.UUID, error](ErrReportNotFound), nil
				}
				return results.OperationResult[uuid.UUID, error]{}, fmt.Errorf("failed to delete report: %w", err)
			}
			return results.SuccessResult[uuid.UUID, error](id), nil
		})
	}))
	return err
}

// idb returns the service database as a bun.IDB, or nil when none is configured.
func (s *ResultsService) idb() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}
