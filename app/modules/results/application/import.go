package resultsservice

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/parsers"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/Black-And-White-Club/mtb-results/pkg/results"
	"github.com/uptrace/bun"
	"github.com/zeebo/blake3"
)

// ReportChecksum is the hex BLAKE3 digest of the preprocessed document, so BOM and
// line-ending differences do not defeat duplicate detection.
func ReportChecksum(data []byte) string {
	sum := blake3.Sum256([]byte(parsers.Preprocess(data)))
	return hex.EncodeToString(sum[:])
}

// ParseReport parses a document without storing it.
func (s *ResultsService) ParseReport(ctx context.Context, req ParseRequest) (*resultstypes.ParsedReport, error) {
	return unwrap(withTelemetry(s, ctx, "ParseReport", req.Source, func(ctx context.Context) (results.OperationResult[*resultstypes.ParsedReport, error], error) {
		if len(bytes.TrimSpace(req.Data)) == 0 {
			return results.FailureResult[*resultstypes.ParsedReport, error](ErrEmptyReport), nil
		}
		parsed := s.parse(ctx, req)
		return results.SuccessResult[*resultstypes.ParsedReport, error](&parsed), nil
	}))
}

// ImportReport parses a document and stores the report with its rows in one transaction.
// The notifier, when configured, is called after the transaction commits.
func (s *ResultsService) ImportReport(ctx context.Context, req ParseRequest) (*ImportResult, error) {
	imported, err := unwrap(withTelemetry(s, ctx, "ImportReport", req.Source, func(ctx context.Context) (results.OperationResult[*ImportResult, error], error) {
		if len(bytes.TrimSpace(req.Data)) == 0 {
			return results.FailureResult[*ImportResult, error](ErrEmptyReport), nil
		}

		parsed := s.parse(ctx, req)
		if len(parsed.Records) == 0 {
			return results.FailureResult[*ImportResult, error](ErrNoResults), nil
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*ImportResult, error], error) {
			return s.storeReportLogic(ctx, db, req, parsed)
		})
		// A concurrent import of the same text won the unique index.
		if errors.Is(err, resultsdb.ErrDuplicateChecksum) {
			return results.FailureResult[*ImportResult, error](fmt.Errorf("%w: checksum %s", ErrDuplicateReport, ReportChecksum(req.Data))), nil
		}
		return result, err
	}))
	if err != nil {
		return nil, err
	}

	s.notifyImported(ctx, imported)
	return imported, nil
}

// storeReportLogic contains the core logic.
func (s *ResultsService) storeReportLogic(ctx context.Context, db bun.IDB, req ParseRequest, parsed resultstypes.ParsedReport) (results.OperationResult[*ImportResult, error], error) {
	checksum := ReportChecksum(req.Data)
	firstPageOnly := s.firstPageOnly(req)

	existing, err := s.repo.FindReportByChecksum(ctx, db, checksum, firstPageOnly)
	switch {
	case err == nil:
		return results.FailureResult[*ImportResult, error](fmt.Errorf("%w: %s", ErrDuplicateReport, existing.ID)), nil
	case !errors.Is(err, resultsdb.ErrNotFound):
		return results.OperationResult[*ImportResult, error]{}, fmt.Errorf("failed to check for duplicate report: %w", err)
	}

	report := &resultsdb.RaceReport{
		Source:        req.Source,
		Year:          parsed.Header.Year,
		Region:        parsed.Header.Region,
		Location:      parsed.Header.Location,
		FirstPageOnly: firstPageOnly,
		RecordCount:   len(parsed.Records),
		DNFCount:      parsed.Stats.DNFRows,
		SkippedLines:  parsed.Stats.SkippedLines,
		Checksum:      checksum,
		ImportedAt:    s.now().UTC(),
	}

	if err := s.repo.CreateReport(ctx, db, report); err != nil {
		return results.OperationResult[*ImportResult, error]{}, fmt.Errorf("failed to create report: %w", err)
	}

	if err := s.repo.InsertResults(ctx, db, resultsdb.NewRaceResults(report.ID, parsed.Records)); err != nil {
		return results.OperationResult[*ImportResult, error]{}, fmt.Errorf("failed to insert results: %w", err)
	}

	return results.SuccessResult[*ImportResult, error](&ImportResult{
		ReportID:     report.ID,
		Source:       report.Source,
		Header:       parsed.Header,
		RecordCount:  report.RecordCount,
		DNFCount:     report.DNFCount,
		SkippedLines: report.SkippedLines,
		Truncated:    parsed.Stats.Truncated,
		Checksum:     report.Checksum,
		ImportedAt:   report.ImportedAt,
	}), nil
}

func (s *ResultsService) parse(ctx context.Context, req ParseRequest) resultstypes.ParsedReport {
	p := parsers.NewReportParser(s.firstPageOnly(req), s.logger)
	p.PageSize = s.pageSize
	if req.PageSize > 0 {
		p.PageSize = req.PageSize
	}

	parsed := p.ParseBytes(req.Data)

	if s.metrics != nil {
		s.metrics.RecordReportParsed(ctx, len(parsed.Records), parsed.Stats.DNFRows, parsed.Stats.SkippedLines, parsed.Stats.Truncated)
	}
	return parsed
}

// firstPageOnly resolves the request flag against the service default.
func (s *ResultsService) firstPageOnly(req ParseRequest) bool {
	if req.FirstPageOnly == nil {
		return s.firstPage
	}
	return *req.FirstPageOnly
}

// notifyImported never fails the import; the rows are already committed.
func (s *ResultsService) notifyImported(ctx context.Context, imported *ImportResult) {
	if s.notifier == nil {
		return
	}

	payload := resultsevents.ReportImportedPayloadV1{
		ReportID:    imported.ReportID,
		Source:      imported.Source,
		Year:        imported.Header.Year,
		Region:      imported.Header.Region,
		Location:    imported.Header.Location,
		RecordCount: imported.RecordCount,
		DNFCount:    imported.DNFCount,
		ImportedAt:  imported.ImportedAt,
	}
	if err := s.notifier.ReportImported(ctx, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish report imported event",
			attr.ExtractCorrelationID(ctx),
			attr.ReportID(imported.ReportID.String()),
			attr.Error(err),
		)
	}
}
