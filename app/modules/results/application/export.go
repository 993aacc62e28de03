package resultsservice

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/exporters"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/Black-And-White-Club/mtb-results/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type exportOutput struct {
	contentType string
	body        []byte
}

// ExportReport renders the report's records (optionally filtered) in the given format and
// copies the result to w. Nothing is written to w unless rendering succeeds.
func (s *ResultsService) ExportReport(ctx context.Context, id uuid.UUID, q ResultQuery, format string, w io.Writer) (string, error) {
	out, err := unwrap(withTelemetry(s, ctx, "ExportReport", id.String(), func(ctx context.Context) (results.OperationResult[exportOutput, error], error) {
		exporter, err := s.exporters.GetExporter(format)
		if err != nil {
			return results.FailureResult[exportOutput, error](err), nil
		}

		listed, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]resultstypes.ResultRecord, error], error) {
			return s.listResultsLogic(ctx, db, id, q)
		})
		if err != nil {
			return results.OperationResult[exportOutput, error]{}, err
		}
		if listed.IsFailure() {
			return results.FailureResult[exportOutput, error](*listed.Failure), nil
		}

		body, err := render(exporter, *listed.Success)
		if err != nil {
			return results.OperationResult[exportOutput, error]{}, err
		}

		if s.metrics != nil {
			s.metrics.RecordExport(ctx, exporter.Extension())
		}
		return results.SuccessResult[exportOutput, error](exportOutput{
			contentType: exporter.ContentType(),
			body:        body,
		}), nil
	}))
	if err != nil {
		return "", err
	}

	if _, err := w.Write(out.body); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return out.contentType, nil
}

func render(exporter exporters.Exporter, records []resultstypes.ResultRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := exporter.Export(&buf, records); err != nil {
		return nil, fmt.Errorf("failed to export records: %w", err)
	}
	return buf.Bytes(), nil
}
