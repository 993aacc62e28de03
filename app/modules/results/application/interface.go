package resultsservice

import (
	"context"
	"io"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/google/uuid"
)

// Service defines the results operations used by handlers, the router, the queue and the CLI.
type Service interface {
	ParseReport(ctx context.Context, req ParseRequest) (*resultstypes.ParsedReport, error)
	ImportReport(ctx context.Context, req ParseRequest) (*ImportResult, error)
	GetReport(ctx context.Context, id uuid.UUID) (*ReportSummary, error)
	ListReports(ctx context.Context, q ReportQuery) ([]ReportSummary, error)
	ListResults(ctx context.Context, id uuid.UUID, q ResultQuery) ([]resultstypes.ResultRecord, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
	ExportReport(ctx context.Context, id uuid.UUID, q ResultQuery, format string, w io.Writer) (contentType string, err error)
	RenderCategoryChart(ctx context.Context, id uuid.UUID, category string) ([]byte, error)
}

// ImportNotifier is told about every stored report. It is optional.
type ImportNotifier interface {
	ReportImported(ctx context.Context, payload resultsevents.ReportImportedPayloadV1) error
}
