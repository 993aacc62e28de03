package resultshandlers

import (
	"context"
	"io"

	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/google/uuid"
)

// ------------------------
// Fake Results Service
// ------------------------

type FakeService struct {
	trace []string

	ParseReportFunc         func(ctx context.Context, req resultsservice.ParseRequest) (*resultstypes.ParsedReport, error)
	ImportReportFunc        func(ctx context.Context, req resultsservice.ParseRequest) (*resultsservice.ImportResult, error)
	GetReportFunc           func(ctx context.Context, id uuid.UUID) (*resultsservice.ReportSummary, error)
	ListReportsFunc         func(ctx context.Context, q resultsservice.ReportQuery) ([]resultsservice.ReportSummary, error)
	ListResultsFunc         func(ctx context.Context, id uuid.UUID, q resultsservice.ResultQuery) ([]resultstypes.ResultRecord, error)
	DeleteReportFunc        func(ctx context.Context, id uuid.UUID) error
	ExportReportFunc        func(ctx context.Context, id uuid.UUID, q resultsservice.ResultQuery, format string, w io.Writer) (string, error)
	RenderCategoryChartFunc func(ctx context.Context, id uuid.UUID, category string) ([]byte, error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) ParseReport(ctx context.Context, req resultsservice.ParseRequest) (*resultstypes.ParsedReport, error) {
	f.record("ParseReport")
	if f.ParseReportFunc != nil {
		return f.ParseReportFunc(ctx, req)
	}
	return &resultstypes.ParsedReport{Records: []resultstypes.ResultRecord{}}, nil
}

func (f *FakeService) ImportReport(ctx context.Context, req resultsservice.ParseRequest) (*resultsservice.ImportResult, error) {
	f.record("ImportReport")
	if f.ImportReportFunc != nil {
		return f.ImportReportFunc(ctx, req)
	}
	return &resultsservice.ImportResult{ReportID: uuid.New()}, nil
}

func (f *FakeService) GetReport(ctx context.Context, id uuid.UUID) (*resultsservice.ReportSummary, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, id)
	}
	return nil, resultsservice.ErrReportNotFound
}

func (f *FakeService) ListReports(ctx context.Context, q resultsservice.ReportQuery) ([]resultsservice.ReportSummary, error) {
	f.record("ListReports")
	if f.ListReportsFunc != nil {
		return f.ListReportsFunc(ctx, q)
	}
	return []resultsservice.ReportSummary{}, nil
}

func (f *FakeService) ListResults(ctx context.Context, id uuid.UUID, q resultsservice.ResultQuery) ([]resultstypes.ResultRecord, error) {
	f.record("ListResults")
	if f.ListResultsFunc != nil {
		return f.ListResultsFunc(ctx, id, q)
	}
	return []resultstypes.ResultRecord{}, nil
}

func (f *FakeService) DeleteReport(ctx context.Context, id uuid.UUID) error {
	f.record("DeleteReport")
	if f.DeleteReportFunc != nil {
		return f.DeleteReportFunc(ctx, id)
	}
	return nil
}

func (f *FakeService) ExportReport(ctx context.Context, id uuid.UUID, q resultsservice.ResultQuery, format string, w io.Writer) (string, error) {
	f.record("ExportReport")
	if f.ExportReportFunc != nil {
		return f.ExportReportFunc(ctx, id, q, format, w)
	}
	return "text/csv", nil
}

func (f *FakeService) RenderCategoryChart(ctx context.Context, id uuid.UUID, category string) ([]byte, error) {
	f.record("RenderCategoryChart")
	if f.RenderCategoryChartFunc != nil {
		return f.RenderCategoryChartFunc(ctx, id, category)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

var _ resultsservice.Service = (*FakeService)(nil)

// ------------------------
// Fake Enqueuer
// ------------------------

type FakeEnqueuer struct {
	Payloads []resultsevents.ReportSubmittedPayloadV1

	EnqueueImportFunc func(ctx context.Context, payload resultsevents.ReportSubmittedPayloadV1) (int64, error)
}

func (f *FakeEnqueuer) EnqueueImport(ctx context.Context, payload resultsevents.ReportSubmittedPayloadV1) (int64, error) {
	f.Payloads = append(f.Payloads, payload)
	if f.EnqueueImportFunc != nil {
		return f.EnqueueImportFunc(ctx, payload)
	}
	return int64(len(f.Payloads)), nil
}

var _ ImportEnqueuer = (*FakeEnqueuer)(nil)
