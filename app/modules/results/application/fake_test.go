package resultsservice

import (
	"context"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Results Repo
// ------------------------

type FakeResultsRepo struct {
	trace []string

	CreateReportFunc   func(ctx context.Context, db bun.IDB, report *resultsdb.RaceReport) error
	InsertResultsFunc  func(ctx context.Context, db bun.IDB, rows []resultsdb.RaceResult) error
	GetReportFunc      func(ctx context.Context, db bun.IDB, id uuid.UUID) (*resultsdb.RaceReport, error)
	FindByChecksumFunc func(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*resultsdb.RaceReport, error)
	ListReportsFunc    func(ctx context.Context, db bun.IDB, filter resultsdb.ReportFilter) ([]resultsdb.RaceReport, error)
	ListResultsFunc    func(ctx context.Context, db bun.IDB, filter resultsdb.ResultFilter) ([]resultsdb.RaceResult, error)
	ListCategoriesFunc func(ctx context.Context, db bun.IDB, id uuid.UUID) ([]string, error)
	DeleteReportFunc   func(ctx context.Context, db bun.IDB, id uuid.UUID) error
}

func NewFakeResultsRepo() *FakeResultsRepo {
	return &FakeResultsRepo{
		trace: []string{},
	}
}

func (f *FakeResultsRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeResultsRepo) CreateReport(ctx context.Context, db bun.IDB, report *resultsdb.RaceReport) error {
	f.record("CreateReport")
	if f.CreateReportFunc != nil {
		return f.CreateReportFunc(ctx, db, report)
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	return nil
}

func (f *FakeResultsRepo) InsertResults(ctx context.Context, db bun.IDB, rows []resultsdb.RaceResult) error {
	f.record("InsertResults")
	if f.InsertResultsFunc != nil {
		return f.InsertResultsFunc(ctx, db, rows)
	}
	return nil
}

func (f *FakeResultsRepo) GetReport(ctx context.Context, db bun.IDB, id uuid.UUID) (*resultsdb.RaceReport, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, db, id)
	}
	return nil, resultsdb.ErrNotFound
}

func (f *FakeResultsRepo) FindReportByChecksum(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*resultsdb.RaceReport, error) {
	f.record("FindReportByChecksum")
	if f.FindByChecksumFunc != nil {
		return f.FindByChecksumFunc(ctx, db, checksum, firstPageOnly)
	}
	return nil, resultsdb.ErrNotFound
}

func (f *FakeResultsRepo) ListReports(ctx context.Context, db bun.IDB, filter resultsdb.ReportFilter) ([]resultsdb.RaceReport, error) {
	f.record("ListReports")
	if f.ListReportsFunc != nil {
		return f.ListReportsFunc(ctx, db, filter)
	}
	return []resultsdb.RaceReport{}, nil
}

func (f *FakeResultsRepo) ListResults(ctx context.Context, db bun.IDB, filter resultsdb.ResultFilter) ([]resultsdb.RaceResult, error) {
	f.record("ListResults")
	if f.ListResultsFunc != nil {
		return f.ListResultsFunc(ctx, db, filter)
	}
	return []resultsdb.RaceResult{}, nil
}

func (f *FakeResultsRepo) ListCategories(ctx context.Context, db bun.IDB, id uuid.UUID) ([]string, error) {
	f.record("ListCategories")
	if f.ListCategoriesFunc != nil {
		return f.ListCategoriesFunc(ctx, db, id)
	}
	return []string{}, nil
}

func (f *FakeResultsRepo) DeleteReport(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	f.record("DeleteReport")
	if f.DeleteReportFunc != nil {
		return f.DeleteReportFunc(ctx, db, id)
	}
	return nil
}

// --- Accessors for assertions ---

func (f *FakeResultsRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ resultsdb.Repository = (*FakeResultsRepo)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	Payloads []resultsevents.ReportImportedPayloadV1

	ReportImportedFunc func(ctx context.Context, payload resultsevents.ReportImportedPayloadV1) error
}

func (f *FakeNotifier) ReportImported(ctx context.Context, payload resultsevents.ReportImportedPayloadV1) error {
	f.Payloads = append(f.Payloads, payload)
	if f.ReportImportedFunc != nil {
		return f.ReportImportedFunc(ctx, payload)
	}
	return nil
}

var _ ImportNotifier = (*FakeNotifier)(nil)

func boolPtr(b bool) *bool { return &b }
