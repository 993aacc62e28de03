package resultsdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for race report persistence.
// Every method takes an optional bun.IDB so callers can run it inside a transaction.
type Repository interface {
	// CreateReport inserts a report header row. It returns ErrDuplicateChecksum when the
	// checksum and first-page pair is already stored.
	CreateReport(ctx context.Context, db bun.IDB, report *RaceReport) error

	// InsertResults bulk-inserts result rows.
	InsertResults(ctx context.Context, db bun.IDB, results []RaceResult) error

	// GetReport retrieves a report by ID.
	GetReport(ctx context.Context, db bun.IDB, id uuid.UUID) (*RaceReport, error)

	// FindReportByChecksum returns the newest report imported from the same text with the same
	// first-page setting, or ErrNotFound.
	FindReportByChecksum(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*RaceReport, error)

	// ListReports returns reports, newest first.
	ListReports(ctx context.Context, db bun.IDB, filter ReportFilter) ([]RaceReport, error)

	// ListResults returns the rows of one report in document order.
	ListResults(ctx context.Context, db bun.IDB, filter ResultFilter) ([]RaceResult, error)

	// ListCategories returns the categories of a report in the order they first appear.
	ListCategories(ctx context.Context, db bun.IDB, reportID uuid.UUID) ([]string, error)

	// DeleteReport removes a report and its rows.
	DeleteReport(ctx context.Context, db bun.IDB, id uuid.UUID) error
}
