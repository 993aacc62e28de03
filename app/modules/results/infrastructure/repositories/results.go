package resultsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a report is not found.
var ErrNotFound = errors.New("report not found")

// insertBatchSize caps rows per INSERT so large reports stay under driver parameter limits.
const insertBatchSize = 200

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new results repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// CreateReport inserts a report header row, assigning an ID and import time when unset.
func (r *Impl) CreateReport(ctx context.Context, db bun.IDB, report *RaceReport) error {
	db = r.resolveDB(db)
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.ImportedAt.IsZero() {
		report.ImportedAt = time.Now().UTC()
	}

	if _, err := db.NewInsert().Model(report).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert report: %w: %w", ErrDuplicateChecksum, err)
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// InsertResults bulk-inserts result rows in batches.
func (r *Impl) InsertResults(ctx context.Context, db bun.IDB, results []RaceResult) error {
	db = r.resolveDB(db)
	for start := 0; start < len(results); start += insertBatchSize {
		end := min(start+insertBatchSize, len(results))
		batch := results[start:end]
		if _, err := db.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}
	}
	return nil
}

// GetReport retrieves a report by ID.
func (r *Impl) GetReport(ctx context.Context, db bun.IDB, id uuid.UUID) (*RaceReport, error) {
	db = r.resolveDB(db)
	report := new(RaceReport)
	err := db.NewSelect().
		Model(report).
		Where("rr.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// FindReportByChecksum returns the newest report with the given checksum and first-page setting.
func (r *Impl) FindReportByChecksum(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*RaceReport, error) {
	db = r.resolveDB(db)
	report := new(RaceReport)
	err := db.NewSelect().
		Model(report).
		Where("rr.checksum = ?", checksum).
		Where("rr.first_page_only = ?", firstPageOnly).
		Order("rr.imported_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find report by checksum: %w", err)
	}
	return report, nil
}

// ListReports returns reports, newest first.
func (r *Impl) ListReports(ctx context.Context, db bun.IDB, filter ReportFilter) ([]RaceReport, error) {
	db = r.resolveDB(db)
	var reports []RaceReport
	q := db.NewSelect().
		Model(&reports).
		Order("rr.imported_at DESC", "rr.id ASC")
	if filter.Year != "" {
		q = q.Where("rr.year = ?", filter.Year)
	}
	if filter.Region != "" {
		q = q.Where("rr.region = ?", filter.Region)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ListResults returns the rows of one report in document order.
func (r *Impl) ListResults(ctx context.Context, db bun.IDB, filter ResultFilter) ([]RaceResult, error) {
	db = r.resolveDB(db)
	var results []RaceResult
	q := db.NewSelect().
		Model(&results).
		Where("res.report_id = ?", filter.ReportID).
		Order("res.seq ASC")
	if filter.Category != "" {
		q = q.Where("res.race_category = ?", filter.Category)
	}
	if filter.Team != "" {
		q = q.Where("LOWER(res.team) = LOWER(?)", filter.Team)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// ListCategories returns the categories of a report in the order they first appear.
func (r *Impl) ListCategories(ctx context.Context, db bun.IDB, reportID uuid.UUID) ([]string, error) {
	db = r.resolveDB(db)
	var rows []struct {
		RaceCategory string `bun:"race_category"`
		FirstSeq     int    `bun:"first_seq"`
	}
	err := db.NewSelect().
		Model((*RaceResult)(nil)).
		Column("res.race_category").
		ColumnExpr("MIN(res.seq) AS first_seq").
		Where("res.report_id = ?", reportID).
		Group("res.race_category").
		Order("first_seq ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, len(rows))
	for i, row := range rows {
		categories[i] = row.RaceCategory
	}
	return categories, nil
}

// DeleteReport removes a report and its rows.
func (r *Impl) DeleteReport(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().
		Model((*RaceResult)(nil)).
		Where("report_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}

	result, err := db.NewDelete().
		Model((*RaceReport)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
