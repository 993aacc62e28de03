package resultsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding race results query indexes...")

		// Results for one report in document order
		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_race_results_report_seq
			ON race_results (report_id, seq)
		`).Exec(ctx); err != nil {
			return fmt.Errorf("create idx_race_results_report_seq: %w", err)
		}

		// Category filter and chart queries
		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_race_results_report_category
			ON race_results (report_id, race_category)
		`).Exec(ctx); err != nil {
			return fmt.Errorf("create idx_race_results_report_category: %w", err)
		}

		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_race_reports_year_region
			ON race_reports (year, region)
		`).Exec(ctx); err != nil {
			return fmt.Errorf("create idx_race_reports_year_region: %w", err)
		}

		fmt.Println("Race results indexes created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping race results query indexes...")

		_, _ = db.NewRaw("DROP INDEX IF EXISTS idx_race_results_report_seq").Exec(ctx)
		_, _ = db.NewRaw("DROP INDEX IF EXISTS idx_race_results_report_category").Exec(ctx)
		_, _ = db.NewRaw("DROP INDEX IF EXISTS idx_race_reports_year_region").Exec(ctx)

		return nil
	})
}
