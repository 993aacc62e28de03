package resultsmigrations

import (
	"context"
	"fmt"

	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the results module's schema migrations.
var Migrations = migrate.NewMigrations()

// CreateTables creates race_reports and race_results from the bun models.
func CreateTables(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*resultsdb.RaceReport)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create race_reports table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*resultsdb.RaceResult)(nil)).
		IfNotExists().
		ForeignKey(`("report_id") REFERENCES "race_reports" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create race_results table: %w", err)
	}

	return nil
}

// DropTables drops the results tables, children first.
func DropTables(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewDropTable().Model((*resultsdb.RaceResult)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop race_results table: %w", err)
	}
	if _, err := db.NewDropTable().Model((*resultsdb.RaceReport)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop race_reports table: %w", err)
	}
	return nil
}
