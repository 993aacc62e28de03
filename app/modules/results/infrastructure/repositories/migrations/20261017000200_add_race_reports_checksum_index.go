package resultsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding race reports unique checksum index...")

		// One stored report per document and page setting. Rows without a checksum are exempt.
		if _, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_race_reports_checksum
			ON race_reports (checksum, first_page_only)
			WHERE checksum <> ''
		`).Exec(ctx); err != nil {
			return fmt.Errorf("create idx_race_reports_checksum: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping race reports checksum index...")

		_, err := db.NewRaw("DROP INDEX IF EXISTS idx_race_reports_checksum").Exec(ctx)
		return err
	})
}
