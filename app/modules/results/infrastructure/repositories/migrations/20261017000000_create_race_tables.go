package resultsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating race_reports and race_results tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return CreateTables(ctx, tx)
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping race_reports and race_results tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return DropTables(ctx, tx)
		})
	})
}
