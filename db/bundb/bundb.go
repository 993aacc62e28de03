// db/bundb/bundb.go
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	resultsmigrations "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	_ "modernc.org/sqlite"
)

// DBService bundles the bun connection with the repositories built on it.
type DBService struct {
	ResultsDB resultsdb.Repository
	db        *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// Close closes the connection pool.
func (dbService *DBService) Close() error {
	return dbService.db.Close()
}

// NewBunDBService opens the configured database and wires the repositories.
func NewBunDBService(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DBService, error) {
	logger.InfoContext(ctx, "Initializing database", slog.String("driver", cfg.Driver))

	db, err := Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.RegisterModel((*resultsdb.RaceReport)(nil), (*resultsdb.RaceResult)(nil))

	return &DBService{
		ResultsDB: resultsdb.NewRepository(db),
		db:        db,
	}, nil
}

// Open returns a bun.DB for the given driver. SQLite is limited to one connection
// so in-memory databases survive between queries.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	var db *bun.DB

	switch driver {
	case config.DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the bun migration tables if needed and applies pending results migrations.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, resultsmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run results migrations: %w", err)
	}
	return group, nil
}
