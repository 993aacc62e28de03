//go:build integration

package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/testcontainers/testcontainers-go"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/Black-And-White-Club/mtb-results/db/bundb"
	"github.com/Black-And-White-Club/mtb-results/integration_tests/containers"
)

// TestEnvironment holds the containers and connections an integration test runs against.
type TestEnvironment struct {
	Ctx       context.Context
	Config    *config.Config
	DBService *bundb.DBService
	EventBus  *eventbus.EventBus
	Logger    *slog.Logger

	containers []testcontainers.Container
}

// NewTestEnvironment starts Postgres and NATS, migrates both schemas and connects the bus.
// Everything is torn down with t.Cleanup.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := &TestEnvironment{
		Ctx:    ctx,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	t.Cleanup(env.terminate)

	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("failed to setup postgres container: %v", err)
	}
	env.containers = append(env.containers, pgContainer)

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		t.Fatalf("failed to setup nats container: %v", err)
	}
	env.containers = append(env.containers, natsContainer)

	env.Config = &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverPostgres, DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
		HTTP:     config.HTTPConfig{RateLimit: 100, RateBurst: 100, MaxBodyBytes: 1 << 20},
		Parser:   config.ParserConfig{PageSize: 20},
		Queue:    config.QueueConfig{Enabled: true, MaxWorkers: 2},
	}

	dbService, err := bundb.NewBunDBService(ctx, env.Config.Database, env.Logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	env.DBService = dbService
	t.Cleanup(func() { _ = dbService.Close() })

	if _, err := bundb.Migrate(ctx, dbService.GetDB()); err != nil {
		t.Fatalf("failed to run results migrations: %v", err)
	}
	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		t.Fatalf("failed to run River migrations: %v", err)
	}

	bus, err := eventbus.NewNATSEventBus(ctx, natsURL, env.Logger)
	if err != nil {
		t.Fatalf("failed to create event bus: %v", err)
	}
	env.EventBus = bus
	t.Cleanup(func() { _ = bus.Close() })

	return env
}

// Reset empties the results tables and the River job table.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	db := env.DBService.GetDB()
	for _, stmt := range []string{
		"TRUNCATE TABLE race_results, race_reports CASCADE",
		"DELETE FROM river_job",
	} {
		if _, err := db.ExecContext(env.Ctx, stmt); err != nil {
			t.Fatalf("reset failed on %q: %v", stmt, err)
		}
	}
}

func (env *TestEnvironment) terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	for _, c := range env.containers {
		_ = c.Terminate(ctx)
	}
}

func runRiverMigrations(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	_, err = migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	return err
}
