package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsrouter "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/router"
	"github.com/Black-And-White-Club/mtb-results/app/observability"
	resultsmetrics "github.com/Black-And-White-Club/mtb-results/app/observability/metrics/results"
	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/Black-And-White-Club/mtb-results/db/bundb"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

// environment is what a command needs to reach stored reports.
type environment struct {
	service resultsservice.Service
	close   func()
}

func newLogger(c *cli.Context) *slog.Logger {
	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	return observability.NewLogger(c.App.ErrWriter, observability.Config{LogLevel: level})
}

// parseOnlyService returns a service with no storage behind it. Only ParseReport may be used.
func parseOnlyService(logger *slog.Logger, pageSize int) resultsservice.Service {
	return resultsservice.NewResultsService(nil, logger, resultsmetrics.NewNoop(), noop.NewTracerProvider().Tracer("results-cli"), nil,
		resultsservice.WithPageSize(pageSize),
	)
}

// openEnvironment loads the config, opens and migrates the database and connects the
// event bus so CLI imports announce themselves like API imports do.
func openEnvironment(ctx context.Context, c *cli.Context) (*environment, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(c)

	dbService, err := bundb.NewBunDBService(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if _, err := bundb.Migrate(ctx, dbService.GetDB()); err != nil {
		dbService.Close()
		return nil, err
	}

	bus, err := eventbus.New(ctx, cfg.NATS.URL, logger)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	service := resultsservice.NewResultsService(
		dbService.ResultsDB,
		logger,
		resultsmetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("results-cli"),
		dbService.GetDB(),
		resultsservice.WithNotifier(resultsrouter.NewEventNotifier(bus, logger)),
		resultsservice.WithPageSize(cfg.Parser.PageSize),
		resultsservice.WithFirstPageOnly(cfg.Parser.FirstPageOnly),
	)

	return &environment{
		service: service,
		close: func() {
			_ = bus.Close()
			_ = dbService.Close()
		},
	}, nil
}

// output opens path for writing, or returns w when path is empty or "-".
func output(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
