package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	"github.com/Black-And-White-Club/mtb-results/app/modules/results"
	"github.com/Black-And-White-Club/mtb-results/app/observability"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/Black-And-White-Club/mtb-results/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
)

// App holds the process-wide dependencies and the modules built on them.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Logger        *slog.Logger
	DB            *bundb.DBService
	EventBus      *eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router
	Modules       Modules

	server *http.Server
	wg     sync.WaitGroup
}

// Modules lists the application modules.
type Modules struct {
	ResultsModule *results.Module
}

// NewApp opens the database, connects the event bus and builds the modules.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	logger := obs.Provider.Logger

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
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		bus.Close()
		dbService.Close()
		return nil, fmt.Errorf("failed to create Watermill router: %w", err)
	}

	app := &App{
		Config:        cfg,
		Observability: obs,
		Logger:        logger,
		DB:            dbService,
		EventBus:      bus,
		Router:        router,
	}
	app.HTTPRouter = app.newHTTPRouter()

	resultsModule, err := results.NewResultsModule(ctx, cfg, obs, dbService, bus, router, app.HTTPRouter)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to initialize results module: %w", err)
	}
	app.Modules.ResultsModule = resultsModule

	return app, nil
}

// Close stops the modules, the bus router and the connections, in that order.
func (app *App) Close() error {
	app.Logger.Info("Shutting down application")

	if app.Modules.ResultsModule != nil {
		if err := app.Modules.ResultsModule.Close(); err != nil {
			app.Logger.Error("Error closing results module", attr.Error(err))
		}
	}

	if err := app.Router.Close(); err != nil {
		app.Logger.Error("Error closing Watermill router", attr.Error(err))
	}

	app.wg.Wait()
	app.closeInfra()

	app.Logger.Info("Application shut down gracefully")
	return nil
}

func (app *App) closeInfra() {
	if err := app.EventBus.Close(); err != nil {
		app.Logger.Error("Error closing event bus", attr.Error(err))
	}
	if err := app.DB.Close(); err != nil {
		app.Logger.Error("Error closing database connection", attr.Error(err))
	}
}
