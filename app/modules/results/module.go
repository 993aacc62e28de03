package results

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultshandlers "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/handlers"
	resultslive "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/live"
	resultsqueue "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/queue"
	resultsrouter "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/router"
	"github.com/Black-And-White-Club/mtb-results/app/observability"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/Black-And-White-Club/mtb-results/config"
	"github.com/Black-And-White-Club/mtb-results/db/bundb"
	"github.com/Black-And-White-Club/mtb-results/pkg/jwt"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Module represents the results module.
type Module struct {
	ResultsService resultsservice.Service
	ResultsRouter  *resultsrouter.ResultsRouter
	Queue          *resultsqueue.Service
	LiveHub        *resultslive.Hub
	eventBus       *eventbus.EventBus
	logger         *slog.Logger

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// NewResultsModule wires the results service into the bus router and the HTTP router.
func NewResultsModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	dbService *bundb.DBService,
	eventBus *eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.ResultsMetrics
	tracer := obs.Registry.Tracer

	logger.Info("results.NewResultsModule called")

	notifier := resultsrouter.NewEventNotifier(eventBus, logger)
	service := resultsservice.NewResultsService(
		dbService.ResultsDB,
		logger,
		metrics,
		tracer,
		dbService.GetDB(),
		resultsservice.WithNotifier(notifier),
		resultsservice.WithPageSize(cfg.Parser.PageSize),
		resultsservice.WithFirstPageOnly(cfg.Parser.FirstPageOnly),
	)

	resultsRouter := resultsrouter.NewResultsRouter(logger, router, eventBus.Subscriber(), eventBus.Publisher(), tracer)
	if err := resultsRouter.Configure(ctx, resultshandlers.NewResultsEventHandlers(service, logger, tracer)); err != nil {
		return nil, fmt.Errorf("failed to configure results router: %w", err)
	}

	module := &Module{
		ResultsService: service,
		ResultsRouter:  resultsRouter,
		LiveHub:        resultslive.NewHub(logger),
		eventBus:       eventBus,
		logger:         logger,
	}

	var enqueuer resultshandlers.ImportEnqueuer
	if cfg.Queue.Enabled {
		queue, err := resultsqueue.NewService(ctx, cfg.Database.DSN, cfg.Queue.MaxWorkers, service, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create results queue: %w", err)
		}
		module.Queue = queue
		enqueuer = queue
	}

	var tokens jwt.Service
	if cfg.JWT.Secret != "" {
		tokens = jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.DefaultTTL)
	} else {
		logger.Warn("JWT secret not set; write endpoints are unauthenticated")
	}

	resultshandlers.RegisterRoutes(httpRouter,
		resultshandlers.NewResultsHandlers(service, enqueuer, logger, tracer),
		resultshandlers.RouteOptions{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Limiter:        resultshandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
			MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
			Tokens:         tokens,
			Live:           resultslive.NewHandler(module.LiveHub, cfg.HTTP.AllowedOrigins, logger),
		},
	)

	return module, nil
}

// Run starts the import queue, when enabled, feeds the live hub and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.Info("Starting results module")

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancelFunc = cancel
	m.mu.Unlock()
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.Error("Results queue failed to start", attr.Error(err))
		}
	}

	imported, err := m.eventBus.Subscribe(ctx, resultsevents.ReportImportedV1)
	if err != nil {
		m.logger.Error("Live feed subscription failed", attr.Error(err))
	} else {
		go m.LiveHub.Consume(ctx, imported)
	}

	<-ctx.Done()
	m.logger.Info("Results module goroutine stopped")
}

// Close stops the queue and any running operations.
func (m *Module) Close() error {
	m.logger.Info("Stopping results module")

	m.mu.Lock()
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.mu.Unlock()

	m.LiveHub.Close()

	if m.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Queue.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop results queue: %w", err)
		}
	}

	m.logger.Info("Results module stopped")
	return nil
}

// HealthCheck reports whether the queue, when enabled, can reach its database.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.Queue == nil {
		return nil
	}
	return m.Queue.HealthCheck(ctx)
}
