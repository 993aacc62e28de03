package resultsrouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultshandlers "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/handlers"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"
)

// ResultsRouter handles Watermill handler registration for results events.
type ResultsRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewResultsRouter creates a new ResultsRouter.
func NewResultsRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *ResultsRouter {
	return &ResultsRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with middleware and handlers.
func (r *ResultsRouter) Configure(_ context.Context, handlers resultshandlers.EventHandlers) error {
	r.router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          watermill.NewSlogLogger(r.logger),
		}.Middleware,
		middleware.Recoverer,
	)

	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandlers wires bus topics to handler methods.
func (r *ResultsRouter) registerHandlers(handlers resultshandlers.EventHandlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering results module handlers",
		attr.String("report_submitted_subject", resultsevents.ReportSubmittedV1),
	)

	registerHandler(deps, resultsevents.ReportSubmittedV1, resultsevents.ReportImportFailedV1, handlers.HandleReportSubmitted)

	r.logger.Info("Results module handlers registered successfully")
}

// registerHandler decodes the JSON payload into T and publishes a non-nil R on publishTopic.
// Undecodable messages are logged and acked so they are not redelivered forever.
func registerHandler[T any, R any](
	deps handlerDeps,
	topic string,
	publishTopic string,
	handler func(context.Context, *T) (*R, error),
) {
	handlerName := "results." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		publishTopic,
		deps.publisher,
		func(msg *message.Message) ([]*message.Message, error) {
			ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))
			ctx, span := deps.tracer.Start(ctx, handlerName)
			defer span.End()

			var payload T
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				deps.logger.ErrorContext(ctx, "Dropping malformed message",
					attr.ExtractCorrelationID(ctx),
					attr.String("topic", topic),
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				return nil, nil
			}

			out, err := handler(ctx, &payload)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			if out == nil {
				return nil, nil
			}

			outMsg, err := eventbus.NewMessage(ctx, out)
			if err != nil {
				return nil, err
			}
			return []*message.Message{outMsg}, nil
		},
	)
}

// Run blocks until ctx is cancelled or the router stops.
func (r *ResultsRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once the router has started all handlers.
func (r *ResultsRouter) Running() chan struct{} {
	return r.router.Running()
}

// Close shuts down the router.
func (r *ResultsRouter) Close() error {
	return r.router.Close()
}
