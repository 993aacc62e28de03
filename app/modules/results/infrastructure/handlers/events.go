package resultshandlers

import (
	"context"
	"log/slog"

	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// EventHandlers consumes results events from the bus.
type EventHandlers interface {
	HandleReportSubmitted(ctx context.Context, payload *resultsevents.ReportSubmittedPayloadV1) (*resultsevents.ReportImportFailedPayloadV1, error)
}

// ResultsEventHandlers implements EventHandlers.
type ResultsEventHandlers struct {
	service resultsservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewResultsEventHandlers creates a new ResultsEventHandlers instance.
func NewResultsEventHandlers(service resultsservice.Service, logger *slog.Logger, tracer trace.Tracer) EventHandlers {
	return &ResultsEventHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleReportSubmitted imports a submitted report. Domain failures come back as a failed
// payload so the sender hears about them; infrastructure errors are returned for redelivery.
func (h *ResultsEventHandlers) HandleReportSubmitted(ctx context.Context, payload *resultsevents.ReportSubmittedPayloadV1) (*resultsevents.ReportImportFailedPayloadV1, error) {
	ctx, span := h.tracer.Start(ctx, "HandleReportSubmitted")
	defer span.End()

	imported, err := h.service.ImportReport(ctx, resultsservice.ParseRequest{
		Source:        payload.Source,
		Data:          []byte(payload.Text),
		FirstPageOnly: payload.FirstPageOnly,
	})
	if err != nil {
		if resultsservice.IsRejection(err) {
			h.logger.WarnContext(ctx, "Submitted report rejected",
				attr.ExtractCorrelationID(ctx),
				attr.String("source", payload.Source),
				attr.Error(err),
			)
			return &resultsevents.ReportImportFailedPayloadV1{
				Source: payload.Source,
				Reason: err.Error(),
			}, nil
		}
		return nil, err
	}

	h.logger.InfoContext(ctx, "Submitted report imported",
		attr.ExtractCorrelationID(ctx),
		attr.String("source", payload.Source),
		attr.ReportID(imported.ReportID.String()),
		attr.Int("records", imported.RecordCount),
	)
	return nil, nil
}
