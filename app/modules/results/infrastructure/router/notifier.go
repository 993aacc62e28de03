package resultsrouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	pkgeventbus "github.com/Black-And-White-Club/mtb-results/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill"
)

// EventNotifier publishes report-imported events on the bus.
type EventNotifier struct {
	publisher pkgeventbus.Publisher
	logger    *slog.Logger
}

// NewEventNotifier creates a new EventNotifier.
func NewEventNotifier(publisher pkgeventbus.Publisher, logger *slog.Logger) *EventNotifier {
	return &EventNotifier{publisher: publisher, logger: logger}
}

// ReportImported publishes the event on the base topic and, when the report names a
// region, on the region-scoped topic as well.
func (n *EventNotifier) ReportImported(ctx context.Context, payload resultsevents.ReportImportedPayloadV1) error {
	msg, err := eventbus.NewMessage(ctx, payload)
	if err != nil {
		return err
	}

	if err := n.publisher.Publish(resultsevents.ReportImportedV1, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", resultsevents.ReportImportedV1, err)
	}

	if payload.Region == "" {
		return nil
	}

	// JetStream dedupes on message id, so the scoped copy needs its own.
	scoped := msg.Copy()
	scoped.UUID = watermill.NewUUID()
	if err := pkgeventbus.PublishWithRegionScope(n.publisher, resultsevents.ReportImportedV1, payload.Region, scoped); err != nil {
		return fmt.Errorf("failed to publish region-scoped event: %w", err)
	}

	n.logger.DebugContext(ctx, "Published report imported event",
		attr.ReportID(payload.ReportID.String()),
		attr.String("region", payload.Region),
	)
	return nil
}
