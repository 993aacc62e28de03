package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventBus is the publish/subscribe pair used by the results module.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	js         jetstream.JetStream
	logger     *slog.Logger
}

// New connects to NATS when natsURL is set and falls back to an in-process bus otherwise.
func New(ctx context.Context, natsURL string, logger *slog.Logger) (*EventBus, error) {
	if natsURL == "" {
		logger.InfoContext(ctx, "NATS URL not set, using in-memory event bus")
		return NewInMemoryEventBus(logger), nil
	}
	return NewNATSEventBus(ctx, natsURL, logger)
}

// NewInMemoryEventBus returns a bus backed by watermill's gochannel pub/sub.
func NewInMemoryEventBus(logger *slog.Logger) *EventBus {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))

	return &EventBus{
		publisher:  ch,
		subscriber: ch,
		logger:     logger,
	}
}

// NewNATSEventBus creates a JetStream-backed bus and provisions the results stream.
func NewNATSEventBus(ctx context.Context, natsURL string, logger *slog.Logger) (*EventBus, error) {
	natsConn, err := nc.Connect(natsURL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := InitializeStreams(ctx, js, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	jsConfig := nats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		TrackMsgId:    true,
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:               natsURL,
			Marshaler:         marshaler,
			SubjectCalculator: nats.DefaultSubjectCalculator,
			JetStream:         jsConfig,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:               natsURL,
			Unmarshaler:       marshaler,
			SubjectCalculator: nats.DefaultSubjectCalculator,
			JetStream:         jsConfig,
			AckWaitTimeout:    30 * time.Second,
			CloseTimeout:      10 * time.Second,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.InfoContext(ctx, "Connected to NATS", attr.String("url", natsConn.ConnectedUrlRedacted()))

	return &EventBus{
		publisher:  publisher,
		subscriber: subscriber,
		natsConn:   natsConn,
		js:         js,
		logger:     logger,
	}, nil
}

// Publish sends messages to topic, assigning UUIDs where missing.
func (eb *EventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}

	if err := eb.publisher.Publish(topic, messages...); err != nil {
		eb.logger.Error("Failed to publish message", attr.String("topic", topic), attr.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	eb.logger.Debug("Message published", attr.String("topic", topic), attr.Int("count", len(messages)))
	return nil
}

// Subscribe returns the message stream for topic.
func (eb *EventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	eb.logger.InfoContext(ctx, "Subscription started", attr.String("topic", topic))
	return messages, nil
}

// Publisher exposes the underlying publisher for watermill routers.
func (eb *EventBus) Publisher() message.Publisher { return eb.publisher }

// Subscriber exposes the underlying subscriber for watermill routers.
func (eb *EventBus) Subscriber() message.Subscriber { return eb.subscriber }

// Healthy reports an error when the NATS connection is down. The in-memory bus is always healthy.
func (eb *EventBus) Healthy() error {
	if eb.natsConn == nil {
		return nil
	}
	if !eb.natsConn.IsConnected() {
		return fmt.Errorf("nats connection status: %s", eb.natsConn.Status())
	}
	return nil
}

// Close closes all NATS and Watermill resources.
func (eb *EventBus) Close() error {
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			eb.logger.Error("Error closing publisher", attr.Error(err))
		}
	}
	if eb.subscriber != nil && eb.natsConn != nil {
		if err := eb.subscriber.Close(); err != nil {
			eb.logger.Error("Error closing subscriber", attr.Error(err))
		}
	}

	if eb.natsConn != nil {
		eb.natsConn.Close()
	}

	return nil
}

// NewMessage JSON-encodes payload and carries the context's correlation id.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	id := attr.CorrelationID(ctx)
	if id == "" {
		id = watermill.NewShortUUID()
	}
	middleware.SetCorrelationID(id, msg)
	return msg, nil
}
