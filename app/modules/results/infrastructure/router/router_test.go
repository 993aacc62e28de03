package resultsrouter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/eventbus"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type FakeEventHandlers struct {
	calls chan resultsevents.ReportSubmittedPayloadV1

	HandleReportSubmittedFunc func(ctx context.Context, payload *resultsevents.ReportSubmittedPayloadV1) (*resultsevents.ReportImportFailedPayloadV1, error)
}

func (f *FakeEventHandlers) HandleReportSubmitted(ctx context.Context, payload *resultsevents.ReportSubmittedPayloadV1) (*resultsevents.ReportImportFailedPayloadV1, error) {
	f.calls <- *payload
	if f.HandleReportSubmittedFunc != nil {
		return f.HandleReportSubmittedFunc(ctx, payload)
	}
	return nil, nil
}

func startRouter(t *testing.T, handlers *FakeEventHandlers) (*gochannel.GoChannel, context.Context) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wmLogger := watermill.NewSlogLogger(logger)
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	require.NoError(t, err)

	r := NewResultsRouter(logger, router, pubsub, pubsub, noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, r.Configure(context.Background(), handlers))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		_ = pubsub.Close()
	})

	go func() { _ = r.Run(ctx) }()
	<-r.Running()
	return pubsub, ctx
}

func TestResultsRouter_SubmittedSuccessPublishesNothing(t *testing.T) {
	handlers := &FakeEventHandlers{calls: make(chan resultsevents.ReportSubmittedPayloadV1, 1)}
	pubsub, ctx := startRouter(t, handlers)

	failed, err := pubsub.Subscribe(ctx, resultsevents.ReportImportFailedV1)
	require.NoError(t, err)

	msg, err := eventbus.NewMessage(ctx, resultsevents.ReportSubmittedPayloadV1{Source: "r4.txt", Text: "report"})
	require.NoError(t, err)
	require.NoError(t, pubsub.Publish(resultsevents.ReportSubmittedV1, msg))

	select {
	case got := <-handlers.calls:
		assert.Equal(t, "r4.txt", got.Source)
		assert.Equal(t, "report", got.Text)
	case <-ctx.Done():
		t.Fatal("handler was not called")
	}

	select {
	case m := <-failed:
		t.Fatalf("unexpected failure event: %s", m.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestResultsRouter_DomainFailurePublishesFailedEvent(t *testing.T) {
	handlers := &FakeEventHandlers{
		calls: make(chan resultsevents.ReportSubmittedPayloadV1, 1),
		HandleReportSubmittedFunc: func(ctx context.Context, payload *resultsevents.ReportSubmittedPayloadV1) (*resultsevents.ReportImportFailedPayloadV1, error) {
			return &resultsevents.ReportImportFailedPayloadV1{Source: payload.Source, Reason: "no result rows found in report"}, nil
		},
	}
	pubsub, ctx := startRouter(t, handlers)

	failed, err := pubsub.Subscribe(ctx, resultsevents.ReportImportFailedV1)
	require.NoError(t, err)

	msg, err := eventbus.NewMessage(ctx, resultsevents.ReportSubmittedPayloadV1{Source: "banner.txt", Text: "UTAH HS MTB"})
	require.NoError(t, err)
	require.NoError(t, pubsub.Publish(resultsevents.ReportSubmittedV1, msg))

	select {
	case m := <-failed:
		m.Ack()
		var payload resultsevents.ReportImportFailedPayloadV1
		require.NoError(t, json.Unmarshal(m.Payload, &payload))
		assert.Equal(t, "banner.txt", payload.Source)
		assert.Equal(t, "no result rows found in report", payload.Reason)
	case <-ctx.Done():
		t.Fatal("no failure event published")
	}
}

func TestResultsRouter_MalformedMessageIsDropped(t *testing.T) {
	handlers := &FakeEventHandlers{calls: make(chan resultsevents.ReportSubmittedPayloadV1, 1)}
	pubsub, _ := startRouter(t, handlers)

	require.NoError(t, pubsub.Publish(resultsevents.ReportSubmittedV1, message.NewMessage(watermill.NewUUID(), []byte("{not json"))))

	select {
	case <-handlers.calls:
		t.Fatal("handler called for malformed message")
	case <-time.After(200 * time.Millisecond):
	}
}
