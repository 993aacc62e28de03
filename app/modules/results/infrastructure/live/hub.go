package resultslive

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
)

// TypeReportImported tags feed messages that announce a stored report.
const TypeReportImported = "report.imported"

const defaultSendBuffer = 16

// Message is one frame of the live feed.
type Message struct {
	Type   string                                `json:"type"`
	Report resultsevents.ReportImportedPayloadV1 `json:"report"`
}

// Hub fans imported-report events out to connected websocket clients.
type Hub struct {
	logger     *slog.Logger
	sendBuffer int

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		sendBuffer: defaultSendBuffer,
		clients:    make(map[*client]struct{}),
	}
}

// Consume forwards events from messages until the channel closes or ctx ends.
// Every message is acked; a bad payload is logged and skipped.
func (h *Hub) Consume(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			h.forward(ctx, msg)
			msg.Ack()
		}
	}
}

func (h *Hub) forward(ctx context.Context, msg *message.Message) {
	var payload resultsevents.ReportImportedPayloadV1
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.WarnContext(ctx, "Dropping malformed live feed event",
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return
	}

	data, err := json.Marshal(Message{Type: TypeReportImported, Report: payload})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode live feed message", attr.Error(err))
		return
	}
	h.Broadcast(data)
}

// Broadcast queues data for every client. Clients whose buffer is full are disconnected.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Disconnecting slow live feed client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
