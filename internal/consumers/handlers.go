package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"gatepass/internal/repository"
	"gatepass/internal/search"
)

type Handlers struct {
	store    *repository.Store
	esClient *search.Client
}

func NewHandlers(store *repository.Store, esClient *search.Client) *Handlers {
	return &Handlers{
		store:    store,
		esClient: esClient,
	}
}

// eventRef is the common shape of every record touching an event. The handler
// re-reads the event from the primary store rather than trusting record
// payloads, so replays and out-of-order delivery converge on current state.
type eventRef struct {
	EventID int64 `json:"event_id"`
}

// HandleEventRecord refreshes one event's search document from the database.
func (h *Handlers) HandleEventRecord(m *stan.Msg) {
	var ref eventRef
	if err := json.Unmarshal(m.Data, &ref); err != nil {
		slog.Error("Failed to unmarshal record", "subject", m.Subject, "error", err)
		// A malformed payload will not parse on redelivery either.
		m.Ack()
		return
	}

	ctx := context.Background()
	event, err := h.store.GetEvent(ctx, h.store.Read(), ref.EventID)
	if err != nil {
		slog.Error("Failed to load event", "event_id", ref.EventID, "error", err)
		return
	}

	if event == nil {
		if err := h.esClient.DeleteEvent(ctx, ref.EventID); err != nil {
			slog.Error("Failed to delete event document", "event_id", ref.EventID, "error", err)
			return
		}
	} else {
		if err := h.esClient.IndexEvent(ctx, event); err != nil {
			slog.Error("Failed to index event", "event_id", ref.EventID, "error", err)
			return
		}
	}

	slog.Info("Synced event to search index", "subject", m.Subject, "event_id", ref.EventID)
	m.Ack()
}
