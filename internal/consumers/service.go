package consumers

import (
	"context"
	"log/slog"

	"gatepass/internal/config"
	"gatepass/internal/database"
	"gatepass/internal/messaging"
	"gatepass/internal/models"
	"gatepass/internal/repository"
	"gatepass/internal/search"
)

// ConsumerService tails the workflow record stream and keeps the search index
// in line with the primary store.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	store    *repository.Store
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewClient(cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(db)
	handlers := NewHandlers(store, esClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		store:    store,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subjects := []string{
		models.RecordEventCreated,
		models.RecordEventCancelled,
		models.RecordTicketMinted,
		models.RecordTicketRefunded,
	}

	for _, subject := range subjects {
		if _, err := cs.nats.SubscribeQueue(subject, "consumers", cs.handlers.HandleEventRecord); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
