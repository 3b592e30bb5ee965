package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gatepass/internal/cache"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
	"gatepass/internal/monitoring"
	"gatepass/internal/search"
)

type EventService struct {
	store     Store
	publisher Publisher
	esClient  *search.Client
	cache     *cache.ValkeyClient
	now       func() time.Time
}

func NewEventService(store Store, publisher Publisher, esClient *search.Client, cacheClient *cache.ValkeyClient) *EventService {
	return &EventService{
		store:     store,
		publisher: publisher,
		esClient:  esClient,
		cache:     cacheClient,
		now:       defaultClock,
	}
}

// Create allocates an event id and inserts the event with the caller as
// organizer. Field validation is the storage engine's job.
func (s *EventService) Create(ctx context.Context, caller int64, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	var event *models.Event

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		id, err := s.store.NextEventID(ctx, q, cap)
		if err != nil {
			return err
		}

		event = &models.Event{
			ID:            id,
			Organizer:     caller,
			Name:          req.Name,
			Venue:         req.Venue,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			TicketPrice:   req.TicketPrice,
			TotalSupply:   req.TotalSupply,
			RefundAllowed: req.RefundAllowed,
			Transferable:  req.Transferable,
			MetadataURI:   req.MetadataURI,
		}
		if req.Description != "" {
			event.Description = &req.Description
		}

		return s.store.InsertEvent(ctx, q, cap, event, s.now())
	})
	if err != nil {
		return nil, err
	}

	monitoring.EventCreated()
	s.invalidateCatalog(ctx)

	record := models.EventCreatedRecord{
		EventID:   event.ID,
		Organizer: caller,
		Name:      event.Name,
		Supply:    event.TotalSupply,
		Price:     event.TicketPrice,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordEventCreated, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event created record",
			"error", err,
			"event_id", event.ID)
	}

	return &models.CreateEventResponse{ID: event.ID}, nil
}

// Cancel deactivates an event. There is deliberately no path back to active:
// buyers rely on a cancelled event staying cancelled.
func (s *EventService) Cancel(ctx context.Context, caller int64, eventID int64) error {
	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		event, err := s.store.GetEvent(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if event.Organizer != caller {
			return apperrors.ErrNotAuthorized
		}

		return s.store.UpdateEventStatus(ctx, q, cap, eventID, false)
	})
	if err != nil {
		return err
	}

	s.invalidateCatalog(ctx)

	record := models.EventCancelledRecord{
		EventID:   eventID,
		Organizer: caller,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordEventCancelled, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event cancelled record",
			"error", err,
			"event_id", eventID)
	}

	return nil
}

// List serves the event catalog. When a search backend is configured the
// query goes to Elasticsearch; otherwise it falls back to the primary store.
// The default first page is cached in Valkey with a short TTL.
func (s *EventService) List(ctx context.Context, query string, page, pageSize int) ([]models.ListEventsResponseItem, error) {
	cacheable := s.cache != nil && query == "" && page == 1 && pageSize == 20

	if cacheable {
		if data, err := s.cache.GetEventCatalog(ctx); err == nil {
			var cached []models.ListEventsResponseItem
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var events []models.Event
	var err error

	if s.esClient != nil {
		events, err = s.esClient.Search(ctx, query, page, pageSize)
	} else {
		events, err = s.store.ListEvents(ctx, s.store.Read(), page, pageSize)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]models.ListEventsResponseItem, len(events))
	for i, event := range events {
		result[i] = models.ListEventsResponseItem{
			ID:        event.ID,
			Name:      event.Name,
			Venue:     event.Venue,
			StartTime: event.StartTime,
			IsActive:  event.IsActive,
		}
	}

	if cacheable {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.SetEventCatalog(ctx, data); err != nil {
				logger.WithContext(ctx).Warn("Failed to cache event catalog", "error", err)
			}
		}
	}

	return result, nil
}

func (s *EventService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEventCatalog(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate event catalog cache", "error", err)
	}
}

// Get returns one event, or nil when it does not exist.
func (s *EventService) Get(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.store.GetEvent(ctx, s.store.Read(), eventID)
}

// ListByOrganizer returns the caller's own events.
func (s *EventService) ListByOrganizer(ctx context.Context, organizer int64) ([]models.Event, error) {
	return s.store.ListEventsByOrganizer(ctx, s.store.Read(), organizer)
}

// Balance exposes the escrow bookkeeping for an organizer's event.
func (s *EventService) Balance(ctx context.Context, caller, eventID int64) (*models.EventBalanceResponse, error) {
	event, err := s.store.GetEvent(ctx, s.store.Read(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.Organizer != caller {
		return nil, apperrors.ErrNotAuthorized
	}

	balance, err := s.store.GetEventBalance(ctx, s.store.Read(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event balance: %w", err)
	}
	if balance == nil {
		return nil, apperrors.ErrEventNotFound
	}

	return &models.EventBalanceResponse{
		EventID:          balance.EventID,
		AvailableBalance: balance.AvailableBalance,
		LockedBalance:    balance.LockedBalance,
		TotalWithdrawn:   balance.TotalWithdrawn,
	}, nil
}

// Withdraw drains an event's locked balance to its organizer.
func (s *EventService) Withdraw(ctx context.Context, caller, eventID int64) (*models.WithdrawRevenueResponse, error) {
	var amount int64

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, state, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		event, err := s.store.GetEvent(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if event.Organizer != caller {
			return apperrors.ErrNotAuthorized
		}

		balance, err := s.store.GetEventBalance(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event balance: %w", err)
		}
		if balance == nil || balance.LockedBalance <= 0 {
			return apperrors.ErrWithdrawNotAllowed
		}

		amount, err = s.store.WithdrawLockedBalance(ctx, q, cap, eventID)
		if err != nil {
			return err
		}

		if err := s.store.DebitAccount(ctx, q, cap, state.CustodyAccount, amount); err != nil {
			return err
		}
		return s.store.CreditAccount(ctx, q, cap, caller, amount)
	})
	if err != nil {
		return nil, err
	}

	monitoring.RevenueWithdrawn(amount)

	record := models.RevenueWithdrawnRecord{
		EventID:   eventID,
		Organizer: caller,
		Amount:    amount,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordRevenueWithdrawn, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish revenue withdrawn record",
			"error", err,
			"event_id", eventID)
	}

	return &models.WithdrawRevenueResponse{Amount: amount}, nil
}
