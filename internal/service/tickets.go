package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
	"gatepass/internal/monitoring"
)

type TicketService struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

func NewTicketService(store Store, publisher Publisher) *TicketService {
	return &TicketService{
		store:     store,
		publisher: publisher,
		now:       defaultClock,
	}
}

// Purchase mints a ticket for the buyer. The purchase price moves into the
// custody account in the same transaction; the platform's 2% cut is carved out
// of custody immediately, and the remainder is locked for the organizer.
func (s *TicketService) Purchase(ctx context.Context, buyer int64, eventID int64) (*models.PurchaseTicketResponse, error) {
	var ticket *models.Ticket
	var price, fee int64

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
		if !event.IsActive {
			return apperrors.ErrEventInactive
		}
		if event.SoldCount >= event.TotalSupply {
			return apperrors.ErrSoldOut
		}

		price = event.TicketPrice
		fee = platformFee(price)

		if err := s.store.DebitAccount(ctx, q, cap, buyer, price); err != nil {
			return err
		}
		if err := s.store.CreditAccount(ctx, q, cap, state.CustodyAccount, price); err != nil {
			return err
		}

		id, err := s.store.NextTicketID(ctx, q, cap)
		if err != nil {
			return err
		}

		ticket = &models.Ticket{
			ID:           id,
			EventID:      eventID,
			Owner:        buyer,
			PurchaseTime: s.now(),
		}
		if err := s.store.InsertTicket(ctx, q, cap, ticket); err != nil {
			return err
		}
		// A racing purchase can take the last ticket between the read
		// above and this adjustment; the engine rejects the overshoot.
		if err := s.store.AdjustEventSoldCount(ctx, q, cap, eventID, 1); err != nil {
			if errors.Is(err, apperrors.ErrExceedsSupply) {
				return apperrors.ErrSoldOut
			}
			return err
		}

		if err := s.store.AddLockedBalance(ctx, q, cap, eventID, price-fee); err != nil {
			return err
		}
		if fee > 0 {
			if err := s.store.DebitAccount(ctx, q, cap, state.CustodyAccount, fee); err != nil {
				return err
			}
			if err := s.store.CreditAccount(ctx, q, cap, state.PlatformAccount, fee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.TicketMinted(price)

	record := models.TicketMintedRecord{
		TicketID:    ticket.ID,
		EventID:     eventID,
		Buyer:       buyer,
		Price:       price,
		PlatformFee: fee,
		Timestamp:   s.now(),
	}
	if err := s.publisher.Publish(models.RecordTicketMinted, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket minted record",
			"error", err,
			"ticket_id", ticket.ID)
	}

	return &models.PurchaseTicketResponse{ID: ticket.ID}, nil
}

// Validate checks a ticket in at the door. Only an active validator for the
// ticket's event may call it, and only inside the event's time window.
func (s *TicketService) Validate(ctx context.Context, caller int64, ticketID int64) error {
	var eventID int64

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		ticket, err := s.store.GetTicket(ctx, q, ticketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if ticket == nil {
			return apperrors.ErrTicketNotFound
		}
		if ticket.IsUsed {
			return apperrors.ErrAlreadyUsed
		}
		eventID = ticket.EventID

		event, err := s.store.GetEvent(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		if err := s.requireValidator(ctx, q, eventID, caller); err != nil {
			return err
		}
		if err := s.checkWindow(event); err != nil {
			return err
		}

		if err := s.store.MarkTicketUsed(ctx, q, cap, ticketID, s.now()); err != nil {
			return err
		}
		return s.store.AddValidatedCount(ctx, q, cap, eventID, caller, 1)
	})
	if err != nil {
		return err
	}

	monitoring.TicketValidated(1)

	record := models.TicketValidatedRecord{
		TicketID:  ticketID,
		EventID:   eventID,
		Validator: caller,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordTicketValidated, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket validated record",
			"error", err,
			"ticket_id", ticketID)
	}

	return nil
}

// BatchValidate checks in a list of tickets for one event in one transaction.
// Role and window checks happen once; per-ticket results come back in request
// order, false for tickets that are missing, already used, or belong to a
// different event.
func (s *TicketService) BatchValidate(ctx context.Context, caller int64, req *models.BatchValidateRequest) (*models.BatchValidateResponse, error) {
	results := make([]bool, len(req.TicketIDs))

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		event, err := s.store.GetEvent(ctx, q, req.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if err := s.requireValidator(ctx, q, req.EventID, caller); err != nil {
			return err
		}
		if err := s.checkWindow(event); err != nil {
			return err
		}

		// Tickets from other events are skipped up front so the storage
		// primitive only ever flips tickets belonging to this event.
		eligible := make([]int64, 0, len(req.TicketIDs))
		positions := make([]int, 0, len(req.TicketIDs))
		for i, id := range req.TicketIDs {
			ticket, err := s.store.GetTicket(ctx, q, id)
			if err != nil {
				return fmt.Errorf("failed to get ticket: %w", err)
			}
			if ticket == nil || ticket.EventID != req.EventID {
				continue
			}
			eligible = append(eligible, id)
			positions = append(positions, i)
		}

		marked, err := s.store.BatchMarkTicketsUsed(ctx, q, cap, eligible, s.now())
		if err != nil {
			return err
		}

		validated := int64(0)
		for j, ok := range marked {
			results[positions[j]] = ok
			if ok {
				validated++
			}
		}
		if validated > 0 {
			return s.store.AddValidatedCount(ctx, q, cap, req.EventID, caller, validated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	monitoring.TicketValidated(succeeded)

	logger.WithContext(ctx).Info("Batch validation completed",
		"event_id", req.EventID,
		"requested", len(req.TicketIDs),
		"validated", succeeded)

	return &models.BatchValidateResponse{Results: results}, nil
}

// Transfer moves an unused ticket from its owner to another active user
// account, when the event allows transfers.
func (s *TicketService) Transfer(ctx context.Context, caller int64, req *models.TransferTicketRequest) error {
	var eventID int64

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		recipient, err := s.store.GetAccount(ctx, q, req.Recipient)
		if err != nil {
			return fmt.Errorf("failed to get recipient: %w", err)
		}
		if recipient == nil || !recipient.IsActive || recipient.Kind != models.AccountKindUser {
			return apperrors.ErrInvalidRecipient
		}

		ticket, err := s.store.GetTicket(ctx, q, req.TicketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if ticket == nil {
			return apperrors.ErrTicketNotFound
		}
		if ticket.Owner != req.Sender {
			return apperrors.ErrNotOwner
		}
		if caller != req.Sender {
			return apperrors.ErrNotAuthorized
		}
		eventID = ticket.EventID

		event, err := s.store.GetEvent(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if !event.Transferable {
			return apperrors.ErrTransferNotAllowed
		}
		if ticket.IsUsed {
			return apperrors.ErrAlreadyUsed
		}

		return s.store.UpdateTicketOwner(ctx, q, cap, req.TicketID, req.Recipient)
	})
	if err != nil {
		return err
	}

	record := models.TicketTransferredRecord{
		TicketID:  req.TicketID,
		EventID:   eventID,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordTicketTransfer, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket transferred record",
			"error", err,
			"ticket_id", req.TicketID)
	}

	return nil
}

// Refund burns an unused ticket before the event starts and pays the full
// purchase price back to the owner. The organizer's locked portion comes out
// of custody and the platform fee is clawed back from the platform account, so
// custody keeps covering exactly the remaining locked balances.
func (s *TicketService) Refund(ctx context.Context, caller int64, ticketID int64) error {
	var eventID, amount int64

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, state, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		ticket, err := s.store.GetTicket(ctx, q, ticketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if ticket == nil {
			return apperrors.ErrTicketNotFound
		}
		if ticket.Owner != caller {
			return apperrors.ErrNotOwner
		}
		if ticket.IsUsed {
			return apperrors.ErrAlreadyUsed
		}
		eventID = ticket.EventID

		event, err := s.store.GetEvent(ctx, q, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if !event.RefundAllowed {
			return apperrors.ErrRefundNotAllowed
		}
		if !s.now().Before(event.StartTime) {
			return apperrors.ErrEventStarted
		}

		price := event.TicketPrice
		fee := platformFee(price)
		amount = price

		if err := s.store.AddLockedBalance(ctx, q, cap, eventID, -(price - fee)); err != nil {
			return err
		}
		if price-fee > 0 {
			if err := s.store.DebitAccount(ctx, q, cap, state.CustodyAccount, price-fee); err != nil {
				return err
			}
		}
		if fee > 0 {
			if err := s.store.DebitAccount(ctx, q, cap, state.PlatformAccount, fee); err != nil {
				return err
			}
		}
		if price > 0 {
			if err := s.store.CreditAccount(ctx, q, cap, caller, price); err != nil {
				return err
			}
		}

		if err := s.store.DeleteTicket(ctx, q, cap, ticketID); err != nil {
			return err
		}
		return s.store.AdjustEventSoldCount(ctx, q, cap, eventID, -1)
	})
	if err != nil {
		return err
	}

	monitoring.TicketRefunded(amount)

	record := models.TicketRefundedRecord{
		TicketID:  ticketID,
		EventID:   eventID,
		Buyer:     caller,
		Amount:    amount,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.RecordTicketRefunded, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket refunded record",
			"error", err,
			"ticket_id", ticketID)
	}

	return nil
}

// Get returns one ticket, or nil when it does not exist.
func (s *TicketService) Get(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	return s.store.GetTicket(ctx, s.store.Read(), ticketID)
}

// ListByOwner returns the caller's tickets.
func (s *TicketService) ListByOwner(ctx context.Context, owner int64) ([]models.ListTicketsResponseItem, error) {
	tickets, err := s.store.ListTicketsByOwner(ctx, s.store.Read(), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	result := make([]models.ListTicketsResponseItem, len(tickets))
	for i, ticket := range tickets {
		result[i] = models.ListTicketsResponseItem{
			ID:      ticket.ID,
			EventID: ticket.EventID,
			IsUsed:  ticket.IsUsed,
		}
	}

	return result, nil
}

func (s *TicketService) requireValidator(ctx context.Context, q database.Executor, eventID, caller int64) error {
	validator, err := s.store.GetValidator(ctx, q, eventID, caller)
	if err != nil {
		return fmt.Errorf("failed to get validator: %w", err)
	}
	if validator == nil || !validator.IsActive {
		return apperrors.ErrNotValidator
	}
	return nil
}

func (s *TicketService) checkWindow(event *models.Event) error {
	now := s.now()
	if now.Before(event.StartTime) {
		return apperrors.ErrEventNotStarted
	}
	if now.After(event.EndTime) {
		return apperrors.ErrEventEnded
	}
	return nil
}
