package service

import (
	"context"
	"fmt"
	"time"

	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

type ValidatorService struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

func NewValidatorService(store Store, publisher Publisher) *ValidatorService {
	return &ValidatorService{
		store:     store,
		publisher: publisher,
		now:       defaultClock,
	}
}

// Add authorizes an account to validate tickets for an event. Re-adding a
// previously removed validator reactivates it with its validated count intact.
func (s *ValidatorService) Add(ctx context.Context, caller int64, req *models.ValidatorRequest) error {
	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}
		if err := s.requireOrganizer(ctx, q, req.EventID, caller); err != nil {
			return err
		}
		return s.store.UpsertValidator(ctx, q, cap, req.EventID, req.Validator, s.now())
	})
	if err != nil {
		return err
	}

	s.publishToggle(ctx, models.RecordValidatorAdded, req, true)
	return nil
}

// Remove deactivates a validator. The row stays behind so the validated count
// survives a later re-add.
func (s *ValidatorService) Remove(ctx context.Context, caller int64, req *models.ValidatorRequest) error {
	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}
		if err := s.requireOrganizer(ctx, q, req.EventID, caller); err != nil {
			return err
		}
		return s.store.DeactivateValidator(ctx, q, cap, req.EventID, req.Validator)
	})
	if err != nil {
		return err
	}

	s.publishToggle(ctx, models.RecordValidatorRemoved, req, false)
	return nil
}

// Get returns a validator row, active or not, or nil when the account was
// never a validator for the event.
func (s *ValidatorService) Get(ctx context.Context, eventID, validator int64) (*models.Validator, error) {
	return s.store.GetValidator(ctx, s.store.Read(), eventID, validator)
}

func (s *ValidatorService) requireOrganizer(ctx context.Context, q database.Executor, eventID, caller int64) error {
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
	return nil
}

func (s *ValidatorService) publishToggle(ctx context.Context, subject string, req *models.ValidatorRequest, active bool) {
	record := models.ValidatorToggledRecord{
		EventID:   req.EventID,
		Validator: req.Validator,
		Active:    active,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(subject, record); err != nil {
		logger.WithContext(ctx).Error("Failed to publish validator record",
			"error", err,
			"event_id", req.EventID,
			"validator", req.Validator)
	}
}
