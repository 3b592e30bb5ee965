package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

type ValidatorRepository struct {
	db *database.DB
}

func NewValidatorRepository(db *database.DB) *ValidatorRepository {
	return &ValidatorRepository{db: db}
}

func (r *ValidatorRepository) Get(ctx context.Context, q database.Executor, eventID, validator int64) (*models.Validator, error) {
	v := &models.Validator{}
	query := `
		SELECT event_id, validator, is_active, validated_count, added_at
		FROM event_validators
		WHERE event_id = $1 AND validator = $2`

	err := q.QueryRowContext(ctx, query, eventID, validator).Scan(
		&v.EventID,
		&v.Validator,
		&v.IsActive,
		&v.ValidatedCount,
		&v.AddedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return v, err
}

// Upsert activates a validator for an event. Re-adding an existing row
// refreshes added_at and reactivates it but keeps the historical
// validated_count; rows are never physically removed.
func (r *ValidatorRepository) Upsert(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64, addedAt time.Time) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrEventNotFound
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO event_validators (event_id, validator, is_active, added_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (event_id, validator)
		DO UPDATE SET is_active = TRUE, added_at = EXCLUDED.added_at`,
		eventID, validator, addedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert validator: %w", err)
	}

	return nil
}

func (r *ValidatorRepository) Deactivate(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE event_validators SET is_active = FALSE
		WHERE event_id = $1 AND validator = $2`,
		eventID, validator)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrValidatorNotFound
	}

	return nil
}

// AddValidatedCount bumps the monotonic check-in counter.
func (r *ValidatorRepository) AddValidatedCount(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator, delta int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE event_validators SET validated_count = validated_count + $3
		WHERE event_id = $1 AND validator = $2`,
		eventID, validator, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrValidatorNotFound
	}

	return nil
}
