package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

type BalanceRepository struct {
	db *database.DB
}

func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Get(ctx context.Context, q database.Executor, eventID int64) (*models.EventBalance, error) {
	balance := &models.EventBalance{}
	query := `
		SELECT event_id, available_balance, locked_balance, total_withdrawn
		FROM event_balances
		WHERE event_id = $1`

	err := q.QueryRowContext(ctx, query, eventID).Scan(
		&balance.EventID,
		&balance.AvailableBalance,
		&balance.LockedBalance,
		&balance.TotalWithdrawn,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return balance, err
}

// AddLocked adjusts the locked balance by delta, which may be negative on
// refunds. The schema check keeps the balance from ever going below zero.
func (r *BalanceRepository) AddLocked(ctx context.Context, q database.Executor, cap auth.Capability, eventID, delta int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE event_balances SET locked_balance = locked_balance + $2
		WHERE event_id = $1`,
		eventID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust locked balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

// WithdrawLocked zeroes the locked balance, rolls it into total_withdrawn and
// returns the amount drained.
func (r *BalanceRepository) WithdrawLocked(ctx context.Context, q database.Executor, cap auth.Capability, eventID int64) (int64, error) {
	if err := guard(ctx, q, cap); err != nil {
		return 0, err
	}

	var locked int64
	err := q.QueryRowContext(ctx,
		`SELECT locked_balance FROM event_balances WHERE event_id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE event_balances
		SET locked_balance = 0, total_withdrawn = total_withdrawn + $2
		WHERE event_id = $1`,
		eventID, locked)
	if err != nil {
		return 0, fmt.Errorf("failed to withdraw locked balance: %w", err)
	}

	return locked, nil
}
