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

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) GetByID(ctx context.Context, q database.Executor, id int64) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `
		SELECT id, event_id, owner, is_used, purchase_time, used_time
		FROM tickets
		WHERE id = $1`

	err := q.QueryRowContext(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Owner,
		&ticket.IsUsed,
		&ticket.PurchaseTime,
		&ticket.UsedTime,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return ticket, err
}

// Insert writes the ticket and both of its index entries. The owning event
// must already exist.
func (r *TicketRepository) Insert(ctx context.Context, q database.Executor, cap auth.Capability, ticket *models.Ticket) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, ticket.EventID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrEventNotFound
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO tickets (id, event_id, owner, purchase_time)
		VALUES ($1, $2, $3, $4)`,
		ticket.ID, ticket.EventID, ticket.Owner, ticket.PurchaseTime)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO owner_tickets (owner, ticket_id, event_id)
		VALUES ($1, $2, $3)`,
		ticket.Owner, ticket.ID, ticket.EventID)
	if err != nil {
		return fmt.Errorf("failed to insert owner index: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO event_tickets (event_id, ticket_id, owner)
		VALUES ($1, $2, $3)`,
		ticket.EventID, ticket.ID, ticket.Owner)
	if err != nil {
		return fmt.Errorf("failed to insert event index: %w", err)
	}

	ticket.IsUsed = false
	return nil
}

// UpdateOwner rewrites the ticket row and swaps the owner index entry so the
// old and new entries never coexist outside the transaction.
func (r *TicketRepository) UpdateOwner(ctx context.Context, q database.Executor, cap auth.Capability, id, newOwner int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	var eventID, oldOwner int64
	err := q.QueryRowContext(ctx,
		`SELECT event_id, owner FROM tickets WHERE id = $1`, id).Scan(&eventID, &oldOwner)
	if err == sql.ErrNoRows {
		return apperrors.ErrTicketNotFound
	}
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE tickets SET owner = $2 WHERE id = $1`, id, newOwner); err != nil {
		return fmt.Errorf("failed to update ticket owner: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM owner_tickets WHERE owner = $1 AND ticket_id = $2`, oldOwner, id); err != nil {
		return fmt.Errorf("failed to remove old owner index: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO owner_tickets (owner, ticket_id, event_id) VALUES ($1, $2, $3)`,
		newOwner, id, eventID); err != nil {
		return fmt.Errorf("failed to insert new owner index: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE event_tickets SET owner = $3 WHERE event_id = $1 AND ticket_id = $2`,
		eventID, id, newOwner); err != nil {
		return fmt.Errorf("failed to update event index: %w", err)
	}

	return nil
}

// MarkUsed flips the ticket in a single conditional statement. A ticket that
// was checked in by a racing call matches no rows, so the first used_time is
// never overwritten.
func (r *TicketRepository) MarkUsed(ctx context.Context, q database.Executor, cap auth.Capability, id int64, usedAt time.Time) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE tickets SET is_used = TRUE, used_time = $2
		WHERE id = $1 AND is_used = FALSE`,
		id, usedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var used bool
	err = q.QueryRowContext(ctx, `SELECT is_used FROM tickets WHERE id = $1`, id).Scan(&used)
	if err == sql.ErrNoRows {
		return apperrors.ErrTicketNotFound
	}
	if err != nil {
		return err
	}
	return apperrors.ErrAlreadyUsed
}

// Delete removes the ticket and both index entries in one step.
func (r *TicketRepository) Delete(ctx context.Context, q database.Executor, cap auth.Capability, id int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	var eventID, owner int64
	err := q.QueryRowContext(ctx,
		`SELECT event_id, owner FROM tickets WHERE id = $1`, id).Scan(&eventID, &owner)
	if err == sql.ErrNoRows {
		return apperrors.ErrTicketNotFound
	}
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM owner_tickets WHERE owner = $1 AND ticket_id = $2`, owner, id); err != nil {
		return fmt.Errorf("failed to delete owner index: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM event_tickets WHERE event_id = $1 AND ticket_id = $2`, eventID, id); err != nil {
		return fmt.Errorf("failed to delete event index: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	return nil
}

// BatchMarkUsed processes the ids in order. A missing or already-used ticket
// reports false for its slot instead of failing the batch; the caller's
// transaction still commits or rolls back the batch as a whole.
func (r *TicketRepository) BatchMarkUsed(ctx context.Context, q database.Executor, cap auth.Capability, ids []int64, usedAt time.Time) ([]bool, error) {
	if err := guard(ctx, q, cap); err != nil {
		return nil, err
	}

	results := make([]bool, len(ids))
	for i, id := range ids {
		res, err := q.ExecContext(ctx, `
			UPDATE tickets SET is_used = TRUE, used_time = $2
			WHERE id = $1 AND is_used = FALSE`,
			id, usedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to mark ticket %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		results[i] = n == 1
	}

	return results, nil
}

// ListByOwner reads through the owner index relation.
func (r *TicketRepository) ListByOwner(ctx context.Context, q database.Executor, owner int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	query := `
		SELECT t.id, t.event_id, t.owner, t.is_used, t.purchase_time, t.used_time
		FROM tickets t
		JOIN owner_tickets ot ON t.id = ot.ticket_id AND t.owner = ot.owner
		WHERE ot.owner = $1
		ORDER BY t.id ASC`

	rows, err := q.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticket models.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.Owner,
			&ticket.IsUsed,
			&ticket.PurchaseTime,
			&ticket.UsedTime,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}
