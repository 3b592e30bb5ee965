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

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer, name, description, venue, start_time, end_time,
	       ticket_price, total_supply, sold_count, is_active, refund_allowed,
	       transferable, metadata_uri, created_at`

func scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.Organizer,
		&event.Name,
		&event.Description,
		&event.Venue,
		&event.StartTime,
		&event.EndTime,
		&event.TicketPrice,
		&event.TotalSupply,
		&event.SoldCount,
		&event.IsActive,
		&event.RefundAllowed,
		&event.Transferable,
		&event.MetadataURI,
		&event.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

// Insert validates the event fields and writes the event row, its organizer
// index entry and a zeroed balance row. Callers supply the executor so all
// three writes land in one transaction.
func (r *EventRepository) Insert(ctx context.Context, q database.Executor, cap auth.Capability, event *models.Event, now time.Time) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	if event.TotalSupply <= 0 {
		return apperrors.ErrInvalidSupply
	}
	if !event.StartTime.Before(event.EndTime) {
		return apperrors.ErrInvalidTimeRange
	}
	if event.StartTime.Before(now) {
		return apperrors.ErrEventInPast
	}
	// Price is validated even though the wire type already forbids negatives.
	if event.TicketPrice < 0 {
		return apperrors.ErrInvalidPrice
	}

	event.CreatedAt = now

	query := `
		INSERT INTO events (id, organizer, name, description, venue, start_time, end_time,
		                    ticket_price, total_supply, refund_allowed, transferable,
		                    metadata_uri, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := q.ExecContext(ctx, query,
		event.ID,
		event.Organizer,
		event.Name,
		event.Description,
		event.Venue,
		event.StartTime,
		event.EndTime,
		event.TicketPrice,
		event.TotalSupply,
		event.RefundAllowed,
		event.Transferable,
		event.MetadataURI,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO organizer_events (organizer, event_id, created_at) VALUES ($1, $2, $3)`,
		event.Organizer, event.ID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert organizer index: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO event_balances (event_id) VALUES ($1)`, event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert event balance: %w", err)
	}

	event.SoldCount = 0
	event.IsActive = true
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, q database.Executor, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(q.QueryRowContext(ctx, query, id))
}

func (r *EventRepository) UpdateStatus(ctx context.Context, q database.Executor, cap auth.Capability, id int64, active bool) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `UPDATE events SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

// AdjustSoldCount moves sold_count by delta. The bounds check rides in the
// WHERE clause of the update itself, so a statement that would push the count
// past total_supply or below zero matches no rows instead of committing a
// stale absolute value.
func (r *EventRepository) AdjustSoldCount(ctx context.Context, q database.Executor, cap auth.Capability, id int64, delta int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE events SET sold_count = sold_count + $2
		WHERE id = $1
		  AND sold_count + $2 >= 0
		  AND sold_count + $2 <= total_supply`,
		id, delta)
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

	var exists bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrEventNotFound
	}
	return apperrors.ErrExceedsSupply
}

func (r *EventRepository) List(ctx context.Context, q database.Executor, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	var args []interface{}

	query := `SELECT ` + eventColumns + ` FROM events ORDER BY id ASC`

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, pageSize, offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Organizer,
			&event.Name,
			&event.Description,
			&event.Venue,
			&event.StartTime,
			&event.EndTime,
			&event.TicketPrice,
			&event.TotalSupply,
			&event.SoldCount,
			&event.IsActive,
			&event.RefundAllowed,
			&event.Transferable,
			&event.MetadataURI,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// ListByOrganizer reads through the organizer index relation rather than the
// primary table so the index stays an exercised, verified mirror.
func (r *EventRepository) ListByOrganizer(ctx context.Context, q database.Executor, organizer int64) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT e.id, e.organizer, e.name, e.description, e.venue, e.start_time, e.end_time,
		       e.ticket_price, e.total_supply, e.sold_count, e.is_active, e.refund_allowed,
		       e.transferable, e.metadata_uri, e.created_at
		FROM events e
		JOIN organizer_events oe ON e.id = oe.event_id
		WHERE oe.organizer = $1
		ORDER BY oe.created_at DESC`

	rows, err := q.QueryContext(ctx, query, organizer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Organizer,
			&event.Name,
			&event.Description,
			&event.Venue,
			&event.StartTime,
			&event.EndTime,
			&event.TicketPrice,
			&event.TotalSupply,
			&event.SoldCount,
			&event.IsActive,
			&event.RefundAllowed,
			&event.Transferable,
			&event.MetadataURI,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
