package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

type StateRepository struct {
	db *database.DB
}

func NewStateRepository(db *database.DB) *StateRepository {
	return &StateRepository{db: db}
}

// guard is the single entry check shared by every mutating storage primitive:
// the capability principal must match the admin principal in ledger_state and
// the ledger must not be paused. It reads state through the caller's executor
// so the check sits inside the same transaction as the mutation it protects.
func guard(ctx context.Context, q database.Executor, cap auth.Capability) error {
	var paused bool
	var admin int64

	err := q.QueryRowContext(ctx,
		`SELECT paused, admin_account FROM ledger_state WHERE id = 1`,
	).Scan(&paused, &admin)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}

	if cap.Principal != admin {
		return apperrors.ErrNotAuthorized
	}
	if paused {
		return apperrors.ErrPaused
	}

	return nil
}

func (r *StateRepository) Get(ctx context.Context, q database.Executor) (*models.LedgerState, error) {
	state := &models.LedgerState{}
	query := `
		SELECT next_event_id, next_ticket_id, paused, admin_account, custody_account, platform_account
		FROM ledger_state
		WHERE id = 1`

	err := q.QueryRowContext(ctx, query).Scan(
		&state.NextEventID,
		&state.NextTicketID,
		&state.Paused,
		&state.AdminAccount,
		&state.CustodyAccount,
		&state.PlatformAccount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return state, err
}

// NextEventID returns the pre-increment counter value and advances it.
func (r *StateRepository) NextEventID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	if err := guard(ctx, q, cap); err != nil {
		return 0, err
	}
	return nextID(ctx, q, "next_event_id")
}

// NextTicketID returns the pre-increment counter value and advances it.
func (r *StateRepository) NextTicketID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	if err := guard(ctx, q, cap); err != nil {
		return 0, err
	}
	return nextID(ctx, q, "next_ticket_id")
}

func nextID(ctx context.Context, q database.Executor, column string) (int64, error) {
	var current int64

	query := fmt.Sprintf(`SELECT %s FROM ledger_state WHERE id = 1 FOR UPDATE`, column)
	if err := q.QueryRowContext(ctx, query).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", column, err)
	}

	if current == math.MaxInt64 {
		return 0, apperrors.ErrOverflow
	}

	update := fmt.Sprintf(`UPDATE ledger_state SET %s = %s + 1 WHERE id = 1`, column, column)
	if _, err := q.ExecContext(ctx, update); err != nil {
		return 0, fmt.Errorf("failed to advance %s: %w", column, err)
	}

	return current, nil
}

// SetPaused toggles the pause flag. A paused ledger rejects every mutation, so
// the guard runs before the flag is written.
func (r *StateRepository) SetPaused(ctx context.Context, q database.Executor, cap auth.Capability, paused bool) error {
	var admin int64
	if err := q.QueryRowContext(ctx, `SELECT admin_account FROM ledger_state WHERE id = 1`).Scan(&admin); err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	if cap.Principal != admin {
		return apperrors.ErrNotAuthorized
	}

	_, err := q.ExecContext(ctx, `UPDATE ledger_state SET paused = $1 WHERE id = 1`, paused)
	return err
}

// SetAdmin hands the privileged principal to another account.
func (r *StateRepository) SetAdmin(ctx context.Context, q database.Executor, cap auth.Capability, account int64) error {
	var admin int64
	if err := q.QueryRowContext(ctx, `SELECT admin_account FROM ledger_state WHERE id = 1`).Scan(&admin); err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	if cap.Principal != admin {
		return apperrors.ErrNotAuthorized
	}

	res, err := q.ExecContext(ctx, `UPDATE ledger_state SET admin_account = $1 WHERE id = 1`, account)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

// BootstrapConfig seeds the singleton ledger state and its system accounts on
// first start. Subsequent starts leave existing state untouched.
type BootstrapConfig struct {
	AdminEmail        string
	AdminPasswordHash string
}

func (r *StateRepository) Bootstrap(ctx context.Context, cfg BootstrapConfig) error {
	return r.db.WithinTx(ctx, func(q database.Executor) error {
		state, err := r.Get(ctx, q)
		if err != nil {
			return err
		}
		if state != nil {
			return nil
		}

		custody, err := ensureSystemAccount(ctx, q, "custody")
		if err != nil {
			return err
		}
		platform, err := ensureSystemAccount(ctx, q, "platform")
		if err != nil {
			return err
		}

		var admin int64
		err = q.QueryRowContext(ctx, `
			INSERT INTO accounts (email, password_hash, display_name, kind)
			VALUES ($1, $2, 'admin', 'user')
			ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			RETURNING account_id`,
			cfg.AdminEmail, cfg.AdminPasswordHash,
		).Scan(&admin)
		if err != nil {
			return fmt.Errorf("failed to seed admin account: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO ledger_state (id, admin_account, custody_account, platform_account)
			VALUES (1, $1, $2, $3)`,
			admin, custody, platform,
		)
		if err != nil {
			return fmt.Errorf("failed to seed ledger state: %w", err)
		}

		return nil
	})
}

func ensureSystemAccount(ctx context.Context, q database.Executor, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO accounts (email, display_name, kind)
		VALUES ($1, $2, 'system')
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING account_id`,
		name+"@gatepass.internal", name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s account: %w", name, err)
	}
	return id, nil
}
