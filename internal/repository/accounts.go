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

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `account_id, email, password_hash, display_name, kind, balance, is_active, registered_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.AccountID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.Kind,
		&account.Balance,
		&account.IsActive,
		&account.RegisteredAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return account, err
}

func (r *AccountRepository) GetByID(ctx context.Context, q database.Executor, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`
	return scanAccount(q.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, q database.Executor, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(q.QueryRowContext(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, q database.Executor, cap auth.Capability, account *models.Account) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (email, password_hash, display_name, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING account_id, balance, is_active, registered_at`

	return q.QueryRowContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Kind,
	).Scan(&account.AccountID, &account.Balance, &account.IsActive, &account.RegisteredAt)
}

// Credit adds funds to an account.
func (r *AccountRepository) Credit(ctx context.Context, q database.Executor, cap auth.Capability, id int64, amount int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE account_id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

// Debit removes funds from an account; it never lets a balance go negative.
func (r *AccountRepository) Debit(ctx context.Context, q database.Executor, cap auth.Capability, id int64, amount int64) error {
	if err := guard(ctx, q, cap); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE account_id = $1 AND balance >= $2`, id, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.ErrInsufficientFunds
	}

	return nil
}
