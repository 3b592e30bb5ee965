package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

type AccountService struct {
	store Store
	now   func() time.Time
}

func NewAccountService(store Store) *AccountService {
	return &AccountService{
		store: store,
		now:   defaultClock,
	}
}

// Signup registers a new user account with a zero balance.
func (s *AccountService) Signup(ctx context.Context, req *models.SignupRequest) (*models.SignupResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        &req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Kind:         models.AccountKindUser,
		IsActive:     true,
		RegisteredAt: s.now(),
	}

	err = s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		existing, err := s.store.GetAccountByEmail(ctx, q, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("email already registered")
		}

		return s.store.CreateAccount(ctx, q, cap, account)
	})
	if err != nil {
		return nil, err
	}

	return &models.SignupResponse{AccountID: account.AccountID}, nil
}

// TopUp credits the caller's balance. A demo funding path; a real deployment
// would sit behind a payment provider callback.
func (s *AccountService) TopUp(ctx context.Context, caller int64, amount int64) (*models.BalanceResponse, error) {
	var balance int64

	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		cap, _, err := engineCapability(ctx, s.store, q)
		if err != nil {
			return err
		}

		if err := s.store.CreditAccount(ctx, q, cap, caller, amount); err != nil {
			return err
		}

		account, err := s.store.GetAccount(ctx, q, caller)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return apperrors.ErrAccountNotFound
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.BalanceResponse{AccountID: caller, Balance: balance}, nil
}

// Balance returns the caller's current balance.
func (s *AccountService) Balance(ctx context.Context, caller int64) (*models.BalanceResponse, error) {
	account, err := s.store.GetAccount(ctx, s.store.Read(), caller)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return &models.BalanceResponse{AccountID: account.AccountID, Balance: account.Balance}, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.store.GetAccountByEmail(ctx, s.store.Read(), email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || !account.IsActive || account.Kind != models.AccountKindUser {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return account, nil
}
