package service

import (
	"context"
	"fmt"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// AdminService covers the privileged controls. Unlike the workflows, these run
// under the caller's own capability: the storage engine rejects anyone who is
// not the configured admin.
type AdminService struct {
	store Store
}

func NewAdminService(store Store) *AdminService {
	return &AdminService{store: store}
}

// SetPaused toggles the ledger-wide pause flag.
func (s *AdminService) SetPaused(ctx context.Context, caller int64, paused bool) error {
	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		return s.store.SetPaused(ctx, q, auth.CapabilityFor(caller), paused)
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Warn("Ledger pause flag changed",
		"paused", paused,
		"admin", caller)
	return nil
}

// SetAdmin hands the privileged principal to another existing account.
func (s *AdminService) SetAdmin(ctx context.Context, caller int64, account int64) error {
	err := s.store.WithinTx(ctx, func(q database.Executor) error {
		target, err := s.store.GetAccount(ctx, q, account)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if target == nil {
			return apperrors.ErrAccountNotFound
		}
		return s.store.SetAdmin(ctx, q, auth.CapabilityFor(caller), account)
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Warn("Admin principal rotated",
		"previous", caller,
		"current", account)
	return nil
}

// State exposes the ledger singleton for the health and admin surfaces.
func (s *AdminService) State(ctx context.Context) (*models.LedgerState, error) {
	return s.store.GetState(ctx, s.store.Read())
}
