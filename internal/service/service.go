package service

import (
	"context"
	"fmt"
	"time"

	"gatepass/internal/auth"
	"gatepass/internal/cache"
	"gatepass/internal/database"
	"gatepass/internal/models"
	"gatepass/internal/search"
)

type Services struct {
	Events     *EventService
	Tickets    *TicketService
	Validators *ValidatorService
	Accounts   *AccountService
	Admin      *AdminService
	Facade     *FacadeService
}

func NewServices(store Store, publisher Publisher, esClient *search.Client, cacheClient *cache.ValkeyClient) *Services {
	eventService := NewEventService(store, publisher, esClient, cacheClient)
	ticketService := NewTicketService(store, publisher)
	validatorService := NewValidatorService(store, publisher)
	accountService := NewAccountService(store)
	adminService := NewAdminService(store)
	facadeService := NewFacadeService(store, ticketService)

	return &Services{
		Events:     eventService,
		Tickets:    ticketService,
		Validators: validatorService,
		Accounts:   accountService,
		Admin:      adminService,
		Facade:     facadeService,
	}
}

// engineCapability resolves the engine's own privileged identity from the
// ledger state. Workflows execute storage mutations as this principal after
// their own role checks pass.
func engineCapability(ctx context.Context, store Store, q database.Executor) (auth.Capability, *models.LedgerState, error) {
	state, err := store.GetState(ctx, q)
	if err != nil {
		return auth.Capability{}, nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	if state == nil {
		return auth.Capability{}, nil, fmt.Errorf("ledger state not bootstrapped")
	}
	return auth.CapabilityFor(state.AdminAccount), state, nil
}

// platformFee is the non-refundable 2% cut taken at purchase, rounded down.
func platformFee(price int64) int64 {
	return price * 2 / 100
}

func defaultClock() time.Time {
	return time.Now().UTC()
}
