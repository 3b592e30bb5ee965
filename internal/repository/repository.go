package repository

import (
	"context"
	"time"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	"gatepass/internal/models"
)

// Store is the storage engine: it owns every persisted entity and index
// relation, and exposes the guarded CRUD primitives the orchestrator composes
// into workflows. The flat method set mirrors the engine's external contract;
// the per-entity repositories behind it are an implementation detail.
type Store struct {
	db         *database.DB
	Events     *EventRepository
	Tickets    *TicketRepository
	Validators *ValidatorRepository
	Balances   *BalanceRepository
	Accounts   *AccountRepository
	State      *StateRepository
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db:         db,
		Events:     NewEventRepository(db),
		Tickets:    NewTicketRepository(db),
		Validators: NewValidatorRepository(db),
		Balances:   NewBalanceRepository(db),
		Accounts:   NewAccountRepository(db),
		State:      NewStateRepository(db),
	}
}

// WithinTx runs fn in one transaction; primitives called with the supplied
// executor commit or roll back together.
func (s *Store) WithinTx(ctx context.Context, fn func(q database.Executor) error) error {
	return s.db.WithinTx(ctx, fn)
}

// Read returns an executor for standalone reads outside any transaction.
func (s *Store) Read() database.Executor {
	return s.db
}

func (s *Store) Bootstrap(ctx context.Context, cfg BootstrapConfig) error {
	return s.State.Bootstrap(ctx, cfg)
}

// Events

func (s *Store) InsertEvent(ctx context.Context, q database.Executor, cap auth.Capability, event *models.Event, now time.Time) error {
	return s.Events.Insert(ctx, q, cap, event, now)
}

func (s *Store) GetEvent(ctx context.Context, q database.Executor, id int64) (*models.Event, error) {
	return s.Events.GetByID(ctx, q, id)
}

func (s *Store) UpdateEventStatus(ctx context.Context, q database.Executor, cap auth.Capability, id int64, active bool) error {
	return s.Events.UpdateStatus(ctx, q, cap, id, active)
}

func (s *Store) AdjustEventSoldCount(ctx context.Context, q database.Executor, cap auth.Capability, id, delta int64) error {
	return s.Events.AdjustSoldCount(ctx, q, cap, id, delta)
}

func (s *Store) ListEvents(ctx context.Context, q database.Executor, page, pageSize int) ([]models.Event, error) {
	return s.Events.List(ctx, q, page, pageSize)
}

func (s *Store) ListEventsByOrganizer(ctx context.Context, q database.Executor, organizer int64) ([]models.Event, error) {
	return s.Events.ListByOrganizer(ctx, q, organizer)
}

// Tickets

func (s *Store) InsertTicket(ctx context.Context, q database.Executor, cap auth.Capability, ticket *models.Ticket) error {
	return s.Tickets.Insert(ctx, q, cap, ticket)
}

func (s *Store) GetTicket(ctx context.Context, q database.Executor, id int64) (*models.Ticket, error) {
	return s.Tickets.GetByID(ctx, q, id)
}

func (s *Store) UpdateTicketOwner(ctx context.Context, q database.Executor, cap auth.Capability, id, newOwner int64) error {
	return s.Tickets.UpdateOwner(ctx, q, cap, id, newOwner)
}

func (s *Store) MarkTicketUsed(ctx context.Context, q database.Executor, cap auth.Capability, id int64, usedAt time.Time) error {
	return s.Tickets.MarkUsed(ctx, q, cap, id, usedAt)
}

func (s *Store) DeleteTicket(ctx context.Context, q database.Executor, cap auth.Capability, id int64) error {
	return s.Tickets.Delete(ctx, q, cap, id)
}

func (s *Store) BatchMarkTicketsUsed(ctx context.Context, q database.Executor, cap auth.Capability, ids []int64, usedAt time.Time) ([]bool, error) {
	return s.Tickets.BatchMarkUsed(ctx, q, cap, ids, usedAt)
}

func (s *Store) ListTicketsByOwner(ctx context.Context, q database.Executor, owner int64) ([]models.Ticket, error) {
	return s.Tickets.ListByOwner(ctx, q, owner)
}

// Validators

func (s *Store) GetValidator(ctx context.Context, q database.Executor, eventID, validator int64) (*models.Validator, error) {
	return s.Validators.Get(ctx, q, eventID, validator)
}

func (s *Store) UpsertValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64, addedAt time.Time) error {
	return s.Validators.Upsert(ctx, q, cap, eventID, validator, addedAt)
}

func (s *Store) DeactivateValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64) error {
	return s.Validators.Deactivate(ctx, q, cap, eventID, validator)
}

func (s *Store) AddValidatedCount(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator, delta int64) error {
	return s.Validators.AddValidatedCount(ctx, q, cap, eventID, validator, delta)
}

// Balances

func (s *Store) GetEventBalance(ctx context.Context, q database.Executor, eventID int64) (*models.EventBalance, error) {
	return s.Balances.Get(ctx, q, eventID)
}

func (s *Store) AddLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID, delta int64) error {
	return s.Balances.AddLocked(ctx, q, cap, eventID, delta)
}

func (s *Store) WithdrawLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID int64) (int64, error) {
	return s.Balances.WithdrawLocked(ctx, q, cap, eventID)
}

// Accounts

func (s *Store) GetAccount(ctx context.Context, q database.Executor, id int64) (*models.Account, error) {
	return s.Accounts.GetByID(ctx, q, id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, q database.Executor, email string) (*models.Account, error) {
	return s.Accounts.GetByEmail(ctx, q, email)
}

func (s *Store) CreateAccount(ctx context.Context, q database.Executor, cap auth.Capability, account *models.Account) error {
	return s.Accounts.Create(ctx, q, cap, account)
}

func (s *Store) CreditAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error {
	return s.Accounts.Credit(ctx, q, cap, id, amount)
}

func (s *Store) DebitAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error {
	return s.Accounts.Debit(ctx, q, cap, id, amount)
}

// State

func (s *Store) GetState(ctx context.Context, q database.Executor) (*models.LedgerState, error) {
	return s.State.Get(ctx, q)
}

func (s *Store) NextEventID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	return s.State.NextEventID(ctx, q, cap)
}

func (s *Store) NextTicketID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	return s.State.NextTicketID(ctx, q, cap)
}

func (s *Store) SetPaused(ctx context.Context, q database.Executor, cap auth.Capability, paused bool) error {
	return s.State.SetPaused(ctx, q, cap, paused)
}

func (s *Store) SetAdmin(ctx context.Context, q database.Executor, cap auth.Capability, account int64) error {
	return s.State.SetAdmin(ctx, q, cap, account)
}
