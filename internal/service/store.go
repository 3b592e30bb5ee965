package service

import (
	"context"
	"time"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	"gatepass/internal/models"
)

// Store is the storage engine contract the orchestrator composes workflows
// from. Mutating primitives take a capability that the engine checks against
// its configured admin principal; every primitive takes an executor so a
// workflow can run all of its steps inside one transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(q database.Executor) error) error
	Read() database.Executor

	InsertEvent(ctx context.Context, q database.Executor, cap auth.Capability, event *models.Event, now time.Time) error
	GetEvent(ctx context.Context, q database.Executor, id int64) (*models.Event, error)
	UpdateEventStatus(ctx context.Context, q database.Executor, cap auth.Capability, id int64, active bool) error
	AdjustEventSoldCount(ctx context.Context, q database.Executor, cap auth.Capability, id, delta int64) error
	ListEvents(ctx context.Context, q database.Executor, page, pageSize int) ([]models.Event, error)
	ListEventsByOrganizer(ctx context.Context, q database.Executor, organizer int64) ([]models.Event, error)

	InsertTicket(ctx context.Context, q database.Executor, cap auth.Capability, ticket *models.Ticket) error
	GetTicket(ctx context.Context, q database.Executor, id int64) (*models.Ticket, error)
	UpdateTicketOwner(ctx context.Context, q database.Executor, cap auth.Capability, id, newOwner int64) error
	MarkTicketUsed(ctx context.Context, q database.Executor, cap auth.Capability, id int64, usedAt time.Time) error
	DeleteTicket(ctx context.Context, q database.Executor, cap auth.Capability, id int64) error
	BatchMarkTicketsUsed(ctx context.Context, q database.Executor, cap auth.Capability, ids []int64, usedAt time.Time) ([]bool, error)
	ListTicketsByOwner(ctx context.Context, q database.Executor, owner int64) ([]models.Ticket, error)

	GetValidator(ctx context.Context, q database.Executor, eventID, validator int64) (*models.Validator, error)
	UpsertValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64, addedAt time.Time) error
	DeactivateValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64) error
	AddValidatedCount(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator, delta int64) error

	GetEventBalance(ctx context.Context, q database.Executor, eventID int64) (*models.EventBalance, error)
	AddLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID, delta int64) error
	WithdrawLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID int64) (int64, error)

	GetAccount(ctx context.Context, q database.Executor, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, q database.Executor, email string) (*models.Account, error)
	CreateAccount(ctx context.Context, q database.Executor, cap auth.Capability, account *models.Account) error
	CreditAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error
	DebitAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error

	GetState(ctx context.Context, q database.Executor) (*models.LedgerState, error)
	NextEventID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error)
	NextTicketID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error)
	SetPaused(ctx context.Context, q database.Executor, cap auth.Capability, paused bool) error
	SetAdmin(ctx context.Context, q database.Executor, cap auth.Capability, account int64) error
}

// Publisher emits workflow records for off-chain observers. Records are
// documentation-only; the services never read them back.
type Publisher interface {
	Publish(subject string, data interface{}) error
}
