package service

import (
	"context"
	"math"
	"sort"
	"time"

	"gatepass/internal/auth"
	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

// fakeStore is an in-memory stand-in for the storage engine. It keeps the
// same guard semantics and index relations as the SQL implementation, and
// WithinTx snapshots the whole state so a failing workflow rolls back every
// mutation exactly like a real transaction.
type fakeStore struct {
	state      *models.LedgerState
	accounts   map[int64]*models.Account
	events     map[int64]*models.Event
	tickets    map[int64]*models.Ticket
	validators map[int64]map[int64]*models.Validator
	balances   map[int64]*models.EventBalance

	ownerTickets    map[int64]map[int64]bool
	eventTickets    map[int64]map[int64]bool
	organizerEvents map[int64][]int64

	nextAccountID int64
}

const (
	custodyID  = int64(1)
	platformID = int64(2)
	adminID    = int64(3)
)

func newFakeStore() *fakeStore {
	f := &fakeStore{
		accounts:        make(map[int64]*models.Account),
		events:          make(map[int64]*models.Event),
		tickets:         make(map[int64]*models.Ticket),
		validators:      make(map[int64]map[int64]*models.Validator),
		balances:        make(map[int64]*models.EventBalance),
		ownerTickets:    make(map[int64]map[int64]bool),
		eventTickets:    make(map[int64]map[int64]bool),
		organizerEvents: make(map[int64][]int64),
		nextAccountID:   10,
	}

	f.accounts[custodyID] = &models.Account{AccountID: custodyID, Kind: models.AccountKindSystem, IsActive: true}
	f.accounts[platformID] = &models.Account{AccountID: platformID, Kind: models.AccountKindSystem, IsActive: true}
	f.accounts[adminID] = &models.Account{AccountID: adminID, Kind: models.AccountKindUser, IsActive: true}
	f.state = &models.LedgerState{
		NextEventID:     1,
		NextTicketID:    1,
		AdminAccount:    adminID,
		CustodyAccount:  custodyID,
		PlatformAccount: platformID,
	}

	return f
}

// addUser registers an active user account with the given balance.
func (f *fakeStore) addUser(balance int64) int64 {
	id := f.nextAccountID
	f.nextAccountID++
	f.accounts[id] = &models.Account{
		AccountID: id,
		Kind:      models.AccountKindUser,
		Balance:   balance,
		IsActive:  true,
	}
	return id
}

func (f *fakeStore) guard(cap auth.Capability) error {
	if cap.Principal != f.state.AdminAccount {
		return apperrors.ErrNotAuthorized
	}
	if f.state.Paused {
		return apperrors.ErrPaused
	}
	return nil
}

func (f *fakeStore) snapshot() *fakeStore {
	c := &fakeStore{
		accounts:        make(map[int64]*models.Account, len(f.accounts)),
		events:          make(map[int64]*models.Event, len(f.events)),
		tickets:         make(map[int64]*models.Ticket, len(f.tickets)),
		validators:      make(map[int64]map[int64]*models.Validator, len(f.validators)),
		balances:        make(map[int64]*models.EventBalance, len(f.balances)),
		ownerTickets:    make(map[int64]map[int64]bool, len(f.ownerTickets)),
		eventTickets:    make(map[int64]map[int64]bool, len(f.eventTickets)),
		organizerEvents: make(map[int64][]int64, len(f.organizerEvents)),
		nextAccountID:   f.nextAccountID,
	}

	state := *f.state
	c.state = &state

	for id, a := range f.accounts {
		v := *a
		c.accounts[id] = &v
	}
	for id, e := range f.events {
		v := *e
		c.events[id] = &v
	}
	for id, t := range f.tickets {
		v := *t
		c.tickets[id] = &v
	}
	for eventID, m := range f.validators {
		inner := make(map[int64]*models.Validator, len(m))
		for id, val := range m {
			v := *val
			inner[id] = &v
		}
		c.validators[eventID] = inner
	}
	for id, b := range f.balances {
		v := *b
		c.balances[id] = &v
	}
	for id, m := range f.ownerTickets {
		inner := make(map[int64]bool, len(m))
		for k, v := range m {
			inner[k] = v
		}
		c.ownerTickets[id] = inner
	}
	for id, m := range f.eventTickets {
		inner := make(map[int64]bool, len(m))
		for k, v := range m {
			inner[k] = v
		}
		c.eventTickets[id] = inner
	}
	for id, s := range f.organizerEvents {
		c.organizerEvents[id] = append([]int64(nil), s...)
	}

	return c
}

func (f *fakeStore) restore(s *fakeStore) {
	f.state = s.state
	f.accounts = s.accounts
	f.events = s.events
	f.tickets = s.tickets
	f.validators = s.validators
	f.balances = s.balances
	f.ownerTickets = s.ownerTickets
	f.eventTickets = s.eventTickets
	f.organizerEvents = s.organizerEvents
	f.nextAccountID = s.nextAccountID
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(q database.Executor) error) error {
	before := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func (f *fakeStore) Read() database.Executor {
	return nil
}

// Events

func (f *fakeStore) InsertEvent(ctx context.Context, q database.Executor, cap auth.Capability, event *models.Event, now time.Time) error {
	if err := f.guard(cap); err != nil {
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
	if event.TicketPrice < 0 {
		return apperrors.ErrInvalidPrice
	}

	event.CreatedAt = now
	event.SoldCount = 0
	event.IsActive = true

	stored := *event
	f.events[event.ID] = &stored
	f.organizerEvents[event.Organizer] = append(f.organizerEvents[event.Organizer], event.ID)
	f.balances[event.ID] = &models.EventBalance{EventID: event.ID}
	return nil
}

func (f *fakeStore) GetEvent(ctx context.Context, q database.Executor, id int64) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	v := *e
	return &v, nil
}

func (f *fakeStore) UpdateEventStatus(ctx context.Context, q database.Executor, cap auth.Capability, id int64, active bool) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	e, ok := f.events[id]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	e.IsActive = active
	return nil
}

func (f *fakeStore) AdjustEventSoldCount(ctx context.Context, q database.Executor, cap auth.Capability, id, delta int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	e, ok := f.events[id]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	next := e.SoldCount + delta
	if next < 0 || next > e.TotalSupply {
		return apperrors.ErrExceedsSupply
	}
	e.SoldCount = next
	return nil
}

func (f *fakeStore) ListEvents(ctx context.Context, q database.Executor, page, pageSize int) ([]models.Event, error) {
	ids := make([]int64, 0, len(f.events))
	for id := range f.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var events []models.Event
	for _, id := range ids {
		events = append(events, *f.events[id])
	}

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		if offset >= len(events) {
			return nil, nil
		}
		end := offset + pageSize
		if end > len(events) {
			end = len(events)
		}
		events = events[offset:end]
	}
	return events, nil
}

func (f *fakeStore) ListEventsByOrganizer(ctx context.Context, q database.Executor, organizer int64) ([]models.Event, error) {
	var events []models.Event
	for _, id := range f.organizerEvents[organizer] {
		if e, ok := f.events[id]; ok {
			events = append(events, *e)
		}
	}
	return events, nil
}

// Tickets

func (f *fakeStore) InsertTicket(ctx context.Context, q database.Executor, cap auth.Capability, ticket *models.Ticket) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	if _, ok := f.events[ticket.EventID]; !ok {
		return apperrors.ErrEventNotFound
	}

	ticket.IsUsed = false
	stored := *ticket
	f.tickets[ticket.ID] = &stored

	if f.ownerTickets[ticket.Owner] == nil {
		f.ownerTickets[ticket.Owner] = make(map[int64]bool)
	}
	f.ownerTickets[ticket.Owner][ticket.ID] = true

	if f.eventTickets[ticket.EventID] == nil {
		f.eventTickets[ticket.EventID] = make(map[int64]bool)
	}
	f.eventTickets[ticket.EventID][ticket.ID] = true
	return nil
}

func (f *fakeStore) GetTicket(ctx context.Context, q database.Executor, id int64) (*models.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, nil
	}
	v := *t
	return &v, nil
}

func (f *fakeStore) UpdateTicketOwner(ctx context.Context, q database.Executor, cap auth.Capability, id, newOwner int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	t, ok := f.tickets[id]
	if !ok {
		return apperrors.ErrTicketNotFound
	}

	delete(f.ownerTickets[t.Owner], id)
	if f.ownerTickets[newOwner] == nil {
		f.ownerTickets[newOwner] = make(map[int64]bool)
	}
	f.ownerTickets[newOwner][id] = true
	t.Owner = newOwner
	return nil
}

func (f *fakeStore) MarkTicketUsed(ctx context.Context, q database.Executor, cap auth.Capability, id int64, usedAt time.Time) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	t, ok := f.tickets[id]
	if !ok {
		return apperrors.ErrTicketNotFound
	}
	if t.IsUsed {
		return apperrors.ErrAlreadyUsed
	}
	t.IsUsed = true
	used := usedAt
	t.UsedTime = &used
	return nil
}

func (f *fakeStore) DeleteTicket(ctx context.Context, q database.Executor, cap auth.Capability, id int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	t, ok := f.tickets[id]
	if !ok {
		return apperrors.ErrTicketNotFound
	}
	delete(f.ownerTickets[t.Owner], id)
	delete(f.eventTickets[t.EventID], id)
	delete(f.tickets, id)
	return nil
}

func (f *fakeStore) BatchMarkTicketsUsed(ctx context.Context, q database.Executor, cap auth.Capability, ids []int64, usedAt time.Time) ([]bool, error) {
	if err := f.guard(cap); err != nil {
		return nil, err
	}
	results := make([]bool, len(ids))
	for i, id := range ids {
		t, ok := f.tickets[id]
		if !ok || t.IsUsed {
			continue
		}
		t.IsUsed = true
		used := usedAt
		t.UsedTime = &used
		results[i] = true
	}
	return results, nil
}

func (f *fakeStore) ListTicketsByOwner(ctx context.Context, q database.Executor, owner int64) ([]models.Ticket, error) {
	ids := make([]int64, 0, len(f.ownerTickets[owner]))
	for id := range f.ownerTickets[owner] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var tickets []models.Ticket
	for _, id := range ids {
		if t, ok := f.tickets[id]; ok {
			tickets = append(tickets, *t)
		}
	}
	return tickets, nil
}

// Validators

func (f *fakeStore) GetValidator(ctx context.Context, q database.Executor, eventID, validator int64) (*models.Validator, error) {
	v, ok := f.validators[eventID][validator]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (f *fakeStore) UpsertValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64, addedAt time.Time) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	if _, ok := f.events[eventID]; !ok {
		return apperrors.ErrEventNotFound
	}
	if f.validators[eventID] == nil {
		f.validators[eventID] = make(map[int64]*models.Validator)
	}
	if v, ok := f.validators[eventID][validator]; ok {
		v.IsActive = true
		v.AddedAt = addedAt
		return nil
	}
	f.validators[eventID][validator] = &models.Validator{
		EventID:   eventID,
		Validator: validator,
		IsActive:  true,
		AddedAt:   addedAt,
	}
	return nil
}

func (f *fakeStore) DeactivateValidator(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	v, ok := f.validators[eventID][validator]
	if !ok {
		return apperrors.ErrValidatorNotFound
	}
	v.IsActive = false
	return nil
}

func (f *fakeStore) AddValidatedCount(ctx context.Context, q database.Executor, cap auth.Capability, eventID, validator, delta int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	v, ok := f.validators[eventID][validator]
	if !ok {
		return apperrors.ErrValidatorNotFound
	}
	v.ValidatedCount += delta
	return nil
}

// Balances

func (f *fakeStore) GetEventBalance(ctx context.Context, q database.Executor, eventID int64) (*models.EventBalance, error) {
	b, ok := f.balances[eventID]
	if !ok {
		return nil, nil
	}
	v := *b
	return &v, nil
}

func (f *fakeStore) AddLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID, delta int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	b, ok := f.balances[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	b.LockedBalance += delta
	return nil
}

func (f *fakeStore) WithdrawLockedBalance(ctx context.Context, q database.Executor, cap auth.Capability, eventID int64) (int64, error) {
	if err := f.guard(cap); err != nil {
		return 0, err
	}
	b, ok := f.balances[eventID]
	if !ok {
		return 0, apperrors.ErrEventNotFound
	}
	amount := b.LockedBalance
	b.LockedBalance = 0
	b.TotalWithdrawn += amount
	return amount, nil
}

// Accounts

func (f *fakeStore) GetAccount(ctx context.Context, q database.Executor, id int64) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	v := *a
	return &v, nil
}

func (f *fakeStore) GetAccountByEmail(ctx context.Context, q database.Executor, email string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Email != nil && *a.Email == email {
			v := *a
			return &v, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateAccount(ctx context.Context, q database.Executor, cap auth.Capability, account *models.Account) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	account.AccountID = f.nextAccountID
	f.nextAccountID++
	stored := *account
	f.accounts[account.AccountID] = &stored
	return nil
}

func (f *fakeStore) CreditAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	a, ok := f.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	a.Balance += amount
	return nil
}

func (f *fakeStore) DebitAccount(ctx context.Context, q database.Executor, cap auth.Capability, id, amount int64) error {
	if err := f.guard(cap); err != nil {
		return err
	}
	a, ok := f.accounts[id]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	if a.Balance < amount {
		return apperrors.ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}

// State

func (f *fakeStore) GetState(ctx context.Context, q database.Executor) (*models.LedgerState, error) {
	v := *f.state
	return &v, nil
}

func (f *fakeStore) NextEventID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	if err := f.guard(cap); err != nil {
		return 0, err
	}
	if f.state.NextEventID == math.MaxInt64 {
		return 0, apperrors.ErrOverflow
	}
	id := f.state.NextEventID
	f.state.NextEventID++
	return id, nil
}

func (f *fakeStore) NextTicketID(ctx context.Context, q database.Executor, cap auth.Capability) (int64, error) {
	if err := f.guard(cap); err != nil {
		return 0, err
	}
	if f.state.NextTicketID == math.MaxInt64 {
		return 0, apperrors.ErrOverflow
	}
	id := f.state.NextTicketID
	f.state.NextTicketID++
	return id, nil
}

func (f *fakeStore) SetPaused(ctx context.Context, q database.Executor, cap auth.Capability, paused bool) error {
	if cap.Principal != f.state.AdminAccount {
		return apperrors.ErrNotAuthorized
	}
	f.state.Paused = paused
	return nil
}

func (f *fakeStore) SetAdmin(ctx context.Context, q database.Executor, cap auth.Capability, account int64) error {
	if cap.Principal != f.state.AdminAccount {
		return apperrors.ErrNotAuthorized
	}
	f.state.AdminAccount = account
	return nil
}

// recordingPublisher captures published records for assertions.
type recordingPublisher struct {
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	return nil
}
