package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/database"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

func TestPurchase_MovesFundsIntoEscrow(t *testing.T) {
	store, pub, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)

	ticketID := mustPurchase(t, svcs, buyer, eventID)
	assert.Equal(t, int64(1), ticketID)

	// Price 5000 splits into 4900 locked for the organizer and a 100 fee.
	assert.Equal(t, int64(5_000), store.accounts[buyer].Balance)
	assert.Equal(t, int64(4_900), store.accounts[custodyID].Balance)
	assert.Equal(t, int64(100), store.accounts[platformID].Balance)
	assert.Equal(t, int64(4_900), store.balances[eventID].LockedBalance)
	assert.Equal(t, int64(1), store.events[eventID].SoldCount)

	// Ticket is reachable through both index relations.
	assert.True(t, store.ownerTickets[buyer][ticketID])
	assert.True(t, store.eventTickets[eventID][ticketID])

	assert.Contains(t, pub.subjects, models.RecordTicketMinted)
}

func TestPurchase_LockedBalanceAccumulates(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(20_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)

	mustPurchase(t, svcs, buyer, eventID)
	mustPurchase(t, svcs, buyer, eventID)
	mustPurchase(t, svcs, buyer, eventID)

	// Three sales: locked balance is exactly N * (price - fee) and custody
	// holds precisely that amount.
	assert.Equal(t, int64(3*4_900), store.balances[eventID].LockedBalance)
	assert.Equal(t, store.balances[eventID].LockedBalance, store.accounts[custodyID].Balance)
}

func TestPurchase_SoldOut(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(100_000)
	eventID := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.TotalSupply = 2 })

	mustPurchase(t, svcs, buyer, eventID)
	mustPurchase(t, svcs, buyer, eventID)

	_, err := svcs.Tickets.Purchase(context.Background(), buyer, eventID)
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)
	assert.Equal(t, int64(2), store.events[eventID].SoldCount)
}

func TestPurchase_InactiveEvent(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	require.NoError(t, svcs.Events.Cancel(context.Background(), organizer, eventID))

	_, err := svcs.Tickets.Purchase(context.Background(), buyer, eventID)
	assert.ErrorIs(t, err, apperrors.ErrEventInactive)
}

func TestPurchase_InsufficientFundsRollsBackEverything(t *testing.T) {
	store, pub, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(100)
	eventID := mustCreateEvent(t, svcs, organizer, nil)

	_, err := svcs.Tickets.Purchase(context.Background(), buyer, eventID)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	// No partial effects: no ticket, no counter advance, no balance movement.
	assert.Empty(t, store.tickets)
	assert.Equal(t, int64(1), store.state.NextTicketID)
	assert.Equal(t, int64(100), store.accounts[buyer].Balance)
	assert.Equal(t, int64(0), store.accounts[custodyID].Balance)
	assert.Equal(t, int64(0), store.events[eventID].SoldCount)
	assert.NotContains(t, pub.subjects, models.RecordTicketMinted)
}

func TestPurchase_UnknownEvent(t *testing.T) {
	store, _, svcs := newTestStack()
	buyer := store.addUser(10_000)

	_, err := svcs.Tickets.Purchase(context.Background(), buyer, int64(7))
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestPurchase_FreeEvent(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.TicketPrice = 0 })

	mustPurchase(t, svcs, buyer, eventID)

	assert.Equal(t, int64(0), store.accounts[custodyID].Balance)
	assert.Equal(t, int64(0), store.accounts[platformID].Balance)
	assert.Equal(t, int64(0), store.balances[eventID].LockedBalance)
}

// inWindow moves the ticket service clock inside the event's admission window.
func inWindow(svcs *Services) {
	svcs.Tickets.now = func() time.Time { return testBase.Add(25 * time.Hour) }
}

func TestValidate_ChecksTicketIn(t *testing.T) {
	store, pub, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)

	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	inWindow(svcs)
	require.NoError(t, svcs.Tickets.Validate(context.Background(), checker, ticketID))

	ticket := store.tickets[ticketID]
	assert.True(t, ticket.IsUsed)
	require.NotNil(t, ticket.UsedTime)

	validator := store.validators[eventID][checker]
	assert.Equal(t, int64(1), validator.ValidatedCount)
	assert.Contains(t, pub.subjects, models.RecordTicketValidated)
}

func TestValidate_RefusesDoubleEntry(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)
	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	inWindow(svcs)
	require.NoError(t, svcs.Tickets.Validate(context.Background(), checker, ticketID))

	// Second attempt fails and the count does not move.
	err := svcs.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyUsed)
	assert.Equal(t, int64(1), store.validators[eventID][checker].ValidatedCount)
}

func TestValidate_RequiresActiveValidator(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)

	inWindow(svcs)
	err := svcs.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrNotValidator)

	// A removed validator is refused the same way.
	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))
	require.NoError(t, svcs.Validators.Remove(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	err = svcs.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrNotValidator)
	assert.False(t, store.tickets[ticketID].IsUsed)
}

func TestValidate_TimeWindow(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)
	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	// Clock still before start.
	err := svcs.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotStarted)

	svcs.Tickets.now = func() time.Time { return testBase.Add(29 * time.Hour) }
	err = svcs.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrEventEnded)

	assert.False(t, store.tickets[ticketID].IsUsed)
}

func TestBatchValidate_OrderedResults(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(100_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.TotalSupply = 10 })
	otherEvent := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.TotalSupply = 10 })

	t1 := mustPurchase(t, svcs, buyer, eventID)
	t2 := mustPurchase(t, svcs, buyer, eventID)
	foreign := mustPurchase(t, svcs, buyer, otherEvent)

	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	inWindow(svcs)
	require.NoError(t, svcs.Tickets.Validate(context.Background(), checker, t2))

	resp, err := svcs.Tickets.BatchValidate(context.Background(), checker, &models.BatchValidateRequest{
		EventID:   eventID,
		TicketIDs: []int64{t1, t2, foreign, 999},
	})
	require.NoError(t, err)

	// One success (t1); t2 already used, foreign belongs to another event,
	// 999 does not exist. Results keep request order.
	assert.Equal(t, []bool{true, false, false, false}, resp.Results)
	assert.True(t, store.tickets[t1].IsUsed)
	assert.False(t, store.tickets[foreign].IsUsed)

	// Count grew only by the single fresh check-in.
	assert.Equal(t, int64(2), store.validators[eventID][checker].ValidatedCount)
}

func TestBatchValidate_RequiresRoleAndWindow(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)

	inWindow(svcs)
	_, err := svcs.Tickets.BatchValidate(context.Background(), checker, &models.BatchValidateRequest{
		EventID:   eventID,
		TicketIDs: []int64{ticketID},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotValidator)

	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	svcs.Tickets.now = func() time.Time { return testBase }
	_, err = svcs.Tickets.BatchValidate(context.Background(), checker, &models.BatchValidateRequest{
		EventID:   eventID,
		TicketIDs: []int64{ticketID},
	})
	assert.ErrorIs(t, err, apperrors.ErrEventNotStarted)
}

func TestTransfer_MovesOwnership(t *testing.T) {
	store, pub, svcs := newTestStack()
	organizer := store.addUser(0)
	alice := store.addUser(10_000)
	bob := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, alice, eventID)

	err := svcs.Tickets.Transfer(context.Background(), alice, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: alice, Recipient: bob,
	})
	require.NoError(t, err)

	assert.Equal(t, bob, store.tickets[ticketID].Owner)
	assert.False(t, store.ownerTickets[alice][ticketID])
	assert.True(t, store.ownerTickets[bob][ticketID])
	assert.Contains(t, pub.subjects, models.RecordTicketTransfer)
}

func TestTransfer_Rules(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	alice := store.addUser(20_000)
	bob := store.addUser(0)
	carol := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	lockedEvent := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.Transferable = false })
	ticketID := mustPurchase(t, svcs, alice, eventID)
	lockedTicket := mustPurchase(t, svcs, alice, lockedEvent)

	ctx := context.Background()

	// Recipient must be an active user account.
	err := svcs.Tickets.Transfer(ctx, alice, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: alice, Recipient: custodyID,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecipient)

	err = svcs.Tickets.Transfer(ctx, alice, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: alice, Recipient: 999,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecipient)

	// Sender must own the ticket.
	err = svcs.Tickets.Transfer(ctx, bob, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: bob, Recipient: carol,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	// Caller must be the sender.
	err = svcs.Tickets.Transfer(ctx, bob, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: alice, Recipient: carol,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	// Event must allow transfers.
	err = svcs.Tickets.Transfer(ctx, alice, &models.TransferTicketRequest{
		TicketID: lockedTicket, Sender: alice, Recipient: bob,
	})
	assert.ErrorIs(t, err, apperrors.ErrTransferNotAllowed)

	// Used tickets stay put.
	checker := store.addUser(0)
	require.NoError(t, svcs.Validators.Add(ctx, organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))
	inWindow(svcs)
	require.NoError(t, svcs.Tickets.Validate(ctx, checker, ticketID))

	err = svcs.Tickets.Transfer(ctx, alice, &models.TransferTicketRequest{
		TicketID: ticketID, Sender: alice, Recipient: bob,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyUsed)
	assert.Equal(t, alice, store.tickets[ticketID].Owner)
}

func TestRefund_RestoresFullPrice(t *testing.T) {
	store, pub, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)

	require.NoError(t, svcs.Tickets.Refund(context.Background(), buyer, ticketID))

	// Full price back: organizer portion from custody, fee clawed back from
	// the platform account.
	assert.Equal(t, int64(10_000), store.accounts[buyer].Balance)
	assert.Equal(t, int64(0), store.accounts[custodyID].Balance)
	assert.Equal(t, int64(0), store.accounts[platformID].Balance)
	assert.Equal(t, int64(0), store.balances[eventID].LockedBalance)

	// The ticket is gone from the primary map and both indexes, and the
	// sold count dropped.
	assert.NotContains(t, store.tickets, ticketID)
	assert.False(t, store.ownerTickets[buyer][ticketID])
	assert.False(t, store.eventTickets[eventID][ticketID])
	assert.Equal(t, int64(0), store.events[eventID].SoldCount)

	assert.Contains(t, pub.subjects, models.RecordTicketRefunded)
}

func TestRefund_CustodyCoversRemainingLockedBalances(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(20_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	first := mustPurchase(t, svcs, buyer, eventID)
	mustPurchase(t, svcs, buyer, eventID)

	require.NoError(t, svcs.Tickets.Refund(context.Background(), buyer, first))

	// One ticket remains: custody holds exactly its locked portion.
	assert.Equal(t, int64(4_900), store.balances[eventID].LockedBalance)
	assert.Equal(t, store.balances[eventID].LockedBalance, store.accounts[custodyID].Balance)
	assert.Equal(t, int64(100), store.accounts[platformID].Balance)
}

func TestRefund_Rules(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(30_000)
	other := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	noRefund := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.RefundAllowed = false })
	ticketID := mustPurchase(t, svcs, buyer, eventID)
	lockedTicket := mustPurchase(t, svcs, buyer, noRefund)

	ctx := context.Background()

	err := svcs.Tickets.Refund(ctx, other, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	err = svcs.Tickets.Refund(ctx, buyer, lockedTicket)
	assert.ErrorIs(t, err, apperrors.ErrRefundNotAllowed)

	err = svcs.Tickets.Refund(ctx, buyer, int64(999))
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	// Once the event has started refunds close.
	svcs.Tickets.now = func() time.Time { return testBase.Add(25 * time.Hour) }
	err = svcs.Tickets.Refund(ctx, buyer, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrEventStarted)
	assert.Contains(t, store.tickets, ticketID)
}

func TestListTicketsByOwner(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(20_000)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	first := mustPurchase(t, svcs, buyer, eventID)
	second := mustPurchase(t, svcs, buyer, eventID)

	items, err := svcs.Tickets.ListByOwner(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0].ID)
	assert.Equal(t, second, items[1].ID)
}

// staleEventStore serves event reads one sale behind the committed state,
// the view a buyer holds after losing a read-committed race for the last
// ticket.
type staleEventStore struct {
	*fakeStore
}

func (s *staleEventStore) GetEvent(ctx context.Context, q database.Executor, id int64) (*models.Event, error) {
	event, err := s.fakeStore.GetEvent(ctx, q, id)
	if err != nil || event == nil {
		return event, err
	}
	if event.SoldCount > 0 {
		event.SoldCount--
	}
	return event, nil
}

func TestPurchase_LastTicketRaceCannotOversell(t *testing.T) {
	store, _, _ := newTestStack()
	organizer := store.addUser(0)
	first := store.addUser(10_000)
	second := store.addUser(10_000)

	svcs := NewServices(&staleEventStore{store}, &recordingPublisher{}, nil, nil)
	svcs.Events.now = func() time.Time { return testBase }
	svcs.Tickets.now = func() time.Time { return testBase }

	eventID := mustCreateEvent(t, svcs, organizer, func(r *models.CreateEventRequest) { r.TotalSupply = 1 })
	mustPurchase(t, svcs, first, eventID)

	// The second buyer's check passes on the stale count, but the engine's
	// bounded adjustment refuses a second sale of the only ticket.
	_, err := svcs.Tickets.Purchase(context.Background(), second, eventID)
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)

	assert.Equal(t, int64(1), store.events[eventID].SoldCount)
	assert.Equal(t, int64(10_000), store.accounts[second].Balance)
	assert.Empty(t, store.ownerTickets[second])
	assert.Len(t, store.tickets, 1)
}

// staleTicketStore reports tickets as unused even after a check-in has
// committed, the view the second of two racing validators holds.
type staleTicketStore struct {
	*fakeStore
}

func (s *staleTicketStore) GetTicket(ctx context.Context, q database.Executor, id int64) (*models.Ticket, error) {
	ticket, err := s.fakeStore.GetTicket(ctx, q, id)
	if err != nil || ticket == nil {
		return ticket, err
	}
	ticket.IsUsed = false
	ticket.UsedTime = nil
	return ticket, nil
}

func TestValidate_CheckInRaceCannotDoubleEnter(t *testing.T) {
	store, _, svcs := newTestStack()
	organizer := store.addUser(0)
	buyer := store.addUser(10_000)
	checker := store.addUser(0)
	eventID := mustCreateEvent(t, svcs, organizer, nil)
	ticketID := mustPurchase(t, svcs, buyer, eventID)
	require.NoError(t, svcs.Validators.Add(context.Background(), organizer,
		&models.ValidatorRequest{EventID: eventID, Validator: checker}))

	inWindow(svcs)
	require.NoError(t, svcs.Tickets.Validate(context.Background(), checker, ticketID))
	firstUsed := *store.tickets[ticketID].UsedTime

	raced := NewServices(&staleTicketStore{store}, &recordingPublisher{}, nil, nil)
	raced.Tickets.now = func() time.Time { return testBase.Add(26 * time.Hour) }

	err := raced.Tickets.Validate(context.Background(), checker, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyUsed)

	assert.True(t, store.tickets[ticketID].IsUsed)
	assert.Equal(t, firstUsed, *store.tickets[ticketID].UsedTime)
	assert.Equal(t, int64(1), store.validators[eventID][checker].ValidatedCount)
}
