package integration

import (
	"net/http"
	"testing"
)

// TestAPI_HealthCheck tests the API health endpoint
func TestAPI_HealthCheck(t *testing.T) {
	client := NewTestClient(APIBaseURL)

	LogTestStep(t, "Testing API health check")
	client.HealthCheck(t)
	LogTestResult(t, "API is healthy and responding")
}

// TestAPI_SignupAndTopUp registers a fresh account and funds it
func TestAPI_SignupAndTopUp(t *testing.T) {
	LogTestStep(t, "Registering a fresh account")
	client := SignupPersona(t, "buyer")
	LogTestResult(t, "Registered account %d", client.AccountID)

	if got := client.Balance(t); got != 0 {
		t.Fatalf("Fresh account has balance %d, expected 0", got)
	}

	client.TopUp(t, 50_000)
	if got := client.Balance(t); got != 50_000 {
		t.Fatalf("Balance after top-up is %d, expected 50000", got)
	}
	LogTestResult(t, "Account funded")
}

// TestAPI_TicketLifecycle runs the full sale flow: create event, purchase,
// QR, transfer, refund, second sale, withdraw
func TestAPI_TicketLifecycle(t *testing.T) {
	organizer := SignupPersona(t, "organizer")
	buyer := SignupPersona(t, "buyer")
	friend := SignupPersona(t, "friend")
	buyer.TopUp(t, 100_000)

	LogTestStep(t, "Creating event")
	eventID := organizer.CreateEvent(t, StandardEvent("Integration Concert"))
	AssertEventExists(t, organizer.ListEvents(t), eventID)
	LogTestResult(t, "Created event %d", eventID)

	LogTestStep(t, "Purchasing a ticket")
	ticketID := buyer.PurchaseTicket(t, eventID)
	AssertTicketOwned(t, buyer.ListTickets(t), ticketID)
	if got := buyer.Balance(t); got != 95_000 {
		t.Fatalf("Buyer balance after purchase is %d, expected 95000", got)
	}
	LogTestResult(t, "Purchased ticket %d", ticketID)

	// Escrow holds the price minus the 2% platform fee.
	balance := organizer.EventBalance(t, eventID)
	if balance.LockedBalance != 4_900 {
		t.Fatalf("Locked balance is %d, expected 4900", balance.LockedBalance)
	}

	LogTestStep(t, "Fetching ticket QR code")
	png := buyer.TicketQR(t, ticketID)
	if len(png) == 0 {
		t.Fatal("QR endpoint returned an empty body")
	}

	LogTestStep(t, "Transferring the ticket to a friend and back")
	buyer.TransferTicket(t, ticketID, friend.AccountID, http.StatusOK)
	AssertTicketOwned(t, friend.ListTickets(t), ticketID)

	owner := buyer.TokenOwner(t, ticketID)
	if owner == nil || *owner != friend.AccountID {
		t.Fatalf("Token owner is %v, expected %d", owner, friend.AccountID)
	}

	friend.TransferTicket(t, ticketID, buyer.AccountID, http.StatusOK)
	LogTestResult(t, "Ticket went to the friend and came back")

	LogTestStep(t, "Validating before the event starts must fail")
	validator := SignupPersona(t, "validator")
	organizer.AddValidator(t, eventID, validator.AccountID)
	validator.ValidateTicket(t, ticketID, http.StatusConflict)

	LogTestStep(t, "Refunding the ticket")
	buyer.RefundTicket(t, ticketID, http.StatusOK)
	if got := buyer.Balance(t); got != 100_000 {
		t.Fatalf("Buyer balance after refund is %d, expected full 100000", got)
	}
	balance = organizer.EventBalance(t, eventID)
	if balance.LockedBalance != 0 {
		t.Fatalf("Locked balance after refund is %d, expected 0", balance.LockedBalance)
	}
	LogTestResult(t, "Refund returned the full price")

	LogTestStep(t, "Selling again and withdrawing revenue")
	buyer.PurchaseTicket(t, eventID)
	amount := organizer.WithdrawRevenue(t, eventID)
	if amount != 4_900 {
		t.Fatalf("Withdrawn %d, expected 4900", amount)
	}
	if got := organizer.Balance(t); got != 4_900 {
		t.Fatalf("Organizer balance is %d, expected 4900", got)
	}
	LogTestResult(t, "Organizer withdrew %d", amount)
}

// TestAPI_TokenFacade checks the public token read surface
func TestAPI_TokenFacade(t *testing.T) {
	organizer := SignupPersona(t, "organizer")
	buyer := SignupPersona(t, "buyer")
	buyer.TopUp(t, 10_000)

	eventID := organizer.CreateEvent(t, StandardEvent("Facade Show"))
	ticketID := buyer.PurchaseTicket(t, eventID)

	anon := NewTestClient(APIBaseURL)

	last := anon.LastTokenID(t)
	if last < ticketID {
		t.Fatalf("Last token id %d is below the freshly minted %d", last, ticketID)
	}

	owner := anon.TokenOwner(t, ticketID)
	if owner == nil || *owner != buyer.AccountID {
		t.Fatalf("Token owner is %v, expected %d", owner, buyer.AccountID)
	}

	if missing := anon.TokenOwner(t, last+1_000_000); missing != nil {
		t.Fatalf("Expected nil owner for an absent token, got %d", *missing)
	}
}

// TestAPI_AuthRequired verifies the protected surface rejects anonymous calls
func TestAPI_AuthRequired(t *testing.T) {
	anon := NewTestClient(APIBaseURL)

	resp := anon.makeRequest(t, "GET", "/api/accounts/balance", nil)
	defer resp.Body.Close()
	anon.expectStatus(t, resp, http.StatusUnauthorized)

	resp = anon.makeRequest(t, "POST", "/api/tickets", map[string]int64{"event_id": 1})
	defer resp.Body.Close()
	anon.expectStatus(t, resp, http.StatusUnauthorized)
}
