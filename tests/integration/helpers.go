package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/models"
)

const (
	APIBaseURL = "http://localhost:8081"

	TestPassword = "integration-pass"
)

// UniqueEmail returns an email address no earlier run has used.
func UniqueEmail(role string) string {
	return fmt.Sprintf("%s-%s@integration.test", role, uuid.NewString()[:8])
}

// SignupPersona registers a fresh account and returns its client.
func SignupPersona(t *testing.T, role string) *TestClient {
	client := NewTestClient(APIBaseURL)
	client.Signup(t, UniqueEmail(role), TestPassword, role)
	return client
}

// StandardEvent returns an event starting tomorrow with refunds and transfers
// enabled.
func StandardEvent(name string) models.CreateEventRequest {
	start := time.Now().Add(24 * time.Hour)
	return models.CreateEventRequest{
		Name:          name,
		Venue:         "Integration Hall",
		StartTime:     start,
		EndTime:       start.Add(4 * time.Hour),
		TicketPrice:   5_000,
		TotalSupply:   10,
		RefundAllowed: true,
		Transferable:  true,
		MetadataURI:   "https://gatepass.test/meta/integration",
	}
}

// AssertEventExists checks if an event exists in the list.
func AssertEventExists(t *testing.T, events []models.ListEventsResponseItem, eventID int64) {
	for _, event := range events {
		if event.ID == eventID {
			return
		}
	}
	t.Fatalf("Event with ID %d not found in events list, %+v", eventID, events)
}

// AssertTicketOwned checks that the ticket shows up in the owner's list.
func AssertTicketOwned(t *testing.T, tickets []models.ListTicketsResponseItem, ticketID int64) {
	for _, ticket := range tickets {
		if ticket.ID == ticketID {
			return
		}
	}
	t.Fatalf("Ticket with ID %d not found in tickets list, %+v", ticketID, tickets)
}

// LogTestStep logs a test step for better debugging.
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result.
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
