package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"gatepass/internal/models"
)

// TestClient calls the API as one authenticated account. Create one client
// per persona (organizer, buyer, validator) and they share nothing but the
// server.
type TestClient struct {
	BaseURL    string
	Email      string
	Password   string
	AccountID  int64
	HTTPClient *http.Client
}

// NewTestClient creates an unauthenticated client.
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request, attaching Basic Auth when the client has
// credentials.
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Email != "" {
		req.SetBasicAuth(c.Email, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

func (c *TestClient) expectStatus(t *testing.T, resp *http.Response, want int) {
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", want, resp.StatusCode, string(body))
	}
}

// Signup registers the client's account and remembers the credentials.
func (c *TestClient) Signup(t *testing.T, email, password, displayName string) {
	req := models.SignupRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}

	resp := c.makeRequest(t, "POST", "/api/accounts", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusCreated)

	var result models.SignupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode signup response: %v", err)
	}

	c.Email = email
	c.Password = password
	c.AccountID = result.AccountID
}

// TopUp credits the client's balance.
func (c *TestClient) TopUp(t *testing.T, amount int64) {
	req := models.TopUpRequest{Amount: amount}

	resp := c.makeRequest(t, "POST", "/api/accounts/topup", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)
}

// Balance returns the client's current balance.
func (c *TestClient) Balance(t *testing.T) int64 {
	resp := c.makeRequest(t, "GET", "/api/accounts/balance", nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var result models.BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode balance response: %v", err)
	}
	return result.Balance
}

// CreateEvent creates a new event and returns its id.
func (c *TestClient) CreateEvent(t *testing.T, req models.CreateEventRequest) int64 {
	resp := c.makeRequest(t, "POST", "/api/events", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusCreated)

	var result models.CreateEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode create event response: %v", err)
	}
	return result.ID
}

// ListEvents lists the event catalog.
func (c *TestClient) ListEvents(t *testing.T) []models.ListEventsResponseItem {
	resp := c.makeRequest(t, "GET", "/api/events?page=1&pageSize=100", nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var events []models.ListEventsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode events response: %v", err)
	}
	return events
}

// PurchaseTicket buys one ticket and returns its id.
func (c *TestClient) PurchaseTicket(t *testing.T, eventID int64) int64 {
	req := models.PurchaseTicketRequest{EventID: eventID}

	resp := c.makeRequest(t, "POST", "/api/tickets", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusCreated)

	var result models.PurchaseTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode purchase response: %v", err)
	}
	return result.ID
}

// ListTickets lists the client's tickets.
func (c *TestClient) ListTickets(t *testing.T) []models.ListTicketsResponseItem {
	resp := c.makeRequest(t, "GET", "/api/tickets", nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var tickets []models.ListTicketsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&tickets); err != nil {
		t.Fatalf("Failed to decode tickets response: %v", err)
	}
	return tickets
}

// TicketQR fetches the ticket's QR PNG.
func (c *TestClient) TicketQR(t *testing.T, ticketID int64) []byte {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/tickets/%d/qr", ticketID), nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Expected image/png, got %s", ct)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read QR body: %v", err)
	}
	return png
}

// ValidateTicket checks a ticket in, expecting the given status.
func (c *TestClient) ValidateTicket(t *testing.T, ticketID int64, wantStatus int) {
	req := models.ValidateTicketRequest{TicketID: ticketID}

	resp := c.makeRequest(t, "PATCH", "/api/tickets/validate", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, wantStatus)
}

// TransferTicket moves a ticket to another account.
func (c *TestClient) TransferTicket(t *testing.T, ticketID, recipient int64, wantStatus int) {
	req := models.TransferTicketRequest{
		TicketID:  ticketID,
		Sender:    c.AccountID,
		Recipient: recipient,
	}

	resp := c.makeRequest(t, "PATCH", "/api/tickets/transfer", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, wantStatus)
}

// RefundTicket burns a ticket and returns the money.
func (c *TestClient) RefundTicket(t *testing.T, ticketID int64, wantStatus int) {
	req := models.RefundTicketRequest{TicketID: ticketID}

	resp := c.makeRequest(t, "PATCH", "/api/tickets/refund", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, wantStatus)
}

// AddValidator authorizes an account to validate an event's tickets.
func (c *TestClient) AddValidator(t *testing.T, eventID, validator int64) {
	req := models.ValidatorRequest{EventID: eventID, Validator: validator}

	resp := c.makeRequest(t, "POST", "/api/validators", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusCreated)
}

// EventBalance reads the event's escrow bookkeeping.
func (c *TestClient) EventBalance(t *testing.T, eventID int64) models.EventBalanceResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/events/%d/balance", eventID), nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var result models.EventBalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode event balance response: %v", err)
	}
	return result
}

// WithdrawRevenue drains the event's locked balance and returns the amount.
func (c *TestClient) WithdrawRevenue(t *testing.T, eventID int64) int64 {
	req := models.WithdrawRevenueRequest{EventID: eventID}

	resp := c.makeRequest(t, "POST", "/api/events/withdraw", req)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var result models.WithdrawRevenueResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode withdraw response: %v", err)
	}
	return result.Amount
}

// LastTokenID reads the token facade's high-water mark.
func (c *TestClient) LastTokenID(t *testing.T) int64 {
	resp := c.makeRequest(t, "GET", "/api/tokens/last", nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var result models.LastTokenIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode last token id response: %v", err)
	}
	return result.LastTokenID
}

// TokenOwner reads a token's owner, nil when the token does not exist.
func (c *TestClient) TokenOwner(t *testing.T, tokenID int64) *int64 {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/tokens/%d/owner", tokenID), nil)
	defer resp.Body.Close()
	c.expectStatus(t, resp, http.StatusOK)

	var result models.TokenOwnerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode token owner response: %v", err)
	}
	return result.Owner
}

// HealthCheck checks if the API is healthy.
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}
