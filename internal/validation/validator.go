package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"gatepass/internal/models"

	"github.com/google/uuid"
)

// FlowValidator drives a complete ticket lifecycle against a running server:
// signup, funding, event creation, purchase, validation, refund and payout.
type FlowValidator struct {
	baseURL string
	client  *http.Client
}

type credentials struct {
	email    string
	password string
	id       int64
}

func NewFlowValidator(baseURL string) *FlowValidator {
	return &FlowValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateAll runs the whole scenario, failing on the first mismatch.
func (v *FlowValidator) ValidateAll() error {
	log.Println("Running live ticket lifecycle validation...")

	run := uuid.New().String()[:8]
	organizer := &credentials{email: fmt.Sprintf("organizer-%s@check.local", run), password: "validation123"}
	buyer := &credentials{email: fmt.Sprintf("buyer-%s@check.local", run), password: "validation123"}
	checker := &credentials{email: fmt.Sprintf("checker-%s@check.local", run), password: "validation123"}

	for _, user := range []*credentials{organizer, buyer, checker} {
		if err := v.signup(user); err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
	}

	if err := v.topUp(buyer, 100_000); err != nil {
		return fmt.Errorf("top up failed: %w", err)
	}

	eventID, err := v.createEvent(organizer)
	if err != nil {
		return fmt.Errorf("create event failed: %w", err)
	}
	log.Printf("Created event %d", eventID)

	ticketID, err := v.purchase(buyer, eventID)
	if err != nil {
		return fmt.Errorf("purchase failed: %w", err)
	}
	log.Printf("Purchased ticket %d", ticketID)

	if err := v.addValidator(organizer, eventID, checker.id); err != nil {
		return fmt.Errorf("add validator failed: %w", err)
	}

	// Event starts in the future, so validation has to be refused.
	if err := v.expectStatus(checker, "PATCH", "/api/tickets/validate",
		models.ValidateTicketRequest{TicketID: ticketID}, http.StatusConflict); err != nil {
		return fmt.Errorf("early validation was not refused: %w", err)
	}

	if err := v.refund(buyer, ticketID); err != nil {
		return fmt.Errorf("refund failed: %w", err)
	}
	log.Printf("Refunded ticket %d", ticketID)

	balance, err := v.balance(buyer)
	if err != nil {
		return fmt.Errorf("balance check failed: %w", err)
	}
	if balance != 100_000 {
		return fmt.Errorf("refund did not restore balance: got %d, want 100000", balance)
	}

	// Buy again and pay the organizer out.
	if _, err := v.purchase(buyer, eventID); err != nil {
		return fmt.Errorf("second purchase failed: %w", err)
	}
	if err := v.withdraw(organizer, eventID); err != nil {
		return fmt.Errorf("withdraw failed: %w", err)
	}

	log.Println("Live validation passed")
	return nil
}

func (v *FlowValidator) signup(user *credentials) error {
	resp, err := v.request(nil, "POST", "/api/accounts", models.SignupRequest{
		Email:    user.email,
		Password: user.password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/accounts: expected 201, got %d", resp.StatusCode)
	}

	var out models.SignupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode signup response: %w", err)
	}
	user.id = out.AccountID
	return nil
}

func (v *FlowValidator) topUp(user *credentials, amount int64) error {
	resp, err := v.request(user, "POST", "/api/accounts/topup", models.TopUpRequest{Amount: amount})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/accounts/topup: expected 200, got %d", resp.StatusCode)
	}
	return nil
}

func (v *FlowValidator) balance(user *credentials) (int64, error) {
	resp, err := v.request(user, "GET", "/api/accounts/balance", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/accounts/balance: expected 200, got %d", resp.StatusCode)
	}

	var out models.BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return out.Balance, nil
}

func (v *FlowValidator) createEvent(user *credentials) (int64, error) {
	resp, err := v.request(user, "POST", "/api/events", models.CreateEventRequest{
		Name:          "Validation Concert",
		Venue:         "Main Hall",
		StartTime:     time.Now().Add(24 * time.Hour),
		EndTime:       time.Now().Add(28 * time.Hour),
		TicketPrice:   5_000,
		TotalSupply:   10,
		RefundAllowed: true,
		Transferable:  true,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("POST /api/events: expected 201, got %d", resp.StatusCode)
	}

	var out models.CreateEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode create event response: %w", err)
	}
	if out.ID == 0 {
		return 0, fmt.Errorf("POST /api/events: expected non-zero ID")
	}
	return out.ID, nil
}

func (v *FlowValidator) purchase(user *credentials, eventID int64) (int64, error) {
	resp, err := v.request(user, "POST", "/api/tickets", models.PurchaseTicketRequest{EventID: eventID})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("POST /api/tickets: expected 201, got %d", resp.StatusCode)
	}

	var out models.PurchaseTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode purchase response: %w", err)
	}
	return out.ID, nil
}

func (v *FlowValidator) addValidator(user *credentials, eventID, validator int64) error {
	resp, err := v.request(user, "POST", "/api/validators", models.ValidatorRequest{
		EventID:   eventID,
		Validator: validator,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/validators: expected 201, got %d", resp.StatusCode)
	}
	return nil
}

func (v *FlowValidator) refund(user *credentials, ticketID int64) error {
	resp, err := v.request(user, "PATCH", "/api/tickets/refund", models.RefundTicketRequest{TicketID: ticketID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PATCH /api/tickets/refund: expected 200, got %d", resp.StatusCode)
	}
	return nil
}

func (v *FlowValidator) withdraw(user *credentials, eventID int64) error {
	resp, err := v.request(user, "POST", "/api/events/withdraw", models.WithdrawRevenueRequest{EventID: eventID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/events/withdraw: expected 200, got %d", resp.StatusCode)
	}

	var out models.WithdrawRevenueResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode withdraw response: %w", err)
	}
	if out.Amount <= 0 {
		return fmt.Errorf("POST /api/events/withdraw: expected positive amount, got %d", out.Amount)
	}
	return nil
}

func (v *FlowValidator) expectStatus(user *credentials, method, path string, body interface{}, want int) error {
	resp, err := v.request(user, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: expected %d, got %d", method, path, want, resp.StatusCode)
	}
	return nil
}

func (v *FlowValidator) request(user *credentials, method, path string, body interface{}) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		buf = bytes.NewBuffer(jsonBody)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, v.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.SetBasicAuth(user.email, user.password)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// RunValidation runs the live validation against a local server.
func RunValidation() {
	validator := NewFlowValidator("http://localhost:8081")
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Validation failed: %v", err)
	}
}
