package models

import "time"

// CreateEventRequest - payload for creating an event
type CreateEventRequest struct {
	Name          string    `json:"name" binding:"required"`
	Description   string    `json:"description,omitempty"`
	Venue         string    `json:"venue,omitempty"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	TicketPrice   int64     `json:"ticket_price"`
	TotalSupply   int64     `json:"total_supply" binding:"required"`
	RefundAllowed bool      `json:"refund_allowed"`
	Transferable  bool      `json:"transferable"`
	MetadataURI   string    `json:"metadata_uri,omitempty"`
}

// CreateEventResponse - returned id of the created event
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// ListEventsResponseItem - catalog listing entry
type ListEventsResponseItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartTime time.Time `json:"start_time"`
	IsActive  bool      `json:"is_active"`
}

// ListEventsResponse - event catalog listing
type ListEventsResponse []ListEventsResponseItem

// CancelEventRequest - organizer cancels an event
type CancelEventRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

// PurchaseTicketRequest - buy one ticket for an event
type PurchaseTicketRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

// PurchaseTicketResponse - returned id of the minted ticket
type PurchaseTicketResponse struct {
	ID int64 `json:"id"`
}

// ListTicketsResponseItem - one ticket owned by the caller
type ListTicketsResponseItem struct {
	ID      int64 `json:"id"`
	EventID int64 `json:"event_id"`
	IsUsed  bool  `json:"is_used"`
}

// ListTicketsResponse - tickets owned by the caller
type ListTicketsResponse []ListTicketsResponseItem

// ValidateTicketRequest - validator marks a ticket used at entry
type ValidateTicketRequest struct {
	TicketID int64 `json:"ticket_id" binding:"required"`
}

// BatchValidateRequest - validator checks in a list of tickets for one event
type BatchValidateRequest struct {
	EventID   int64   `json:"event_id" binding:"required"`
	TicketIDs []int64 `json:"ticket_ids" binding:"required"`
}

// BatchValidateResponse - per-ticket outcome, same order as the request
type BatchValidateResponse struct {
	Results []bool `json:"results"`
}

// TransferTicketRequest - move a ticket to another account
type TransferTicketRequest struct {
	TicketID  int64 `json:"ticket_id" binding:"required"`
	Sender    int64 `json:"sender" binding:"required"`
	Recipient int64 `json:"recipient" binding:"required"`
}

// RefundTicketRequest - burn a ticket and return the purchase price
type RefundTicketRequest struct {
	TicketID int64 `json:"ticket_id" binding:"required"`
}

// WithdrawRevenueRequest - organizer drains an event's locked balance
type WithdrawRevenueRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

// WithdrawRevenueResponse - amount paid out
type WithdrawRevenueResponse struct {
	Amount int64 `json:"amount"`
}

// ValidatorRequest - organizer toggles a validator for an event
type ValidatorRequest struct {
	EventID   int64 `json:"event_id" binding:"required"`
	Validator int64 `json:"validator" binding:"required"`
}

// EventBalanceResponse - escrow bookkeeping for one event
type EventBalanceResponse struct {
	EventID          int64 `json:"event_id"`
	AvailableBalance int64 `json:"available_balance"`
	LockedBalance    int64 `json:"locked_balance"`
	TotalWithdrawn   int64 `json:"total_withdrawn"`
}

// SignupRequest - register a new user account
type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name,omitempty"`
}

// SignupResponse - id of the new account
type SignupResponse struct {
	AccountID int64 `json:"account_id"`
}

// TopUpRequest - credit the caller's balance (demo funding path)
type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// BalanceResponse - the caller's current balance
type BalanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"`
}

// LastTokenIDResponse - asset facade last-token-id
type LastTokenIDResponse struct {
	LastTokenID int64 `json:"last_token_id"`
}

// TokenURIResponse - asset facade token-uri; URI empty when absent
type TokenURIResponse struct {
	TokenID int64  `json:"token_id"`
	URI     string `json:"uri"`
}

// TokenOwnerResponse - asset facade get-owner; Owner nil when absent
type TokenOwnerResponse struct {
	TokenID int64  `json:"token_id"`
	Owner   *int64 `json:"owner"`
}

// PauseRequest - admin toggles the ledger pause flag
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// SetAdminRequest - admin hands the privileged principal to another account
type SetAdminRequest struct {
	AccountID int64 `json:"account_id" binding:"required"`
}
