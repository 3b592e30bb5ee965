package models

import (
	"time"
)

// Account represents a principal in the system. User accounts authenticate and
// own tickets; system accounts (custody, platform) only hold funds.
type Account struct {
	AccountID    int64     `json:"account_id" db:"account_id"`
	Email        *string   `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Kind         string    `json:"kind" db:"kind"`
	Balance      int64     `json:"balance" db:"balance"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Account kinds.
const (
	AccountKindUser   = "user"
	AccountKindSystem = "system"
)

// Event represents an admission event whose tickets are issued by the ledger.
type Event struct {
	ID            int64     `json:"id" db:"id"`
	Organizer     int64     `json:"organizer" db:"organizer"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description" db:"description"`
	Venue         string    `json:"venue" db:"venue"`
	StartTime     time.Time `json:"start_time" db:"start_time"`
	EndTime       time.Time `json:"end_time" db:"end_time"`
	TicketPrice   int64     `json:"ticket_price" db:"ticket_price"`
	TotalSupply   int64     `json:"total_supply" db:"total_supply"`
	SoldCount     int64     `json:"sold_count" db:"sold_count"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	RefundAllowed bool      `json:"refund_allowed" db:"refund_allowed"`
	Transferable  bool      `json:"transferable" db:"transferable"`
	MetadataURI   string    `json:"metadata_uri" db:"metadata_uri"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Ticket represents a uniquely owned admission asset.
// UsedTime is set exactly when IsUsed is true.
type Ticket struct {
	ID           int64      `json:"id" db:"id"`
	EventID      int64      `json:"event_id" db:"event_id"`
	Owner        int64      `json:"owner" db:"owner"`
	IsUsed       bool       `json:"is_used" db:"is_used"`
	PurchaseTime time.Time  `json:"purchase_time" db:"purchase_time"`
	UsedTime     *time.Time `json:"used_time" db:"used_time"`
}

// Validator represents a principal the organizer authorized to check tickets in.
// Rows are soft-toggled and never removed so validated_count survives re-adds.
type Validator struct {
	EventID        int64     `json:"event_id" db:"event_id"`
	Validator      int64     `json:"validator" db:"validator"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	ValidatedCount int64     `json:"validated_count" db:"validated_count"`
	AddedAt        time.Time `json:"added_at" db:"added_at"`
}

// EventBalance tracks the escrow attributable to one event. LockedBalance is
// sale proceeds earmarked for the organizer; AvailableBalance is reserved for
// future workflows and never populated by the current set.
type EventBalance struct {
	EventID          int64 `json:"event_id" db:"event_id"`
	AvailableBalance int64 `json:"available_balance" db:"available_balance"`
	LockedBalance    int64 `json:"locked_balance" db:"locked_balance"`
	TotalWithdrawn   int64 `json:"total_withdrawn" db:"total_withdrawn"`
}

// LedgerState is the singleton row holding the id counters, the pause flag and
// the configured principals.
type LedgerState struct {
	NextEventID     int64 `json:"next_event_id" db:"next_event_id"`
	NextTicketID    int64 `json:"next_ticket_id" db:"next_ticket_id"`
	Paused          bool  `json:"paused" db:"paused"`
	AdminAccount    int64 `json:"admin_account" db:"admin_account"`
	CustodyAccount  int64 `json:"custody_account" db:"custody_account"`
	PlatformAccount int64 `json:"platform_account" db:"platform_account"`
}
