package models

import "time"

// NATS subjects for workflow records. Records are emitted only after a workflow
// commits; failed calls leave no record.
const (
	RecordEventCreated     = "event.created"
	RecordEventCancelled   = "event.cancelled"
	RecordTicketMinted     = "ticket.minted"
	RecordTicketValidated  = "ticket.validated"
	RecordTicketTransfer   = "ticket.transferred"
	RecordTicketRefunded   = "ticket.refunded"
	RecordRevenueWithdrawn = "revenue.withdrawn"
	RecordValidatorAdded   = "validator.added"
	RecordValidatorRemoved = "validator.removed"
)

// EventCreatedRecord is emitted when an organizer creates an event.
type EventCreatedRecord struct {
	EventID   int64     `json:"event_id"`
	Organizer int64     `json:"organizer"`
	Name      string    `json:"name"`
	Supply    int64     `json:"supply"`
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// EventCancelledRecord is emitted when an organizer deactivates an event.
type EventCancelledRecord struct {
	EventID   int64     `json:"event_id"`
	Organizer int64     `json:"organizer"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketMintedRecord is emitted on a successful purchase.
type TicketMintedRecord struct {
	TicketID    int64     `json:"ticket_id"`
	EventID     int64     `json:"event_id"`
	Buyer       int64     `json:"buyer"`
	Price       int64     `json:"price"`
	PlatformFee int64     `json:"platform_fee"`
	Timestamp   time.Time `json:"timestamp"`
}

// TicketValidatedRecord is emitted when a validator marks a ticket used.
type TicketValidatedRecord struct {
	TicketID  int64     `json:"ticket_id"`
	EventID   int64     `json:"event_id"`
	Validator int64     `json:"validator"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketTransferredRecord is emitted when a ticket changes owner.
type TicketTransferredRecord struct {
	TicketID  int64     `json:"ticket_id"`
	EventID   int64     `json:"event_id"`
	Sender    int64     `json:"sender"`
	Recipient int64     `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketRefundedRecord is emitted when a ticket is burned and repaid.
type TicketRefundedRecord struct {
	TicketID  int64     `json:"ticket_id"`
	EventID   int64     `json:"event_id"`
	Buyer     int64     `json:"buyer"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// RevenueWithdrawnRecord is emitted when an organizer drains a locked balance.
type RevenueWithdrawnRecord struct {
	EventID   int64     `json:"event_id"`
	Organizer int64     `json:"organizer"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidatorToggledRecord is emitted when a validator is added or removed.
type ValidatorToggledRecord struct {
	EventID   int64     `json:"event_id"`
	Validator int64     `json:"validator"`
	Active    bool      `json:"active"`
	Timestamp time.Time `json:"timestamp"`
}
