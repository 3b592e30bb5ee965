package errors

import "errors"

// Guard failures shared by every ledger mutation.
var ErrNotAuthorized = errors.New("caller is not authorized")
var ErrPaused = errors.New("ledger is paused")

// Lookup failures.
var ErrEventNotFound = errors.New("event not found")
var ErrTicketNotFound = errors.New("ticket not found")
var ErrValidatorNotFound = errors.New("validator not found")
var ErrAccountNotFound = errors.New("account not found")

// Event creation and counter failures.
var ErrInvalidSupply = errors.New("total supply must be greater than zero")
var ErrInvalidTimeRange = errors.New("event start must be before event end")
var ErrEventInPast = errors.New("event start must not be in the past")
var ErrInvalidPrice = errors.New("ticket price must not be negative")
var ErrOverflow = errors.New("id counter overflow")
var ErrExceedsSupply = errors.New("sold count exceeds total supply")

// Workflow failures.
var ErrEventInactive = errors.New("event is not active")
var ErrSoldOut = errors.New("event is sold out")
var ErrAlreadyUsed = errors.New("ticket already used")
var ErrNotOwner = errors.New("caller is not the ticket owner")
var ErrNotValidator = errors.New("caller is not an active validator for the event")
var ErrTransferNotAllowed = errors.New("event does not allow transfers")
var ErrRefundNotAllowed = errors.New("event does not allow refunds")
var ErrWithdrawNotAllowed = errors.New("no locked balance to withdraw")
var ErrInvalidRecipient = errors.New("recipient is not a plain user account")
var ErrEventNotStarted = errors.New("event has not started")
var ErrEventEnded = errors.New("event has ended")
var ErrEventStarted = errors.New("event has already started")

// Custody failures.
var ErrInsufficientFunds = errors.New("insufficient account balance")
