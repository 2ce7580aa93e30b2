package models

import "errors"

// Lookup failures.
var (
	ErrConcertNotFound = errors.New("concert not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrTicketNotFound  = errors.New("ticket not found")
)

// Business rule violations.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrNoTicketsAvailable = errors.New("no tickets available")
	ErrAlreadyPurchased   = errors.New("ticket already purchased")
	ErrTicketNotReserved  = errors.New("ticket must be reserved before purchase")
	ErrNotPurchased       = errors.New("ticket must be purchased before use")
	ErrAlreadyAvailable   = errors.New("ticket is already available")
	ErrUsedNotCancellable = errors.New("used tickets cannot be cancelled")
	ErrTicketUsed         = errors.New("ticket already used")
	ErrInvalidTransition  = errors.New("invalid ticket transition")
)

// Contention.
var (
	ErrTicketBusy       = errors.New("ticket is being processed")
	ErrConcurrentUpdate = errors.New("ticket was modified concurrently")
	ErrLedgerOverflow   = errors.New("available tickets would exceed capacity")
)
