package services

import "errors"

// Sentinel errors for everything the API maps to a client-visible
// status. Handlers translate with errors.Is; anything unrecognized is a
// plain 500.
var (
	ErrInvalidRequest        = errors.New("invalid request data")
	ErrEventNotFound         = errors.New("event not found")
	ErrTicketTypeNotFound    = errors.New("ticket type not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrForbidden             = errors.New("access denied")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrAlreadyCheckedIn      = errors.New("ticket already used for check-in")
	ErrInvalidCode           = errors.New("invalid QR code")
	ErrExpiredLink           = errors.New("verification link has expired")
)
