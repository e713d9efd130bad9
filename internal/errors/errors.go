package errors

import "errors"

var ErrUnauthorized = errors.New("actor is not authenticated")
var ErrForbidden = errors.New("operation is forbidden for actor")

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrBookingNotConfirmed  = errors.New("booking is not confirmed")
	ErrBookingNotPayable    = errors.New("booking cannot be confirmed in its current status")
	ErrTicketsAlreadyIssued = errors.New("ticket numbers already issued for booking")
	ErrTicketCodeConflict   = errors.New("ticket number already taken")
	ErrTicketCodesExhausted = errors.New("could not generate unique ticket numbers")
	ErrTicketNotInBooking   = errors.New("ticket number does not belong to booking")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
)
