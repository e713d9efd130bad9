package models

import "time"

// NATS Event Types
const (
	EventBookingConfirmed = "booking.confirmed"
	EventPaymentFailed    = "payment.failed"
	EventTicketVerified   = "ticket.verified"
)

// BookingConfirmedEvent is published once ticket numbers are assigned
type BookingConfirmedEvent struct {
	BookingID     string    `json:"booking_id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	TicketNumbers []string  `json:"ticket_numbers"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment for a booking
type PaymentFailedEvent struct {
	BookingID string    `json:"booking_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketVerifiedEvent is published for every verification ledger append
type TicketVerifiedEvent struct {
	BookingID    string             `json:"booking_id"`
	EventID      string             `json:"event_id"`
	TicketNumber string             `json:"ticket_number"`
	VerifiedBy   string             `json:"verified_by"`
	Status       VerificationStatus `json:"status"`
	Reason       string             `json:"reason,omitempty"`
	VerifiedAt   time.Time          `json:"verified_at"`
}
