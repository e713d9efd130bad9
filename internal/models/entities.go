package models

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

// CanIssue reports whether tickets, PDFs and emails may be produced for the booking
func (s BookingStatus) CanIssue() bool {
	return s == BookingConfirmed
}

// VerificationStatus is the outcome of a ticket scan
type VerificationStatus string

const (
	VerificationApproved VerificationStatus = "approved"
	VerificationDenied   VerificationStatus = "denied"
)

// Denial reasons
const (
	ReasonNotFound    = "not_found"
	ReasonCancelled   = "cancelled"
	ReasonInvalid     = "invalid"
	ReasonAlreadyUsed = "already_used"
)

// User represents the purchaser of a booking
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Event represents a listed event. Price is in minor currency units.
type Event struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Date          time.Time `json:"date" db:"event_date"`
	Location      string    `json:"location" db:"location"`
	Price         int64     `json:"price" db:"price"`
	OrganizerName string    `json:"organizer_name" db:"organizer_name"`
}

// Attendee is the person holding one seat of a booking
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VerificationEntry is one append-only record of a ticket scan
type VerificationEntry struct {
	TicketNumber string             `json:"ticket_number" db:"ticket_number"`
	VerifiedAt   time.Time          `json:"verified_at" db:"verified_at"`
	VerifiedBy   string             `json:"verified_by" db:"verified_by"`
	Status       VerificationStatus `json:"status" db:"status"`
	Reason       string             `json:"reason,omitempty" db:"reason"`
}

// Booking represents a purchase of Quantity seats for an event.
// TicketNumbers[i] belongs to AttendeeDetails[i].
type Booking struct {
	ID               string              `json:"id" db:"id"`
	EventID          string              `json:"event_id" db:"event_id"`
	UserID           string              `json:"user_id" db:"user_id"`
	Quantity         int                 `json:"quantity" db:"quantity"`
	TotalPrice       int64               `json:"total_price" db:"total_price"`
	TicketNumbers    []string            `json:"ticket_numbers" db:"ticket_numbers"`
	AttendeeDetails  []Attendee          `json:"attendee_details" db:"attendees"`
	VerifiedTickets  []VerificationEntry `json:"verified_tickets"` // Not from bookings table, filled separately
	CancelledTickets []string            `json:"cancelled_tickets" db:"cancelled_tickets"`
	Status           BookingStatus       `json:"status" db:"status"`
	PaymentOrderID   *string             `json:"payment_order_id" db:"payment_order_id"`
	PaymentID        *string             `json:"payment_id" db:"payment_id"`
	PDFURL           *string             `json:"pdf_url" db:"pdf_url"`
	DownloadCount    int                 `json:"download_count" db:"download_count"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// ShortRef is the human-shareable booking reference: the last 8
// characters of the booking ID, upper-cased.
func (b *Booking) ShortRef() string {
	id := b.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

func (b *Booking) HasTicket(number string) bool {
	return contains(b.TicketNumbers, number)
}

func (b *Booking) IsCancelled(number string) bool {
	return contains(b.CancelledTickets, number)
}

// WasApproved reports whether the ledger already holds an approved scan for the ticket
func (b *Booking) WasApproved(number string) bool {
	for _, entry := range b.VerifiedTickets {
		if entry.TicketNumber == number && entry.Status == VerificationApproved {
			return true
		}
	}
	return false
}

// Attendee returns the attendee holding ticket i, or a zero Attendee when
// the booking carries fewer attendee records than tickets.
func (b *Booking) Attendee(i int) Attendee {
	if i < 0 || i >= len(b.AttendeeDetails) {
		return Attendee{}
	}
	return b.AttendeeDetails[i]
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
