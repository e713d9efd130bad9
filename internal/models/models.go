package models

// ConfirmBookingRequest - payment confirmation signal for a booking
type ConfirmBookingRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

// ConfirmBookingResponse - issued ticket numbers
type ConfirmBookingResponse struct {
	BookingID     string   `json:"booking_id"`
	Status        string   `json:"status"`
	TicketNumbers []string `json:"ticket_numbers"`
}

// PaymentFailedRequest - payment failure signal for a booking
type PaymentFailedRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// VerifyTicketRequest - check-in of one ticket of a known booking
type VerifyTicketRequest struct {
	TicketNumber string `json:"ticket_number" binding:"required"`
}

// ScanTicketRequest - check-in from a raw QR payload
type ScanTicketRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// VerifyResult - outcome of a check-in attempt
type VerifyResult struct {
	BookingID    string             `json:"booking_id,omitempty"`
	TicketNumber string             `json:"ticket_number"`
	Status       VerificationStatus `json:"status"`
	Reason       string             `json:"reason,omitempty"`
}

// Approved reports whether entry was granted
func (r *VerifyResult) Approved() bool {
	return r.Status == VerificationApproved
}

// VerificationsResponse - verification ledger of a booking
type VerificationsResponse struct {
	BookingID        string              `json:"booking_id"`
	CancelledTickets []string            `json:"cancelled_tickets"`
	Entries          []VerificationEntry `json:"entries"`
}

// NewsletterRequest - single newsletter delivery
type NewsletterRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Name  string            `json:"name"`
	Kind  string            `json:"kind" binding:"required"`
	Data  map[string]string `json:"data"`
}
