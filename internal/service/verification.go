package service

import (
	"context"
	"fmt"
	"strings"

	"eventhub/internal/clock"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/logger"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
)

// VerificationService checks tickets at the door and keeps the
// append-only verification ledger of each booking.
//
// Denials (cancelled, foreign or unknown scanned ticket) are results, not
// errors. Verify fails with ErrBookingNotFound for an unknown booking.
type VerificationService struct {
	bookings  BookingStore
	publisher Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	singleUse bool
}

func NewVerificationService(d Deps) *VerificationService {
	c := d.Clock
	if c == nil {
		c = clock.Real()
	}
	return &VerificationService{
		bookings:  d.Bookings,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		clock:     c,
		singleUse: d.SingleUseEntry,
	}
}

func (s *VerificationService) denied(bookingID, number, reason string) *models.VerifyResult {
	s.metrics.Verification(string(models.VerificationDenied), reason)
	return &models.VerifyResult{
		BookingID:    bookingID,
		TicketNumber: number,
		Status:       models.VerificationDenied,
		Reason:       reason,
	}
}

// Verify checks ticketNumber against the booking and records the scan
func (s *VerificationService) Verify(ctx context.Context, bookingID, ticketNumber, actor string) (*models.VerifyResult, error) {
	if actor == "" {
		return nil, apperrors.ErrUnauthorized
	}
	number := strings.TrimSpace(ticketNumber)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}

	return s.verify(ctx, booking, number, actor)
}

// VerifyScan is Verify for a scanned QR payload, which carries only the
// ticket number
func (s *VerificationService) VerifyScan(ctx context.Context, payload, actor string) (*models.VerifyResult, error) {
	if actor == "" {
		return nil, apperrors.ErrUnauthorized
	}
	number := strings.TrimSpace(payload)

	booking, err := s.bookings.FindByTicketNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by ticket: %w", err)
	}
	if booking == nil {
		return s.denied("", number, models.ReasonNotFound), nil
	}

	return s.verify(ctx, booking, number, actor)
}

func (s *VerificationService) verify(ctx context.Context, booking *models.Booking, number, actor string) (*models.VerifyResult, error) {
	log := logger.WithBooking(ctx, booking.ID).With("ticket_number", number, "verified_by", actor)

	if booking.IsCancelled(number) {
		if err := s.record(ctx, booking, number, actor, models.VerificationDenied, models.ReasonCancelled); err != nil {
			return nil, err
		}
		log.Info("Ticket denied", "reason", models.ReasonCancelled)
		return s.denied(booking.ID, number, models.ReasonCancelled), nil
	}

	if !booking.HasTicket(number) {
		log.Info("Ticket denied", "reason", models.ReasonInvalid)
		return s.denied(booking.ID, number, models.ReasonInvalid), nil
	}

	if s.singleUse && booking.WasApproved(number) {
		if err := s.record(ctx, booking, number, actor, models.VerificationDenied, models.ReasonAlreadyUsed); err != nil {
			return nil, err
		}
		log.Info("Ticket denied", "reason", models.ReasonAlreadyUsed)
		return s.denied(booking.ID, number, models.ReasonAlreadyUsed), nil
	}

	if err := s.record(ctx, booking, number, actor, models.VerificationApproved, ""); err != nil {
		return nil, err
	}

	s.metrics.Verification(string(models.VerificationApproved), "")
	log.Info("Ticket approved")
	return &models.VerifyResult{
		BookingID:    booking.ID,
		TicketNumber: number,
		Status:       models.VerificationApproved,
	}, nil
}

// record appends a ledger entry and announces it
func (s *VerificationService) record(ctx context.Context, booking *models.Booking, number, actor string, status models.VerificationStatus, reason string) error {
	entry := models.VerificationEntry{
		TicketNumber: number,
		VerifiedAt:   s.clock.Now().UTC(),
		VerifiedBy:   actor,
		Status:       status,
		Reason:       reason,
	}

	if err := s.bookings.AppendVerification(ctx, booking.ID, entry); err != nil {
		return fmt.Errorf("failed to record verification: %w", err)
	}

	event := models.TicketVerifiedEvent{
		BookingID:    booking.ID,
		EventID:      booking.EventID,
		TicketNumber: number,
		VerifiedBy:   actor,
		Status:       status,
		Reason:       reason,
		VerifiedAt:   entry.VerifiedAt,
	}
	if err := s.publisher.Publish(models.EventTicketVerified, event); err != nil {
		logger.WithBooking(ctx, booking.ID).Error("Failed to publish ticket verified event",
			"error", err,
			"ticket_number", number,
			"event_type", models.EventTicketVerified)
	}
	return nil
}

// CancelTicket marks one ticket of the booking as no longer valid
func (s *VerificationService) CancelTicket(ctx context.Context, bookingID, ticketNumber string) error {
	number := strings.TrimSpace(ticketNumber)
	if err := s.bookings.CancelTicket(ctx, bookingID, number); err != nil {
		return err
	}

	logger.WithBooking(ctx, bookingID).Info("Ticket cancelled", "ticket_number", number)
	return nil
}

// History returns the booking's ledger in append order
func (s *VerificationService) History(ctx context.Context, bookingID string) (*models.VerificationsResponse, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}

	entries := booking.VerifiedTickets
	if entries == nil {
		entries = []models.VerificationEntry{}
	}
	cancelled := booking.CancelledTickets
	if cancelled == nil {
		cancelled = []string{}
	}

	return &models.VerificationsResponse{
		BookingID:        booking.ID,
		CancelledTickets: cancelled,
		Entries:          entries,
	}, nil
}
