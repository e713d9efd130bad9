package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/clock"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/logger"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
	"eventhub/internal/ticketpdf"
)

// Attempts at generating and storing a full set of ticket numbers
// before confirmation fails
const maxAssignAttempts = 3

type TicketService struct {
	bookings  BookingStore
	events    EventStore
	codes     CodeGenerator
	renderer  DocumentRenderer
	publisher Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewTicketService(d Deps) *TicketService {
	c := d.Clock
	if c == nil {
		c = clock.Real()
	}
	return &TicketService{
		bookings:  d.Bookings,
		events:    d.Events,
		codes:     d.Codes,
		renderer:  d.Renderer,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		clock:     c,
	}
}

func confirmResponse(b *models.Booking) *models.ConfirmBookingResponse {
	return &models.ConfirmBookingResponse{
		BookingID:     b.ID,
		Status:        string(b.Status),
		TicketNumbers: b.TicketNumbers,
	}
}

// ConfirmBooking assigns ticket numbers to a paid booking and queues the
// confirmation emails. Confirming an already issued booking returns its
// existing tickets and queues the emails again; recipients already
// mailed are skipped by the dispatcher's delivery ledger.
func (s *TicketService) ConfirmBooking(ctx context.Context, bookingID, paymentID string) (*models.ConfirmBookingResponse, error) {
	log := logger.WithBooking(ctx, bookingID)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}

	if booking.Status == models.BookingConfirmed && len(booking.TicketNumbers) > 0 {
		log.Info("Booking already confirmed, returning issued tickets")
		s.publishConfirmed(log, booking)
		return confirmResponse(booking), nil
	}
	if booking.Status != models.BookingPending {
		return nil, apperrors.ErrBookingNotPayable
	}
	if booking.Quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var numbers []string
	for attempt := 1; ; attempt++ {
		numbers, err = s.codes.Generate(ctx, booking.ID, booking.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ticket numbers: %w", err)
		}

		err = s.bookings.AssignTickets(ctx, booking.ID, numbers, paymentID)
		if err == nil {
			break
		}

		if errors.Is(err, apperrors.ErrTicketsAlreadyIssued) {
			// A concurrent confirmation won the race
			current, getErr := s.bookings.GetByID(ctx, booking.ID)
			if getErr == nil && current != nil && current.Status == models.BookingConfirmed && len(current.TicketNumbers) > 0 {
				return confirmResponse(current), nil
			}
			return nil, err
		}

		if !errors.Is(err, apperrors.ErrTicketCodeConflict) || attempt >= maxAssignAttempts {
			return nil, fmt.Errorf("failed to assign ticket numbers: %w", err)
		}
		log.Warn("Ticket number taken concurrently, regenerating", "attempt", attempt, "error", err)
	}

	s.metrics.IssuedTickets(len(numbers))
	log.Info("Tickets issued", "tickets", len(numbers))

	booking.TicketNumbers = numbers
	booking.Status = models.BookingConfirmed
	booking.PaymentID = &paymentID

	s.publishConfirmed(log, booking)

	return confirmResponse(booking), nil
}

func (s *TicketService) publishConfirmed(log *slog.Logger, booking *models.Booking) {
	event := models.BookingConfirmedEvent{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		UserID:        booking.UserID,
		TicketNumbers: booking.TicketNumbers,
		Timestamp:     s.clock.Now(),
	}
	if err := s.publisher.Publish(models.EventBookingConfirmed, event); err != nil {
		// Tickets stay issued; confirming again requeues the emails
		log.Error("Failed to publish booking confirmed event",
			"error", err,
			"event_type", models.EventBookingConfirmed)
	}
}

// MarkPaymentFailed queues the payment failure email for a pending booking
func (s *TicketService) MarkPaymentFailed(ctx context.Context, bookingID, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return apperrors.ErrBookingNotFound
	}
	if booking.Status != models.BookingPending {
		return apperrors.ErrBookingNotPayable
	}

	event := models.PaymentFailedEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		Reason:    reason,
		Timestamp: s.clock.Now(),
	}
	if err := s.publisher.Publish(models.EventPaymentFailed, event); err != nil {
		return fmt.Errorf("failed to publish payment failed event: %w", err)
	}

	logger.WithBooking(ctx, bookingID).Info("Payment failure queued", "reason", reason)
	return nil
}

// TicketDocument returns the printable document of a confirmed booking.
// ticket selects a single 1-based ticket; 0 means every ticket.
func (s *TicketService) TicketDocument(ctx context.Context, bookingID string, ticket int) (ticketpdf.Document, *models.Event, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return ticketpdf.Document{}, nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return ticketpdf.Document{}, nil, apperrors.ErrBookingNotFound
	}
	if !booking.Status.CanIssue() || len(booking.TicketNumbers) == 0 {
		return ticketpdf.Document{}, nil, apperrors.ErrBookingNotConfirmed
	}

	event, err := s.events.GetByID(ctx, booking.EventID)
	if err != nil {
		return ticketpdf.Document{}, nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return ticketpdf.Document{}, nil, apperrors.ErrEventNotFound
	}

	if ticket == 0 {
		return ticketpdf.FullBooking(booking, event), event, nil
	}

	doc, err := ticketpdf.SingleTicket(booking, event, ticket-1)
	if err != nil {
		return ticketpdf.Document{}, nil, err
	}
	return doc, event, nil
}

// DownloadTickets renders the booking's tickets into sink and counts the download
func (s *TicketService) DownloadTickets(ctx context.Context, bookingID string, ticket int, sink ticketpdf.Sink) error {
	doc, event, err := s.TicketDocument(ctx, bookingID, ticket)
	if err != nil {
		return err
	}

	log := logger.WithBooking(ctx, bookingID)

	if err := s.renderer.RenderTo(doc, ticketpdf.DownloadFilename(event, s.clock.Now()), sink); err != nil {
		s.metrics.PDFRenderFailed()
		return fmt.Errorf("failed to render tickets: %w", err)
	}

	if err := s.bookings.IncrementDownloads(ctx, bookingID); err != nil {
		log.Warn("Failed to count ticket download", "error", err)
	}

	log.Info("Tickets downloaded", "mode", doc.Mode.String(), "tickets", len(doc.Tickets))
	return nil
}
