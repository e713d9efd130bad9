package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"eventhub/internal/logger"
	"eventhub/internal/models"
)

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

type EventReader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ErrConfirmationUndelivered leaves a booking.confirmed message unacked
// so the broker redelivers it. Recipients already mailed are skipped
// through the delivery ledger on the next attempt.
var ErrConfirmationUndelivered = errors.New("booking confirmation email not delivered")

// Notifier is satisfied by *notify.Dispatcher
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, booking *models.Booking, event *models.Event, user *models.User) bool
	SendPaymentFailureEmail(ctx context.Context, user *models.User, event *models.Event, reason string) bool
}

// Indexer is satisfied by *search.ElasticsearchClient
type Indexer interface {
	IndexVerification(ctx context.Context, event *models.TicketVerifiedEvent) error
}

// Handlers process broker messages. A returned error leaves the message
// unacknowledged so the broker redelivers it; payloads that can never
// succeed are logged and acknowledged.
type Handlers struct {
	bookings BookingReader
	events   EventReader
	users    UserReader
	notifier Notifier
	indexer  Indexer
}

// NewHandlers builds the message handlers. indexer may be nil when
// verification indexing is disabled.
func NewHandlers(bookings BookingReader, events EventReader, users UserReader, notifier Notifier, indexer Indexer) *Handlers {
	return &Handlers{
		bookings: bookings,
		events:   events,
		users:    users,
		notifier: notifier,
		indexer:  indexer,
	}
}

// loadContext fetches the event and purchaser of a booking message.
// done is true when the message should be acked without further work.
func (h *Handlers) loadContext(ctx context.Context, log *slog.Logger, eventID, userID string) (event *models.Event, user *models.User, done bool, err error) {
	event, err = h.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		log.Error("Event not found, dropping message", "event_id", eventID)
		return nil, nil, true, nil
	}

	user, err = h.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		log.Error("User not found, dropping message", "user_id", userID)
		return nil, nil, true, nil
	}
	return event, user, false, nil
}

// HandleBookingConfirmed sends the purchaser and attendee ticket emails
func (h *Handlers) HandleBookingConfirmed(ctx context.Context, data []byte) error {
	var msg models.BookingConfirmedEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("Failed to unmarshal booking confirmed event", "error", err)
		return nil
	}

	log := logger.WithBooking(ctx, msg.BookingID)
	log.Info("Processing booking confirmed event", "tickets", len(msg.TicketNumbers))

	booking, err := h.bookings.GetByID(ctx, msg.BookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		log.Error("Booking not found, dropping message")
		return nil
	}

	if booking.Status != models.BookingConfirmed || len(booking.TicketNumbers) == 0 {
		log.Error("Booking has no issued tickets, dropping message", "status", booking.Status)
		return nil
	}

	event, user, done, err := h.loadContext(ctx, log, booking.EventID, booking.UserID)
	if err != nil || done {
		return err
	}

	if !h.notifier.SendBookingConfirmation(ctx, booking, event, user) {
		log.Warn("Booking confirmation email not delivered, awaiting redelivery")
		return ErrConfirmationUndelivered
	}
	return nil
}

// HandlePaymentFailed sends the payment failure email
func (h *Handlers) HandlePaymentFailed(ctx context.Context, data []byte) error {
	var msg models.PaymentFailedEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return nil
	}

	log := logger.WithBooking(ctx, msg.BookingID)
	log.Info("Processing payment failed event", "reason", msg.Reason)

	event, user, done, err := h.loadContext(ctx, log, msg.EventID, msg.UserID)
	if err != nil || done {
		return err
	}

	h.notifier.SendPaymentFailureEmail(ctx, user, event, msg.Reason)
	return nil
}

// HandleTicketVerified copies a ledger entry into the search index
func (h *Handlers) HandleTicketVerified(ctx context.Context, data []byte) error {
	var msg models.TicketVerifiedEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("Failed to unmarshal ticket verified event", "error", err)
		return nil
	}
	if h.indexer == nil {
		return nil
	}

	if err := h.indexer.IndexVerification(ctx, &msg); err != nil {
		return fmt.Errorf("failed to index verification: %w", err)
	}
	return nil
}
