package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps bookings, events and users in process memory with
// the same semantics as the PostgreSQL repositories. It backs local runs
// without a database and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	codes    map[string]string
	events   map[string]*models.Event
	users    map[string]*models.User

	Bookings *MemoryBookingRepository
	Events   *MemoryEventRepository
	Users    *MemoryUserRepository
}

type MemoryBookingRepository struct{ s *MemoryStore }
type MemoryEventRepository struct{ s *MemoryStore }
type MemoryUserRepository struct{ s *MemoryStore }

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		bookings: make(map[string]*models.Booking),
		codes:    make(map[string]string),
		events:   make(map[string]*models.Event),
		users:    make(map[string]*models.User),
	}
	s.Bookings = &MemoryBookingRepository{s: s}
	s.Events = &MemoryEventRepository{s: s}
	s.Users = &MemoryUserRepository{s: s}
	return s
}

func copyBooking(b *models.Booking) *models.Booking {
	out := *b
	out.TicketNumbers = append([]string(nil), b.TicketNumbers...)
	out.AttendeeDetails = append([]models.Attendee(nil), b.AttendeeDetails...)
	out.VerifiedTickets = append([]models.VerificationEntry(nil), b.VerifiedTickets...)
	out.CancelledTickets = append([]string(nil), b.CancelledTickets...)
	return &out
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingPending
	}
	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now

	for _, number := range booking.TicketNumbers {
		r.s.codes[number] = booking.ID
	}
	r.s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (r *MemoryBookingRepository) FindByTicketNumber(ctx context.Context, number string) (*models.Booking, error) {
	r.s.mu.RLock()
	id, ok := r.s.codes[number]
	r.s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryBookingRepository) ExistingCodes(_ context.Context, codes []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var existing []string
	for _, code := range codes {
		if _, ok := r.s.codes[code]; ok {
			existing = append(existing, code)
		}
	}
	return existing, nil
}

func (r *MemoryBookingRepository) AssignTickets(_ context.Context, bookingID string, numbers []string, paymentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingID]
	if !ok || b.Status != models.BookingPending || len(b.TicketNumbers) > 0 {
		return apperrors.ErrTicketsAlreadyIssued
	}

	seen := make(map[string]bool, len(numbers))
	for _, number := range numbers {
		if _, taken := r.s.codes[number]; taken || seen[number] {
			return fmt.Errorf("%w: %s", apperrors.ErrTicketCodeConflict, number)
		}
		seen[number] = true
	}

	for _, number := range numbers {
		r.s.codes[number] = bookingID
	}
	b.TicketNumbers = append([]string(nil), numbers...)
	b.Status = models.BookingConfirmed
	b.PaymentID = &paymentID
	b.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryBookingRepository) AppendVerification(_ context.Context, bookingID string, entry models.VerificationEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingID]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.VerifiedTickets = append(b.VerifiedTickets, entry)
	return nil
}

func (r *MemoryBookingRepository) Verifications(_ context.Context, bookingID string) ([]models.VerificationEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return append([]models.VerificationEntry(nil), b.VerifiedTickets...), nil
}

func (r *MemoryBookingRepository) CancelTicket(_ context.Context, bookingID, number string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingID]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	if !b.HasTicket(number) {
		return apperrors.ErrTicketNotInBooking
	}
	if !b.IsCancelled(number) {
		b.CancelledTickets = append(b.CancelledTickets, number)
		b.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryBookingRepository) IncrementDownloads(_ context.Context, bookingID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if b, ok := r.s.bookings[bookingID]; ok {
		b.DownloadCount++
	}
	return nil
}

func (r *MemoryEventRepository) Create(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	e := *event
	r.s.events[event.ID] = &e
	return nil
}

func (r *MemoryEventRepository) GetByID(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}
