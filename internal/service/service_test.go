package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eventhub/internal/clock"
	"eventhub/internal/models"
	"eventhub/internal/qr"
	"eventhub/internal/repository"
	"eventhub/internal/ticketcode"
	"eventhub/internal/ticketpdf"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	subjects []string
	payloads []interface{}
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type fixture struct {
	store     *repository.MemoryStore
	publisher *recordingPublisher
	clock     *clock.FakeClock
	deps      Deps
	event     *models.Event
	user      *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	publisher := &recordingPublisher{}
	fake := clock.Fake(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC))

	event := &models.Event{Title: "City Marathon Expo", Date: time.Date(2025, time.June, 20, 9, 0, 0, 0, time.UTC), Location: "Expo Center", Price: 50000}
	require.NoError(t, store.Events.Create(ctx, event))
	user := &models.User{Name: "Pat Buyer", Email: "buyer@x.com"}
	require.NoError(t, store.Users.Create(ctx, user))

	return &fixture{
		store:     store,
		publisher: publisher,
		clock:     fake,
		event:     event,
		user:      user,
		deps: Deps{
			Bookings:  store.Bookings,
			Events:    store.Events,
			Users:     store.Users,
			Publisher: publisher,
			Codes:     ticketcode.NewGenerator(store.Bookings),
			Renderer:  ticketpdf.NewComposer(qr.NewRenderer(), ticketpdf.DefaultOptions()),
			Clock:     fake,
		},
	}
}

func (f *fixture) booking(t *testing.T, quantity int, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		EventID:    f.event.ID,
		UserID:     f.user.ID,
		Quantity:   quantity,
		TotalPrice: f.event.Price * int64(quantity),
		Status:     status,
	}
	for i := 0; i < quantity; i++ {
		b.AttendeeDetails = append(b.AttendeeDetails, models.Attendee{Name: "Guest", Email: "guest@x.com"})
	}
	require.NoError(t, f.store.Bookings.Create(context.Background(), b))
	return b
}

// confirmed creates a booking and issues its tickets
func (f *fixture) confirmed(t *testing.T, quantity int) *models.Booking {
	t.Helper()
	b := f.booking(t, quantity, models.BookingPending)
	_, err := NewTicketService(f.deps).ConfirmBooking(context.Background(), b.ID, "pay-"+b.ID)
	require.NoError(t, err)

	got, err := f.store.Bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	return got
}

var errBroker = errors.New("broker unavailable")
