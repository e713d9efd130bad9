package repository

import (
	"context"
	"testing"
	"time"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingBooking(t *testing.T, store *MemoryStore, quantity int) *models.Booking {
	t.Helper()
	booking := &models.Booking{EventID: "evt-1", UserID: "user-1", Quantity: quantity}
	require.NoError(t, store.Bookings.Create(context.Background(), booking))
	return booking
}

func TestMemoryAssignTickets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	booking := pendingBooking(t, store, 2)

	require.NoError(t, store.Bookings.AssignTickets(ctx, booking.ID, []string{"A-01-X", "A-02-Y"}, "pay-1"))

	got, err := store.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Equal(t, []string{"A-01-X", "A-02-Y"}, got.TicketNumbers)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay-1", *got.PaymentID)

	err = store.Bookings.AssignTickets(ctx, booking.ID, []string{"A-01-Z"}, "pay-2")
	assert.ErrorIs(t, err, apperrors.ErrTicketsAlreadyIssued)

	existing, err := store.Bookings.ExistingCodes(ctx, []string{"A-01-X", "B-01-Q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A-01-X"}, existing)

	found, err := store.Bookings.FindByTicketNumber(ctx, "A-02-Y")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, booking.ID, found.ID)
}

func TestMemoryAssignTicketsConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := pendingBooking(t, store, 1)
	second := pendingBooking(t, store, 1)

	require.NoError(t, store.Bookings.AssignTickets(ctx, first.ID, []string{"SAME-01-CODE"}, "pay-1"))

	err := store.Bookings.AssignTickets(ctx, second.ID, []string{"SAME-01-CODE"}, "pay-2")
	assert.ErrorIs(t, err, apperrors.ErrTicketCodeConflict)

	got, err := store.Bookings.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, got.Status)
	assert.Empty(t, got.TicketNumbers)
}

func TestMemoryCancelAndLedger(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	booking := pendingBooking(t, store, 1)
	require.NoError(t, store.Bookings.AssignTickets(ctx, booking.ID, []string{"C-01-X"}, "pay-1"))

	require.NoError(t, store.Bookings.CancelTicket(ctx, booking.ID, "C-01-X"))
	require.NoError(t, store.Bookings.CancelTicket(ctx, booking.ID, "C-01-X"))
	assert.ErrorIs(t, store.Bookings.CancelTicket(ctx, booking.ID, "C-99-X"), apperrors.ErrTicketNotInBooking)
	assert.ErrorIs(t, store.Bookings.CancelTicket(ctx, "missing", "C-01-X"), apperrors.ErrBookingNotFound)

	entry := models.VerificationEntry{TicketNumber: "C-01-X", VerifiedAt: time.Now(), VerifiedBy: "gate", Status: models.VerificationDenied, Reason: models.ReasonCancelled}
	require.NoError(t, store.Bookings.AppendVerification(ctx, booking.ID, entry))

	got, err := store.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C-01-X"}, got.CancelledTickets)
	assert.Len(t, got.VerifiedTickets, 1)

	got.VerifiedTickets = nil
	entries, err := store.Bookings.Verifications(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryMissingRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	b, err := store.Bookings.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, b)

	e, err := store.Events.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, e)

	u, err := store.Users.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, u)
}
