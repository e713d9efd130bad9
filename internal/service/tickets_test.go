package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
	"eventhub/internal/ticketpdf"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCodes returns the queued batches in order
type scriptedCodes struct {
	batches [][]string
	calls   int32
}

func (g *scriptedCodes) Generate(_ context.Context, _ string, _ int) ([]string, error) {
	i := atomic.AddInt32(&g.calls, 1) - 1
	if int(i) >= len(g.batches) {
		return g.batches[len(g.batches)-1], nil
	}
	return g.batches[i], nil
}

func TestConfirmBookingIssuesDistinctTickets(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.deps.Metrics = metrics.New(reg)
	svc := NewTicketService(f.deps)

	booking := f.booking(t, 3, models.BookingPending)

	resp, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingConfirmed), resp.Status)
	require.Len(t, resp.TicketNumbers, 3)

	seen := map[string]bool{}
	for _, number := range resp.TicketNumbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}

	stored, err := f.store.Bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
	assert.Equal(t, resp.TicketNumbers, stored.TicketNumbers)

	require.Equal(t, 1, f.publisher.count(models.EventBookingConfirmed))
	event := f.publisher.payloads[0].(models.BookingConfirmedEvent)
	assert.Equal(t, booking.ID, event.BookingID)
	assert.Equal(t, resp.TicketNumbers, event.TicketNumbers)
	assert.Equal(t, f.clock.Now(), event.Timestamp)

	assert.Equal(t, float64(3), testutil.ToFloat64(f.deps.Metrics.TicketsIssued))
}

func TestConfirmBookingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)
	booking := f.booking(t, 2, models.BookingPending)

	first, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
	require.NoError(t, err)
	second, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
	require.NoError(t, err)

	assert.Equal(t, first.TicketNumbers, second.TicketNumbers)
	// the repeat requeues the emails for the same tickets
	assert.Equal(t, 2, f.publisher.count(models.EventBookingConfirmed))
}

func TestConfirmBookingRejections(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)

	_, err := svc.ConfirmBooking(context.Background(), "missing", "pay-1")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)

	for _, status := range []models.BookingStatus{models.BookingCancelled, models.BookingRefunded} {
		booking := f.booking(t, 1, status)
		_, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
		assert.ErrorIs(t, err, apperrors.ErrBookingNotPayable, status)
	}
	assert.Zero(t, f.publisher.count(models.EventBookingConfirmed))
}

func TestTicketNumbersUniqueAcrossBookings(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)

	seen := map[string]string{}
	for i := 0; i < 20; i++ {
		booking := f.booking(t, 5, models.BookingPending)
		resp, err := svc.ConfirmBooking(context.Background(), booking.ID, fmt.Sprintf("pay-%d", i))
		require.NoError(t, err)
		require.Len(t, resp.TicketNumbers, 5)

		for _, number := range resp.TicketNumbers {
			owner, dup := seen[number]
			require.False(t, dup, "%s issued to %s and %s", number, owner, booking.ID)
			seen[number] = booking.ID
		}
	}
	assert.Len(t, seen, 100)
}

func TestConfirmBookingRegeneratesOnConflict(t *testing.T) {
	f := newFixture(t)
	taken := f.confirmed(t, 1)

	codes := &scriptedCodes{batches: [][]string{
		{taken.TicketNumbers[0], "FRESH-02-AAAAAAAA"},
		{"FRESH-01-BBBBBBBB", "FRESH-02-AAAAAAAA"},
	}}
	f.deps.Codes = codes
	svc := NewTicketService(f.deps)

	booking := f.booking(t, 2, models.BookingPending)
	resp, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"FRESH-01-BBBBBBBB", "FRESH-02-AAAAAAAA"}, resp.TicketNumbers)
	assert.Equal(t, int32(2), codes.calls)
}

func TestConfirmBookingFailsWhenConflictsPersist(t *testing.T) {
	f := newFixture(t)
	taken := f.confirmed(t, 1)

	codes := &scriptedCodes{batches: [][]string{{taken.TicketNumbers[0]}}}
	f.deps.Codes = codes
	svc := NewTicketService(f.deps)

	booking := f.booking(t, 1, models.BookingPending)
	_, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-2")
	assert.ErrorIs(t, err, apperrors.ErrTicketCodeConflict)
	assert.Equal(t, int32(maxAssignAttempts), codes.calls)

	stored, err := f.store.Bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
	assert.Empty(t, stored.TicketNumbers)
}

func TestConfirmBookingSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errBroker
	svc := NewTicketService(f.deps)

	booking := f.booking(t, 1, models.BookingPending)
	resp, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
	require.NoError(t, err)
	assert.Len(t, resp.TicketNumbers, 1)
	assert.Equal(t, 0, f.publisher.count(models.EventBookingConfirmed))

	f.publisher.err = nil
	again, err := svc.ConfirmBooking(context.Background(), booking.ID, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, resp.TicketNumbers, again.TicketNumbers)
	assert.Equal(t, 1, f.publisher.count(models.EventBookingConfirmed))
}

func TestMarkPaymentFailed(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)

	booking := f.booking(t, 1, models.BookingPending)
	require.NoError(t, svc.MarkPaymentFailed(context.Background(), booking.ID, "card declined"))
	require.Equal(t, 1, f.publisher.count(models.EventPaymentFailed))
	event := f.publisher.payloads[0].(models.PaymentFailedEvent)
	assert.Equal(t, "card declined", event.Reason)
	assert.Equal(t, f.user.ID, event.UserID)

	confirmed := f.confirmed(t, 1)
	assert.ErrorIs(t, svc.MarkPaymentFailed(context.Background(), confirmed.ID, "late"), apperrors.ErrBookingNotPayable)
	assert.ErrorIs(t, svc.MarkPaymentFailed(context.Background(), "missing", "x"), apperrors.ErrBookingNotFound)

	f.publisher.err = errBroker
	assert.ErrorIs(t, svc.MarkPaymentFailed(context.Background(), booking.ID, "card declined"), errBroker)
}

func TestTicketDocumentModes(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)
	booking := f.confirmed(t, 3)

	doc, event, err := svc.TicketDocument(context.Background(), booking.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, ticketpdf.ModeFullBooking, doc.Mode)
	assert.Len(t, doc.Tickets, 3)
	assert.Equal(t, f.event.Title, event.Title)

	doc, _, err = svc.TicketDocument(context.Background(), booking.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ticketpdf.ModeSingleTicket, doc.Mode)
	require.Len(t, doc.Tickets, 1)
	assert.Equal(t, 2, doc.Tickets[0].Index)
	assert.Equal(t, booking.TicketNumbers[1], doc.Tickets[0].Number)

	_, _, err = svc.TicketDocument(context.Background(), booking.ID, 4)
	assert.ErrorIs(t, err, ticketpdf.ErrTicketIndex)

	pending := f.booking(t, 1, models.BookingPending)
	_, _, err = svc.TicketDocument(context.Background(), pending.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrBookingNotConfirmed)
}

func TestDownloadTickets(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(f.deps)
	booking := f.confirmed(t, 2)

	sink := &ticketpdf.BufferSink{}
	require.NoError(t, svc.DownloadTickets(context.Background(), booking.ID, 0, sink))

	assert.Equal(t, fmt.Sprintf("city-marathon-expo-tickets-%d.pdf", f.clock.Now().Unix()), sink.Filename)
	assert.True(t, strings.HasPrefix(string(sink.Data), "%PDF-"))

	stored, err := f.store.Bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.DownloadCount)
}
