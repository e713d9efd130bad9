package ticketpdf

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/qr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEncoder struct{}

func (failingEncoder) Encode(string) ([]byte, error) {
	return nil, errors.New("encoder offline")
}

func testBooking(quantity int) (*models.Booking, *models.Event) {
	event := &models.Event{
		ID:       "evt-1",
		Title:    "Rock & Roll Night 2025!",
		Date:     time.Date(2025, time.January, 5, 19, 30, 0, 0, time.UTC),
		Location: "Main Hall",
		Price:    150000,
	}

	booking := &models.Booking{
		ID:         "8f14e45f-ceea-4671-a6b2-7c1d2e3f4a5b",
		EventID:    event.ID,
		UserID:     "user-1",
		Quantity:   quantity,
		TotalPrice: event.Price * int64(quantity),
		Status:     models.BookingConfirmed,
	}
	for i := 0; i < quantity; i++ {
		booking.TicketNumbers = append(booking.TicketNumbers, fmt.Sprintf("3F4A5B-%02d-ABCDEFGH", i+1))
		booking.AttendeeDetails = append(booking.AttendeeDetails, models.Attendee{
			Name:  "Attendee " + strconv.Itoa(i+1),
			Email: fmt.Sprintf("a%d@example.com", i+1),
		})
	}
	return booking, event
}

func uncompressedComposer(encoder QREncoder) *Composer {
	opts := DefaultOptions()
	opts.Uncompressed = true
	return NewComposer(encoder, opts)
}

func TestRenderSectionOrder(t *testing.T) {
	booking, event := testBooking(1)
	composer := uncompressedComposer(qr.NewRenderer())

	data, layout, err := composer.RenderWithLayout(FullBooking(booking, event))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	assert.Equal(t, []string{
		SectionHeader,
		SectionEvent,
		SectionReference,
		SectionTicket,
		SectionSummary,
		SectionNotes,
		SectionFooter,
	}, layout.Sections)
	assert.Equal(t, 1, layout.Pages)
	assert.Empty(t, layout.MissingQR)
}

func TestRenderCardsNeverCrossPageBottom(t *testing.T) {
	booking, event := testBooking(8)
	composer := uncompressedComposer(qr.NewRenderer())

	_, layout, err := composer.RenderWithLayout(FullBooking(booking, event))
	require.NoError(t, err)

	require.Len(t, layout.Cards, 8)
	assert.Greater(t, layout.Pages, 1)

	lastPage := 0
	for i, card := range layout.Cards {
		assert.Equal(t, booking.TicketNumbers[i], card.Ticket)
		assert.LessOrEqual(t, card.Bottom, bottomLimit, "card %d overflows page %d", i+1, card.Page)
		assert.GreaterOrEqual(t, card.Page, lastPage)
		lastPage = card.Page
	}
}

func TestRenderTextContent(t *testing.T) {
	booking, event := testBooking(2)
	composer := uncompressedComposer(failingEncoder{})

	data, layout, err := composer.RenderWithLayout(FullBooking(booking, event))
	require.NoError(t, err)

	assert.Contains(t, string(data), "Ticket #1: "+booking.TicketNumbers[0])
	assert.Contains(t, string(data), "Ticket #2: "+booking.TicketNumbers[1])
	assert.Contains(t, string(data), "Booking Reference: "+booking.ShortRef())
	assert.Contains(t, string(data), "INR 3,000.00")
	assert.Contains(t, string(data), "QR unavailable")
	assert.Equal(t, booking.TicketNumbers, layout.MissingQR)
}

func TestRenderSingleTicketTotals(t *testing.T) {
	booking, event := testBooking(3)
	composer := uncompressedComposer(qr.NewRenderer())

	doc, err := SingleTicket(booking, event, 1)
	require.NoError(t, err)

	data, layout, err := composer.RenderWithLayout(doc)
	require.NoError(t, err)

	require.Len(t, layout.Cards, 1)
	assert.Equal(t, booking.TicketNumbers[1], layout.Cards[0].Ticket)
	assert.Contains(t, string(data), "Ticket #2: "+booking.TicketNumbers[1])
	assert.Contains(t, string(data), "INR 1,500.00")
	assert.NotContains(t, string(data), "INR 4,500.00")
}

func TestSingleTicketIndexOutOfRange(t *testing.T) {
	booking, event := testBooking(2)

	_, err := SingleTicket(booking, event, 2)
	assert.ErrorIs(t, err, ErrTicketIndex)

	_, err = SingleTicket(booking, event, -1)
	assert.ErrorIs(t, err, ErrTicketIndex)
}

func TestRenderEmptyDocument(t *testing.T) {
	booking, event := testBooking(0)
	composer := NewComposer(qr.NewRenderer(), DefaultOptions())

	_, err := composer.Render(FullBooking(booking, event))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestRenderMissingFontFallsBack(t *testing.T) {
	booking, event := testBooking(1)
	opts := DefaultOptions()
	opts.Uncompressed = true
	opts.UTF8FontRegular = "/nonexistent/regular.ttf"
	opts.UTF8FontBold = "/nonexistent/bold.ttf"

	data, err := NewComposer(qr.NewRenderer(), opts).Render(FullBooking(booking, event))
	require.NoError(t, err)
	assert.Contains(t, string(data), "INR 1,500.00")
}

func TestRenderToSink(t *testing.T) {
	booking, event := testBooking(1)
	composer := NewComposer(qr.NewRenderer(), DefaultOptions())

	sink := &BufferSink{}
	require.NoError(t, composer.RenderTo(FullBooking(booking, event), AttachmentFilename(booking), sink))
	assert.Equal(t, "tickets-2E3F4A5B.pdf", sink.Filename)
	assert.True(t, bytes.HasPrefix(sink.Data, []byte("%PDF-")))

	empty := &BufferSink{}
	booking.TicketNumbers = nil
	err := composer.RenderTo(FullBooking(booking, event), "x.pdf", empty)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Empty(t, empty.Filename)
}

func TestDownloadSink(t *testing.T) {
	w := httptest.NewRecorder()

	err := DownloadSink{W: w}.Deliver("rock-tickets-1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="rock-tickets-1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", w.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestFilenames(t *testing.T) {
	booking, event := testBooking(2)
	now := time.Unix(1736100000, 0)

	assert.Equal(t, "rock-roll-night-2025-tickets-1736100000.pdf", DownloadFilename(event, now))
	assert.Equal(t, "tickets-2E3F4A5B.pdf", AttachmentFilename(booking))
	assert.Equal(t, "tickets-2E3F4A5B-2.pdf", TicketFilename(booking, 2))
	assert.Equal(t, "event", Slug("!!!"))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "999.99", FormatAmount(99999))
	assert.Equal(t, "1,500.00", FormatAmount(150000))
	assert.Equal(t, "1,234,567.89", FormatAmount(123456789))
	assert.Equal(t, "-12.05", FormatAmount(-1205))

	assert.Equal(t, "INR 1,500.00", DefaultCurrency.Format(150000, false))
	assert.Equal(t, "₹1,500.00", DefaultCurrency.Format(150000, true))

	date := time.Date(2025, time.January, 5, 19, 30, 0, 0, time.UTC)
	assert.Equal(t, "January 5, 2025 at 07:30 PM", FormatEventDate(date, time.UTC))
}
