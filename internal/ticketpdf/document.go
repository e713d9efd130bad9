package ticketpdf

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"eventhub/internal/models"
)

var (
	ErrEmptyDocument = errors.New("ticket document has no tickets")
	ErrTicketIndex   = errors.New("ticket index out of range")
)

// Mode selects how many of the booking's tickets a document carries
type Mode int

const (
	ModeFullBooking Mode = iota
	ModeSingleTicket
)

func (m Mode) String() string {
	if m == ModeSingleTicket {
		return "single"
	}
	return "full"
}

// Ticket is one card of the document. Index is the 1-based position of
// the ticket within its booking.
type Ticket struct {
	Index    int
	Number   string
	Attendee models.Attendee
}

// Document is the value rendered by the Composer
type Document struct {
	Booking *models.Booking
	Event   *models.Event
	Tickets []Ticket
	Mode    Mode
}

// FullBooking builds a document holding every ticket of the booking
func FullBooking(booking *models.Booking, event *models.Event) Document {
	tickets := make([]Ticket, 0, len(booking.TicketNumbers))
	for i, number := range booking.TicketNumbers {
		tickets = append(tickets, Ticket{
			Index:    i + 1,
			Number:   number,
			Attendee: booking.Attendee(i),
		})
	}
	return Document{Booking: booking, Event: event, Tickets: tickets, Mode: ModeFullBooking}
}

// SingleTicket builds a document holding only ticket i (0-based)
func SingleTicket(booking *models.Booking, event *models.Event, i int) (Document, error) {
	if i < 0 || i >= len(booking.TicketNumbers) {
		return Document{}, ErrTicketIndex
	}
	return Document{
		Booking: booking,
		Event:   event,
		Tickets: []Ticket{{Index: i + 1, Number: booking.TicketNumbers[i], Attendee: booking.Attendee(i)}},
		Mode:    ModeSingleTicket,
	}, nil
}

func (d Document) validate() error {
	if d.Booking == nil || d.Event == nil {
		return errors.New("ticket document requires booking and event")
	}
	if len(d.Tickets) == 0 {
		return ErrEmptyDocument
	}
	return nil
}

func (d Document) quantity() int {
	if d.Mode == ModeSingleTicket {
		return len(d.Tickets)
	}
	return d.Booking.Quantity
}

func (d Document) total() int64 {
	if d.Mode == ModeSingleTicket {
		return d.Event.Price * int64(len(d.Tickets))
	}
	return d.Booking.TotalPrice
}

// FormatEventDate renders the long form used on tickets and emails,
// e.g. "January 5, 2025 at 07:30 PM".
func FormatEventDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("January 2, 2006 at 03:04 PM")
}

// Slug lower-cases s and joins its alphanumeric runs with '-'
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "event"
	}
	return b.String()
}

// DownloadFilename names an on-demand download
func DownloadFilename(event *models.Event, now time.Time) string {
	return fmt.Sprintf("%s-tickets-%d.pdf", Slug(event.Title), now.Unix())
}

// AttachmentFilename names the email attachment of a booking
func AttachmentFilename(booking *models.Booking) string {
	return fmt.Sprintf("tickets-%s.pdf", booking.ShortRef())
}

// TicketFilename names a single-ticket attachment
func TicketFilename(booking *models.Booking, index int) string {
	return fmt.Sprintf("tickets-%s-%d.pdf", booking.ShortRef(), index)
}
