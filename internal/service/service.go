package service

import (
	"context"

	"eventhub/internal/clock"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
	"eventhub/internal/ticketpdf"
)

type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	FindByTicketNumber(ctx context.Context, number string) (*models.Booking, error)
	AssignTickets(ctx context.Context, bookingID string, numbers []string, paymentID string) error
	AppendVerification(ctx context.Context, bookingID string, entry models.VerificationEntry) error
	CancelTicket(ctx context.Context, bookingID, number string) error
	IncrementDownloads(ctx context.Context, bookingID string) error
}

type EventStore interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Publisher interface {
	Publish(subject string, data interface{}) error
}

type CodeGenerator interface {
	Generate(ctx context.Context, bookingID string, quantity int) ([]string, error)
}

type DocumentRenderer interface {
	RenderTo(doc ticketpdf.Document, filename string, sink ticketpdf.Sink) error
}

// NewsletterSender is satisfied by *notify.Dispatcher
type NewsletterSender interface {
	SendNewsletterEmail(ctx context.Context, email, name, kind string, data map[string]string) error
}

// Deps wires the services to their collaborators
type Deps struct {
	Bookings   BookingStore
	Events     EventStore
	Users      UserStore
	Publisher  Publisher
	Codes      CodeGenerator
	Renderer   DocumentRenderer
	Newsletter NewsletterSender
	Metrics    *metrics.Metrics
	Clock      clock.Clock

	// SingleUseEntry denies a ticket that already has an approved scan
	SingleUseEntry bool
}

type Services struct {
	Tickets      *TicketService
	Verification *VerificationService
	Newsletter   NewsletterSender
}

func NewServices(d Deps) *Services {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}

	return &Services{
		Tickets:      NewTicketService(d),
		Verification: NewVerificationService(d),
		Newsletter:   d.Newsletter,
	}
}
