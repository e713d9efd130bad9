// Package notify sends the booking pipeline's outbound email: purchaser
// confirmations, per-attendee tickets, payment failures and newsletters.
//
// A Dispatcher is constructed once at startup and shared; it holds no
// per-booking state. Every send goes through the same retry loop with
// linear backoff, and attendee emails of one booking are throttled by a
// fixed delay between messages.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/clock"
	"eventhub/internal/logger"
	"eventhub/internal/mail"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
	"eventhub/internal/ticketpdf"
)

// Metric kinds
const (
	kindPurchaser     = "booking_confirmation"
	kindAttendee      = "attendee_ticket"
	kindPaymentFailed = "payment_failed"
	kindNewsletter    = "newsletter"
)

type Config struct {
	From              string
	BrandName         string
	SupportEmail      string
	MaxAttempts       int
	BaseDelay         time.Duration
	InterMessageDelay time.Duration
	Location          *time.Location
	Currency          ticketpdf.Currency
}

func DefaultConfig() Config {
	return Config{
		From:              "EventHub <tickets@eventhub.local>",
		BrandName:         "EventHub",
		SupportEmail:      "support@eventhub.local",
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		InterMessageDelay: 2 * time.Second,
		Location:          time.UTC,
		Currency:          ticketpdf.DefaultCurrency,
	}
}

// RecipientBudget is the longest a single recipient can hold a booking
// fan-out when every attempt runs into perAttempt transport timeout:
// the throttle pause, all attempts and the linear backoff between them.
func (c Config) RecipientBudget(perAttempt time.Duration) time.Duration {
	budget := c.InterMessageDelay + time.Duration(c.MaxAttempts)*perAttempt
	for attempt := 1; attempt < c.MaxAttempts; attempt++ {
		budget += time.Duration(attempt) * c.BaseDelay
	}
	return budget
}

// Renderer produces ticket PDFs. *ticketpdf.Composer satisfies it.
type Renderer interface {
	Render(doc ticketpdf.Document) ([]byte, error)
}

type Option func(*Dispatcher)

func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

func WithLedger(l DeliveryLedger) Option {
	return func(d *Dispatcher) { d.ledger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

type Dispatcher struct {
	cfg       Config
	transport mail.Transport
	renderer  Renderer
	clock     clock.Clock
	ledger    DeliveryLedger
	metrics   *metrics.Metrics
}

func NewDispatcher(cfg Config, transport mail.Transport, renderer Renderer, opts ...Option) *Dispatcher {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BrandName == "" {
		cfg.BrandName = defaults.BrandName
	}
	if cfg.From == "" {
		cfg.From = defaults.From
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = defaults.SupportEmail
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Currency.Code == "" {
		cfg.Currency = defaults.Currency
	}

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
		clock:     clock.Real(),
		ledger:    NewMemoryLedger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// send delivers msg, retrying failed attempts. Attempt k failing waits
// BaseDelay*k before attempt k+1; the last error is returned once all
// attempts are spent.
func (d *Dispatcher) send(ctx context.Context, msg mail.Message) error {
	log := logger.WithContext(ctx).With("recipient", msg.To, "subject", msg.Subject)

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		d.metrics.EmailAttempt()

		lastErr = d.transport.Send(ctx, msg)
		if lastErr == nil {
			if attempt > 1 {
				log.Info("Email sent after retry", "attempt", attempt)
			}
			return nil
		}

		log.Warn("Email send attempt failed",
			"attempt", attempt,
			"max_attempts", d.cfg.MaxAttempts,
			"error", lastErr)

		if attempt < d.cfg.MaxAttempts {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("email send cancelled: %w", err)
			}
			d.clock.Sleep(time.Duration(attempt) * d.cfg.BaseDelay)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", d.cfg.MaxAttempts, lastErr)
}

// deliver sends msg once per ledger key. An already claimed key is
// reported as delivered without sending.
func (d *Dispatcher) deliver(ctx context.Context, log *slog.Logger, key, kind string, msg mail.Message) error {
	claimed, err := d.ledger.Claim(ctx, key)
	if err != nil {
		log.Warn("Delivery ledger unavailable, sending without claim", "key", key, "error", err)
		claimed = true
	}
	if !claimed {
		log.Info("Email already delivered, skipping", "key", key, "recipient", msg.To)
		d.metrics.EmailOutcome(kind, "skipped")
		return nil
	}

	if err := d.send(ctx, msg); err != nil {
		if relErr := d.ledger.Release(ctx, key); relErr != nil {
			log.Warn("Failed to release delivery claim", "key", key, "error", relErr)
		}
		d.metrics.EmailOutcome(kind, "failed")
		return err
	}

	d.metrics.EmailOutcome(kind, "sent")
	return nil
}

type ticketLine struct {
	Index  int
	Number string
	Name   string
}

type messageData struct {
	Brand     string
	Support   string
	Name      string
	Purchaser string
	Event     *models.Event
	Date      string
	Reference string
	Total     string
	Tickets   []ticketLine
	Attached  bool
	Reason    string
	Data      map[string]string
}

func (d *Dispatcher) baseData(name string, event *models.Event) messageData {
	data := messageData{
		Brand:   d.cfg.BrandName,
		Support: d.cfg.SupportEmail,
		Name:    name,
		Event:   event,
	}
	if event != nil {
		data.Date = ticketpdf.FormatEventDate(event.Date, d.cfg.Location)
	}
	return data
}

func (d *Dispatcher) compose(tmpl emailTemplate, to, subject string, data messageData, atts ...mail.Attachment) (mail.Message, error) {
	html, text, err := tmpl.render(data)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		From:        d.cfg.From,
		To:          to,
		Subject:     subject,
		HTML:        html,
		Text:        text,
		Attachments: atts,
	}, nil
}

// renderAttachment returns the PDF for doc, or nil when it cannot be
// rendered. The email goes out without it in that case.
func (d *Dispatcher) renderAttachment(log *slog.Logger, doc ticketpdf.Document, filename string) []mail.Attachment {
	data, err := d.renderer.Render(doc)
	if err != nil {
		d.metrics.PDFRenderFailed()
		log.Error("Failed to render ticket PDF, sending without attachment",
			"mode", doc.Mode.String(),
			"error", err)
		return nil
	}
	return []mail.Attachment{{Filename: filename, ContentType: "application/pdf", Data: data}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendBookingConfirmation mails the purchaser every ticket of the
// booking, then mails each attendee with a different address their own
// ticket. It reports whether the purchaser email was delivered and
// never returns an error; attendee failures are only logged.
func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, booking *models.Booking, event *models.Event, user *models.User) (ok bool) {
	if booking == nil || event == nil || user == nil {
		logger.WithContext(ctx).Error("Booking confirmation requires booking, event and user")
		return false
	}

	log := logger.WithBooking(ctx, booking.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Booking confirmation email panicked", "panic", r)
			ok = false
		}
	}()

	if booking.Status != models.BookingConfirmed || len(booking.TicketNumbers) == 0 {
		log.Error("Booking is not ready for confirmation email",
			"status", booking.Status,
			"tickets", len(booking.TicketNumbers))
		return false
	}

	doc := ticketpdf.FullBooking(booking, event)
	data := d.baseData(user.Name, event)
	data.Reference = booking.ShortRef()
	data.Total = d.cfg.Currency.Format(booking.TotalPrice, false)
	for _, t := range doc.Tickets {
		name := t.Attendee.Name
		if name == "" {
			name = user.Name
		}
		data.Tickets = append(data.Tickets, ticketLine{Index: t.Index, Number: t.Number, Name: name})
	}

	atts := d.renderAttachment(log, doc, ticketpdf.AttachmentFilename(booking))
	data.Attached = len(atts) > 0

	subject := fmt.Sprintf("Your tickets for %s - Booking %s", event.Title, booking.ShortRef())
	msg, err := d.compose(bookingConfirmationTemplate, user.Email, subject, data, atts...)
	if err != nil {
		log.Error("Failed to compose booking confirmation email", "error", err)
		return false
	}

	key := fmt.Sprintf("booking:%s:purchaser", booking.ID)
	if err := d.deliver(ctx, log, key, kindPurchaser, msg); err != nil {
		log.Error("Failed to send booking confirmation email", "recipient", user.Email, "error", err)
		return false
	}
	log.Info("Booking confirmation email sent", "recipient", user.Email, "tickets", len(booking.TicketNumbers))

	purchaser := normalizeEmail(user.Email)
	for i, number := range booking.TicketNumbers {
		attendee := booking.Attendee(i)
		email := normalizeEmail(attendee.Email)
		if email == "" || email == purchaser {
			continue
		}

		d.clock.Sleep(d.cfg.InterMessageDelay)

		if err := d.sendAttendeeTicket(ctx, log, booking, event, user, i); err != nil {
			log.Error("Failed to send attendee ticket email",
				"ticket_number", number,
				"recipient", attendee.Email,
				"error", err)
			continue
		}
		log.Info("Attendee ticket email sent", "ticket_number", number, "recipient", attendee.Email)
	}

	return true
}

func (d *Dispatcher) sendAttendeeTicket(ctx context.Context, log *slog.Logger, booking *models.Booking, event *models.Event, user *models.User, i int) error {
	doc, err := ticketpdf.SingleTicket(booking, event, i)
	if err != nil {
		return err
	}
	ticket := doc.Tickets[0]

	name := ticket.Attendee.Name
	if name == "" {
		name = "there"
	}
	data := d.baseData(name, event)
	data.Purchaser = user.Name
	data.Tickets = []ticketLine{{Index: ticket.Index, Number: ticket.Number, Name: ticket.Attendee.Name}}

	atts := d.renderAttachment(log.With("ticket_number", ticket.Number), doc, ticketpdf.TicketFilename(booking, ticket.Index))
	data.Attached = len(atts) > 0

	subject := fmt.Sprintf("Your ticket for %s", event.Title)
	msg, err := d.compose(attendeeTicketTemplate, strings.TrimSpace(ticket.Attendee.Email), subject, data, atts...)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("booking:%s:ticket:%s", booking.ID, ticket.Number)
	return d.deliver(ctx, log, key, kindAttendee, msg)
}

// SendPaymentFailureEmail tells the user their payment did not go
// through. Like SendBookingConfirmation it only reports success.
func (d *Dispatcher) SendPaymentFailureEmail(ctx context.Context, user *models.User, event *models.Event, reason string) bool {
	if user == nil || event == nil {
		logger.WithContext(ctx).Error("Payment failure email requires user and event")
		return false
	}

	log := logger.WithContext(ctx).With("event_id", event.ID, "user_id", user.ID)

	if reason == "" {
		reason = "The payment was declined."
	}
	data := d.baseData(user.Name, event)
	data.Reason = reason

	msg, err := d.compose(paymentFailedTemplate, user.Email, fmt.Sprintf("Payment failed for %s", event.Title), data)
	if err != nil {
		log.Error("Failed to compose payment failure email", "error", err)
		return false
	}

	if err := d.send(ctx, msg); err != nil {
		d.metrics.EmailOutcome(kindPaymentFailed, "failed")
		log.Error("Failed to send payment failure email", "recipient", user.Email, "error", err)
		return false
	}

	d.metrics.EmailOutcome(kindPaymentFailed, "sent")
	log.Info("Payment failure email sent", "recipient", user.Email)
	return true
}

// SendNewsletterEmail sends one newsletter of the given kind. Unlike the
// booking emails, the final delivery error is returned to the caller.
func (d *Dispatcher) SendNewsletterEmail(ctx context.Context, email, name, kind string, data map[string]string) error {
	tmpl, ok := newsletterTemplates[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNewsletterKind, kind)
	}

	if name == "" {
		name = "there"
	}
	md := d.baseData(name, nil)
	md.Data = data

	msg, err := d.compose(tmpl, email, d.newsletterSubject(kind, data), md)
	if err != nil {
		return err
	}

	if err := d.send(ctx, msg); err != nil {
		d.metrics.EmailOutcome(kindNewsletter, "failed")
		return err
	}

	d.metrics.EmailOutcome(kindNewsletter, "sent")
	logger.WithContext(ctx).Info("Newsletter sent", "kind", kind, "recipient", email)
	return nil
}

func (d *Dispatcher) newsletterSubject(kind string, data map[string]string) string {
	switch kind {
	case NewsletterWelcome:
		return fmt.Sprintf("Welcome to %s", d.cfg.BrandName)
	case NewsletterEventAnnouncement:
		if title := data["title"]; title != "" {
			return fmt.Sprintf("New on %s: %s", d.cfg.BrandName, title)
		}
		return fmt.Sprintf("New events on %s", d.cfg.BrandName)
	default:
		return fmt.Sprintf("Your weekly %s digest", d.cfg.BrandName)
	}
}
