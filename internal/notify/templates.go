package notify

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

var ErrUnknownNewsletterKind = errors.New("unknown newsletter kind")

// Newsletter kinds accepted by SendNewsletterEmail
const (
	NewsletterWelcome           = "welcome"
	NewsletterEventAnnouncement = "event_announcement"
	NewsletterWeeklyDigest      = "weekly_digest"
)

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f7;font-family:Helvetica,Arial,sans-serif;color:#212121;">
<table width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;margin:0 auto;background:#ffffff;">
<tr><td style="background:#4f46e5;color:#ffffff;padding:24px;">
<h1 style="margin:0;font-size:24px;">{{.Brand}}</h1>
</td></tr>
<tr><td style="padding:24px;">{{template "content" .}}</td></tr>
<tr><td style="padding:16px 24px;font-size:12px;color:#787878;">
Questions? Contact us at <a href="mailto:{{.Support}}">{{.Support}}</a>.
</td></tr>
</table>
</body>
</html>{{end}}`

const bookingConfirmationHTML = `{{define "content"}}
<h2>Your booking is confirmed</h2>
<p>Hi {{.Name}},</p>
<p>Thank you for booking <strong>{{.Event.Title}}</strong>. Your tickets are attached to this email as a PDF.</p>
<p><strong>Date:</strong> {{.Date}}<br><strong>Location:</strong> {{.Event.Location}}<br><strong>Booking Reference:</strong> {{.Reference}}</p>
<table width="100%" cellpadding="6" cellspacing="0" style="border-collapse:collapse;border:1px solid #e0e0e0;">
<tr style="background:#f0f0f5;"><th align="left">#</th><th align="left">Ticket Number</th><th align="left">Attendee</th></tr>
{{range .Tickets}}<tr><td>{{.Index}}</td><td style="font-family:monospace;">{{.Number}}</td><td>{{.Name}}</td></tr>
{{end}}</table>
<p><strong>Total paid:</strong> {{.Total}}</p>
{{if not .Attached}}<p>Your ticket PDF could not be attached. You can download it from your bookings page.</p>{{end}}
<p>Please present the QR code of each ticket at the entrance.</p>
{{end}}`

const bookingConfirmationText = `Hi {{.Name}},

Your booking for {{.Event.Title}} is confirmed.

Date: {{.Date}}
Location: {{.Event.Location}}
Booking Reference: {{.Reference}}

Tickets:
{{range .Tickets}}  #{{.Index}} {{.Number}} - {{.Name}}
{{end}}
Total paid: {{.Total}}

Questions? Contact us at {{.Support}}.
`

const attendeeTicketHTML = `{{define "content"}}
<h2>Your ticket for {{.Event.Title}}</h2>
<p>Hi {{.Name}},</p>
<p>{{.Purchaser}} booked a ticket for you. It is attached to this email as a PDF.</p>
<p><strong>Date:</strong> {{.Date}}<br><strong>Location:</strong> {{.Event.Location}}</p>
{{range .Tickets}}<p><strong>Ticket Number:</strong> <span style="font-family:monospace;">{{.Number}}</span></p>{{end}}
{{if not .Attached}}<p>Your ticket PDF could not be attached. Please ask {{.Purchaser}} to forward the booking confirmation.</p>{{end}}
<p>Please present the QR code at the entrance.</p>
{{end}}`

const attendeeTicketText = `Hi {{.Name}},

{{.Purchaser}} booked a ticket for you for {{.Event.Title}}.

Date: {{.Date}}
Location: {{.Event.Location}}
{{range .Tickets}}Ticket Number: {{.Number}}
{{end}}
Questions? Contact us at {{.Support}}.
`

const paymentFailedHTML = `{{define "content"}}
<h2>Payment failed</h2>
<p>Hi {{.Name}},</p>
<p>We could not process your payment for <strong>{{.Event.Title}}</strong>.</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>No tickets were issued. You can try booking again at any time.</p>
{{end}}`

const paymentFailedText = `Hi {{.Name}},

We could not process your payment for {{.Event.Title}}.
Reason: {{.Reason}}

No tickets were issued. You can try booking again at any time.

Questions? Contact us at {{.Support}}.
`

const welcomeHTML = `{{define "content"}}
<h2>Welcome to {{.Brand}}</h2>
<p>Hi {{.Name}},</p>
<p>Thanks for subscribing. We will let you know about new events and the best picks of the week.</p>
{{end}}`

const welcomeText = `Hi {{.Name}},

Welcome to {{.Brand}}! We will let you know about new events and the best picks of the week.
`

const announcementHTML = `{{define "content"}}
<h2>{{index .Data "title"}}</h2>
<p>Hi {{.Name}},</p>
<p>{{index .Data "description"}}</p>
{{with index .Data "date"}}<p><strong>Date:</strong> {{.}}</p>{{end}}
{{with index .Data "location"}}<p><strong>Location:</strong> {{.}}</p>{{end}}
{{with index .Data "url"}}<p><a href="{{.}}">Book your tickets</a></p>{{end}}
{{end}}`

const announcementText = `Hi {{.Name}},

{{index .Data "title"}}
{{index .Data "description"}}
{{with index .Data "date"}}Date: {{.}}
{{end}}{{with index .Data "location"}}Location: {{.}}
{{end}}{{with index .Data "url"}}Book: {{.}}
{{end}}`

const digestHTML = `{{define "content"}}
<h2>Your weekly digest</h2>
<p>Hi {{.Name}},</p>
<p>{{index .Data "summary"}}</p>
{{with index .Data "url"}}<p><a href="{{.}}">See all events</a></p>{{end}}
{{end}}`

const digestText = `Hi {{.Name}},

Your weekly {{.Brand}} digest:
{{index .Data "summary"}}
{{with index .Data "url"}}
See all events: {{.}}
{{end}}`

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustTemplate(name, content, text string) emailTemplate {
	html := htmltemplate.Must(htmltemplate.New(name).Parse(layoutHTML))
	htmltemplate.Must(html.Parse(content))
	return emailTemplate{
		html: html,
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var (
	bookingConfirmationTemplate = mustTemplate("booking_confirmation", bookingConfirmationHTML, bookingConfirmationText)
	attendeeTicketTemplate      = mustTemplate("attendee_ticket", attendeeTicketHTML, attendeeTicketText)
	paymentFailedTemplate       = mustTemplate("payment_failed", paymentFailedHTML, paymentFailedText)

	newsletterTemplates = map[string]emailTemplate{
		NewsletterWelcome:           mustTemplate(NewsletterWelcome, welcomeHTML, welcomeText),
		NewsletterEventAnnouncement: mustTemplate(NewsletterEventAnnouncement, announcementHTML, announcementText),
		NewsletterWeeklyDigest:      mustTemplate(NewsletterWeeklyDigest, digestHTML, digestText),
	}
)

func (t emailTemplate) render(data any) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := t.html.ExecuteTemplate(&hb, "layout", data); err != nil {
		return "", "", fmt.Errorf("failed to render html body: %w", err)
	}
	if err := t.text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}
	return hb.String(), tb.String(), nil
}
