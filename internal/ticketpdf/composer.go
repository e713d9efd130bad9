// Package ticketpdf lays out booking tickets as a PDF document.
//
// The same Composer serves email attachments (full booking or a single
// attendee ticket) and on-demand downloads; only the Sink differs.
package ticketpdf

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"eventhub/internal/logger"

	"github.com/jung-kurt/gofpdf"
)

// Page geometry in millimetres (A4 portrait)
const (
	pageWidth    = 210.0
	margin       = 15.0
	contentWidth = pageWidth - 2*margin
	headerHeight = 32.0
	// bottomLimit is the lowest y any block may reach; the footer lives below it.
	bottomLimit = 277.0
	cardHeight  = 58.0
	cardGap     = 6.0
	qrSize      = 44.0
	labelWidth  = 28.0
)

// Section names recorded in Layout.Sections
const (
	SectionHeader    = "header"
	SectionEvent     = "event"
	SectionReference = "reference"
	SectionTicket    = "ticket"
	SectionSummary   = "summary"
	SectionNotes     = "notes"
	SectionFooter    = "footer"
)

type rgb struct{ r, g, b int }

var (
	brandColor = rgb{79, 70, 229}
	textColor  = rgb{33, 33, 33}
	mutedColor = rgb{120, 120, 120}
)

// QREncoder renders a ticket number as a PNG image
type QREncoder interface {
	Encode(content string) ([]byte, error)
}

type Options struct {
	BrandName    string
	Subtitle     string
	PlatformName string
	Currency     Currency
	Location     *time.Location
	Notes        []string
	Copyright    string

	// UTF8FontRegular and UTF8FontBold are TTF paths. When both are set
	// all text uses that font and the currency symbol is printed.
	UTF8FontRegular string
	UTF8FontBold    string

	// Uncompressed leaves page streams readable, for inspection.
	Uncompressed bool
}

func DefaultOptions() Options {
	return Options{
		BrandName:    "EventHub",
		Subtitle:     "Official E-Ticket",
		PlatformName: "EventHub",
		Currency:     DefaultCurrency,
		Location:     time.UTC,
		Notes: []string{
			"This ticket is non-transferable and valid only for the named attendee.",
			"Please arrive at least 30 minutes before the event starts.",
			"Carry a valid photo ID along with this ticket.",
			"Each QR code admits one person. Do not share it publicly.",
			"Refunds and cancellations are subject to the organizer's policy.",
		},
	}
}

// CardPlacement is where a ticket card landed
type CardPlacement struct {
	Ticket string
	Page   int
	Top    float64
	Bottom float64
}

// Layout describes the most recent render
type Layout struct {
	Pages     int
	Sections  []string
	Cards     []CardPlacement
	MissingQR []string
}

type Composer struct {
	opts Options
	qr   QREncoder
	now  func() time.Time
}

func NewComposer(encoder QREncoder, opts Options) *Composer {
	defaults := DefaultOptions()
	if opts.BrandName == "" {
		opts.BrandName = defaults.BrandName
	}
	if opts.Subtitle == "" {
		opts.Subtitle = defaults.Subtitle
	}
	if opts.PlatformName == "" {
		opts.PlatformName = opts.BrandName
	}
	if opts.Currency.Code == "" {
		opts.Currency = defaults.Currency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Notes == nil {
		opts.Notes = defaults.Notes
	}

	return &Composer{opts: opts, qr: encoder, now: time.Now}
}

// Render returns the document as PDF bytes
func (c *Composer) Render(doc Document) ([]byte, error) {
	data, _, err := c.RenderWithLayout(doc)
	return data, err
}

// RenderTo renders the document and hands it to sink. Nothing reaches
// the sink when rendering fails.
func (c *Composer) RenderTo(doc Document, filename string, sink Sink) error {
	data, err := c.Render(doc)
	if err != nil {
		return err
	}
	return sink.Deliver(filename, data)
}

// RenderWithLayout is Render that also reports where each block landed
func (c *Composer) RenderWithLayout(doc Document) ([]byte, Layout, error) {
	if err := doc.validate(); err != nil {
		return nil, Layout{}, err
	}

	p := c.newPage(doc)

	p.header()
	p.eventDetails(doc)
	p.reference(doc)
	for _, ticket := range doc.Tickets {
		p.card(ticket)
	}
	p.summary(doc)
	p.notes()

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, Layout{}, fmt.Errorf("failed to render ticket pdf: %w", err)
	}

	p.layout.Sections = append(p.layout.Sections, SectionFooter)
	p.layout.Pages = p.pdf.PageCount()
	return buf.Bytes(), p.layout, nil
}

type page struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	font   string
	glyphs bool
	opts   Options
	qr     QREncoder
	log    *slog.Logger
	layout Layout
}

func (c *Composer) newPage(doc Document) *page {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(!c.opts.Uncompressed)
	pdf.SetCreationDate(c.now())
	pdf.SetTitle(fmt.Sprintf("%s - %s", c.opts.BrandName, doc.Event.Title), true)
	pdf.SetAuthor(c.opts.BrandName, true)
	pdf.SetCreator(c.opts.BrandName, true)

	p := &page{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		font: "Helvetica",
		opts: c.opts,
		qr:   c.qr,
		log:  logger.WithFields("booking_id", doc.Booking.ID, "mode", doc.Mode.String()),
	}
	p.loadUTF8Font()

	copyright := c.opts.Copyright
	if copyright == "" {
		copyright = fmt.Sprintf("© %d %s. All rights reserved.", c.now().Year(), c.opts.BrandName)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(margin, bottomLimit+3, pageWidth-margin, bottomLimit+3)
		pdf.SetY(-15)
		pdf.SetFont(p.font, "I", 9)
		pdf.SetTextColor(mutedColor.r, mutedColor.g, mutedColor.b)
		pdf.CellFormat(contentWidth, 8, p.tr(copyright), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	return p
}

// loadUTF8Font switches to the configured TTF font, falling back to the
// built-in Helvetica when it cannot be loaded.
func (p *page) loadUTF8Font() {
	if p.opts.UTF8FontRegular == "" || p.opts.UTF8FontBold == "" {
		return
	}

	const family = "ticketfont"
	p.pdf.AddUTF8Font(family, "", p.opts.UTF8FontRegular)
	p.pdf.AddUTF8Font(family, "I", p.opts.UTF8FontRegular)
	p.pdf.AddUTF8Font(family, "B", p.opts.UTF8FontBold)
	if !p.pdf.Ok() {
		p.log.Warn("Failed to load ticket font, using built-in font", "error", p.pdf.Error())
		p.pdf.ClearError()
		return
	}

	p.font = family
	p.glyphs = true
	p.tr = func(s string) string { return s }
}

func (p *page) setTextColor(c rgb) {
	p.pdf.SetTextColor(c.r, c.g, c.b)
}

// ensureSpace starts a new page when a block of height h would cross
// bottomLimit
func (p *page) ensureSpace(h float64) {
	if p.pdf.GetY()+h <= bottomLimit {
		return
	}
	p.pdf.AddPage()
	p.pdf.SetY(margin)
}

func (p *page) header() {
	p.pdf.SetFillColor(brandColor.r, brandColor.g, brandColor.b)
	p.pdf.Rect(0, 0, pageWidth, headerHeight, "F")

	p.setTextColor(rgb{255, 255, 255})
	p.pdf.SetFont(p.font, "B", 24)
	p.pdf.SetXY(margin, 7)
	p.pdf.CellFormat(contentWidth, 11, p.tr(p.opts.BrandName), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 12)
	p.pdf.SetX(margin)
	p.pdf.CellFormat(contentWidth, 7, p.tr(p.opts.Subtitle), "", 1, "L", false, 0, "")

	p.setTextColor(textColor)
	p.pdf.SetY(headerHeight + 8)
	p.layout.Sections = append(p.layout.Sections, SectionHeader)
}

func (p *page) sectionTitle(title string) {
	p.pdf.SetFont(p.font, "B", 13)
	p.pdf.SetFillColor(240, 240, 245)
	p.pdf.SetX(margin)
	p.pdf.CellFormat(contentWidth, 8, p.tr(title), "", 1, "L", true, 0, "")
	p.pdf.Ln(2)
}

func (p *page) field(label, value string) {
	p.pdf.SetX(margin)
	p.pdf.SetFont(p.font, "B", 11)
	p.pdf.CellFormat(labelWidth, 6, p.tr(label+":"), "", 0, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.CellFormat(contentWidth-labelWidth, 6, p.tr(value), "", 1, "L", false, 0, "")
}

func (p *page) eventDetails(doc Document) {
	p.ensureSpace(45)
	p.sectionTitle("Event Details")

	p.pdf.SetX(margin)
	p.pdf.SetFont(p.font, "B", 16)
	p.pdf.MultiCell(contentWidth, 8, p.tr(doc.Event.Title), "", "L", false)
	p.pdf.Ln(1)

	organizer := doc.Event.OrganizerName
	if organizer == "" {
		organizer = p.opts.PlatformName
	}

	p.field("Date", FormatEventDate(doc.Event.Date, p.opts.Location))
	p.field("Location", doc.Event.Location)
	p.field("Organizer", organizer)
	p.pdf.Ln(4)
	p.layout.Sections = append(p.layout.Sections, SectionEvent)
}

func (p *page) reference(doc Document) {
	p.ensureSpace(16)
	p.pdf.SetX(margin)
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.SetFillColor(255, 248, 225)
	p.pdf.SetDrawColor(240, 200, 120)
	p.pdf.CellFormat(contentWidth, 10, p.tr("Booking Reference: "+doc.Booking.ShortRef()), "1", 1, "C", true, 0, "")
	p.pdf.Ln(6)
	p.layout.Sections = append(p.layout.Sections, SectionReference)
}

func (p *page) card(ticket Ticket) {
	p.ensureSpace(cardHeight)
	top := p.pdf.GetY()

	p.pdf.SetDrawColor(brandColor.r, brandColor.g, brandColor.b)
	p.pdf.SetLineWidth(0.5)
	p.pdf.Rect(margin, top, contentWidth, cardHeight, "D")
	p.pdf.SetLineWidth(0.2)

	textX := margin + 6
	textWidth := contentWidth - qrSize - 18

	name := ticket.Attendee.Name
	if name == "" {
		name = "Guest"
	}

	p.pdf.SetXY(textX, top+8)
	p.pdf.SetFont(p.font, "B", 13)
	p.pdf.CellFormat(textWidth, 8, p.tr(fmt.Sprintf("Ticket #%d: %s", ticket.Index, ticket.Number)), "", 1, "L", false, 0, "")

	p.pdf.SetFont(p.font, "", 11)
	p.pdf.SetX(textX)
	p.pdf.CellFormat(textWidth, 7, p.tr("Attendee: "+name), "", 1, "L", false, 0, "")
	if ticket.Attendee.Email != "" {
		p.pdf.SetX(textX)
		p.pdf.CellFormat(textWidth, 7, p.tr("Email: "+ticket.Attendee.Email), "", 1, "L", false, 0, "")
	}

	p.pdf.SetX(textX)
	p.pdf.SetFont(p.font, "I", 9)
	p.setTextColor(mutedColor)
	p.pdf.CellFormat(textWidth, 7, p.tr("Present this QR code at the entrance."), "", 1, "L", false, 0, "")
	p.setTextColor(textColor)

	p.qrImage(ticket.Number, margin+contentWidth-qrSize-6, top+(cardHeight-qrSize)/2)

	p.pdf.SetY(top + cardHeight + cardGap)
	p.layout.Sections = append(p.layout.Sections, SectionTicket)
	p.layout.Cards = append(p.layout.Cards, CardPlacement{
		Ticket: ticket.Number,
		Page:   p.pdf.PageNo(),
		Top:    top,
		Bottom: top + cardHeight,
	})
}

// qrImage draws the ticket's QR code, or a dashed placeholder when the
// image cannot be produced. The printed ticket number stays valid either way.
func (p *page) qrImage(number string, x, y float64) {
	png, err := p.qr.Encode(number)
	if err == nil {
		name := "qr-" + number
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		if p.pdf.Ok() {
			p.pdf.ImageOptions(name, x, y, qrSize, qrSize, false, opts, 0, "")
			return
		}
		err = p.pdf.Error()
		p.pdf.ClearError()
	}

	p.log.Warn("Failed to render ticket QR code, using placeholder", "ticket_number", number, "error", err)
	p.layout.MissingQR = append(p.layout.MissingQR, number)

	p.pdf.SetDrawColor(160, 160, 160)
	p.pdf.SetDashPattern([]float64{1.5, 1.5}, 0)
	p.pdf.Rect(x, y, qrSize, qrSize, "D")
	p.pdf.SetDashPattern([]float64{}, 0)

	p.pdf.SetXY(x, y+qrSize/2-3)
	p.pdf.SetFont(p.font, "I", 9)
	p.setTextColor(mutedColor)
	p.pdf.CellFormat(qrSize, 6, "QR unavailable", "", 0, "C", false, 0, "")
	p.setTextColor(textColor)
}

func (p *page) summaryRow(label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetX(margin)
	p.pdf.SetFont(p.font, style, 11)
	p.pdf.CellFormat(contentWidth/2, 7, p.tr(label), "", 0, "L", false, 0, "")
	p.pdf.CellFormat(contentWidth/2, 7, p.tr(value), "", 1, "R", false, 0, "")
}

func (p *page) summary(doc Document) {
	p.ensureSpace(40)
	p.sectionTitle("Payment Summary")

	currency := p.opts.Currency
	p.summaryRow("Quantity", strconv.Itoa(doc.quantity()), false)
	p.summaryRow("Unit Price", currency.Format(doc.Event.Price, p.glyphs), false)
	p.pdf.SetDrawColor(220, 220, 220)
	p.pdf.Line(margin, p.pdf.GetY()+1, margin+contentWidth, p.pdf.GetY()+1)
	p.pdf.Ln(2)
	p.summaryRow("Total", currency.Format(doc.total(), p.glyphs), true)
	p.pdf.Ln(6)
	p.layout.Sections = append(p.layout.Sections, SectionSummary)
}

func (p *page) notes() {
	if len(p.opts.Notes) == 0 {
		return
	}

	const lineHeight = 5.5
	p.ensureSpace(14 + lineHeight*float64(len(p.opts.Notes)))
	p.sectionTitle("Important Information")

	p.pdf.SetFont(p.font, "", 10)
	for _, note := range p.opts.Notes {
		p.pdf.SetX(margin)
		p.pdf.MultiCell(contentWidth, lineHeight, p.tr("- "+note), "", "L", false)
	}
	p.layout.Sections = append(p.layout.Sections, SectionNotes)
}
