package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TicketsIssued     prometheus.Counter
	EmailsSent        *prometheus.CounterVec
	EmailAttempts     prometheus.Counter
	Verifications     *prometheus.CounterVec
	PDFRenderFailures prometheus.Counter
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TicketsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "tickets_issued_total",
			Help:      "Ticket numbers assigned to confirmed bookings.",
		}),
		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "emails_sent_total",
			Help:      "Outbound emails by kind and final outcome.",
		}, []string{"kind", "outcome"}),
		EmailAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "email_send_attempts_total",
			Help:      "Individual transport send attempts, including retries.",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "ticket_verifications_total",
			Help:      "Ticket check-in attempts by status and reason.",
		}, []string{"status", "reason"}),
		PDFRenderFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "eventhub",
			Name:      "pdf_render_failures_total",
			Help:      "Ticket documents that could not be rendered.",
		}),
	}
}

func (m *Metrics) IssuedTickets(n int) {
	if m == nil {
		return
	}
	m.TicketsIssued.Add(float64(n))
}

func (m *Metrics) EmailOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) EmailAttempt() {
	if m == nil {
		return
	}
	m.EmailAttempts.Inc()
}

func (m *Metrics) Verification(status, reason string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(status, reason).Inc()
}

func (m *Metrics) PDFRenderFailed() {
	if m == nil {
		return
	}
	m.PDFRenderFailures.Inc()
}
