package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IssuedTickets(3)
	m.EmailOutcome("confirmation", "sent")
	m.EmailAttempt()
	m.EmailAttempt()
	m.Verification("denied", "cancelled")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TicketsIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("confirmation", "sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmailAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("denied", "cancelled")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IssuedTickets(1)
		m.EmailOutcome("newsletter", "failed")
		m.EmailAttempt()
		m.Verification("approved", "")
		m.PDFRenderFailed()
	})
}
