package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"eventhub/internal/notify"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Notify.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Notify.InterMessageDelay)
	assert.Equal(t, "INR", cfg.Tickets.PDF.Currency.Code)
	assert.False(t, cfg.Tickets.SingleUseEntry)
	assert.Equal(t, "ticket-verifications", cfg.Elasticsearch.Index)
	assert.False(t, cfg.Elasticsearch.Enabled())
	// 10 recipients x (2s pause + 3 x 15s timeout + 1s + 2s backoff)
	assert.Equal(t, 500*time.Second, cfg.NATS.AckWait)
}

func TestFanoutAckWait(t *testing.T) {
	deliveries := notify.DefaultConfig()

	assert.Equal(t, 50*time.Second, deliveries.RecipientBudget(15*time.Second))
	assert.Equal(t, 1000*time.Second, FanoutAckWait(deliveries, 15*time.Second, 20))
	assert.Equal(t, 2*time.Minute, FanoutAckWait(deliveries, time.Second, 1))
	assert.Equal(t, 2*time.Minute, FanoutAckWait(deliveries, time.Second, 0))

	deliveries.MaxAttempts = 5
	deliveries.BaseDelay = 2 * time.Second
	// 2s + 5 x 10s + (1+2+3+4) x 2s
	assert.Equal(t, 72*time.Second, deliveries.RecipientBudget(10*time.Second))
}

func TestExplicitAckWaitWins(t *testing.T) {
	t.Setenv("NATS_ACK_WAIT", "45s")
	assert.Equal(t, 45*time.Second, Load().NATS.AckWait)

	t.Setenv("NATS_ACK_WAIT", "")
	t.Setenv("MAX_RECIPIENTS_PER_BOOKING", "20")
	t.Setenv("MAIL_TIMEOUT", "5s")
	// 20 x (2s + 3 x 5s + 3s)
	assert.Equal(t, 400*time.Second, Load().NATS.AckWait)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE", "Memory")
	t.Setenv("BRAND_NAME", "Gigs")
	t.Setenv("CURRENCY_CODE", "USD")
	t.Setenv("CURRENCY_SYMBOL", "$")
	t.Setenv("EMAIL_RETRY_BASE_DELAY", "250ms")
	t.Setenv("EMAIL_MAX_ATTEMPTS", "5")
	t.Setenv("TICKET_SINGLE_USE", "true")
	t.Setenv("EVENT_TIMEZONE", "Asia/Kolkata")
	t.Setenv("NATS_ACK_WAIT", "not-a-duration")
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")

	cfg := Load()

	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "Gigs", cfg.Tickets.PDF.BrandName)
	assert.Equal(t, "Gigs", cfg.Notify.BrandName)
	assert.Equal(t, "$", cfg.Notify.Currency.Symbol)
	assert.Equal(t, "USD", cfg.Tickets.PDF.Currency.Code)
	assert.Equal(t, 250*time.Millisecond, cfg.Notify.BaseDelay)
	assert.Equal(t, 5, cfg.Notify.MaxAttempts)
	assert.True(t, cfg.Tickets.SingleUseEntry)
	assert.Equal(t, "Asia/Kolkata", cfg.Notify.Location.String())
	// invalid value falls back to the derived fan-out wait
	// 10 x (2s + 5 x 15s + (1+2+3+4) x 250ms)
	assert.Equal(t, 795*time.Second, cfg.NATS.AckWait)
	assert.True(t, cfg.Elasticsearch.Enabled())
}
