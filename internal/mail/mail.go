// Package mail delivers outbound email through a pluggable transport.
package mail

import (
	"context"
	"time"

	"eventhub/internal/logger"
)

// Config holds transport settings
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Attachment is a file carried by a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Transport sends a single message. Implementations bound every call by
// their own timeout.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// NewTransport returns the Resend transport, or a LogTransport when no
// API key is configured
func NewTransport(cfg Config) Transport {
	if cfg.APIKey == "" {
		logger.Get().Warn("RESEND_API_KEY is not set, outbound email will only be logged")
		return NewLogTransport()
	}
	return NewResendTransport(cfg)
}
