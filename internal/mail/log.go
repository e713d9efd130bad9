package mail

import (
	"context"

	"eventhub/internal/logger"
)

// LogTransport logs messages instead of sending them
type LogTransport struct{}

func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		names = append(names, att.Filename)
	}

	logger.WithContext(ctx).Info("Mock email",
		"from", msg.From,
		"recipient", msg.To,
		"subject", msg.Subject,
		"attachments", names)
	return nil
}
