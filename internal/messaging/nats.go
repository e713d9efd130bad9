package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

// Handler processes one message payload. Returning nil acknowledges the
// message; an error leaves it unacknowledged for redelivery.
type Handler func(ctx context.Context, data []byte) error

// Bus is what publishers and workers need from the message broker
type Bus interface {
	Publish(subject string, data interface{}) error
	SubscribeQueue(subject, queue string, handler Handler) error
	Close() error
}

type Config struct {
	URL       string
	ClusterID string
	ClientID  string
	AckWait   time.Duration
}

type NATSClient struct {
	conn    stan.Conn
	ackWait time.Duration
	subs    []stan.Subscription
}

func NewNATSClient(cfg Config) (*NATSClient, error) {
	// Client IDs must be unique per connection within the cluster
	uniqueClientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	conn, err := stan.Connect(cfg.ClusterID, uniqueClientID,
		stan.NatsURL(cfg.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, reason error) {
			slog.Error("NATS Streaming connection lost", "error", reason)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}

	slog.Info("Connected to NATS Streaming",
		"url", cfg.URL,
		"cluster", cfg.ClusterID,
		"client", uniqueClientID)

	ackWait := cfg.AckWait
	if ackWait <= 0 {
		ackWait = 30 * time.Second
	}

	return &NATSClient{conn: conn, ackWait: ackWait}, nil
}

func (nc *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	err = nc.conn.Publish(subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}

	slog.Debug("Published message", "subject", subject)
	return nil
}

// SubscribeQueue starts a durable queue subscription with manual acks
func (nc *NATSClient) SubscribeQueue(subject, queue string, handler Handler) error {
	sub, err := nc.conn.QueueSubscribe(subject, queue, func(m *stan.Msg) {
		log := slog.With("subject", subject, "sequence", m.Sequence, "redelivered", m.Redelivered)

		if err := handler(context.Background(), m.Data); err != nil {
			log.Error("Message handling failed, awaiting redelivery", "error", err)
			return
		}
		if err := m.Ack(); err != nil {
			log.Error("Failed to ack message", "error", err)
		}
	},
		stan.DurableName(subject+"-"+queue+"-durable"),
		stan.SetManualAckMode(),
		stan.AckWait(nc.ackWait),
		stan.MaxInflight(1))
	if err != nil {
		return fmt.Errorf("failed to queue subscribe to subject %s: %w", subject, err)
	}

	nc.subs = append(nc.subs, sub)
	slog.Info("Subscribed to subject", "subject", subject, "queue", queue)
	return nil
}

func (nc *NATSClient) Close() error {
	for _, sub := range nc.subs {
		// Close keeps the durable queue position, Unsubscribe would drop it
		if err := sub.Close(); err != nil {
			slog.Warn("Failed to close subscription", "error", err)
		}
	}
	nc.subs = nil

	if nc.conn != nil {
		conn := nc.conn
		nc.conn = nil
		return conn.Close()
	}
	return nil
}
