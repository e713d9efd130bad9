package consumers

import (
	"context"
	"log/slog"

	"eventhub/internal/messaging"
	"eventhub/internal/models"
)

// QueueGroup shares messages between consumer replicas
const QueueGroup = "eventhub-consumers"

type ConsumerService struct {
	bus      messaging.Bus
	handlers *Handlers
}

func NewConsumerService(bus messaging.Bus, handlers *Handlers) *ConsumerService {
	return &ConsumerService{
		bus:      bus,
		handlers: handlers,
	}
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting consumers...")

	subscriptions := []struct {
		subject string
		handler messaging.Handler
	}{
		{models.EventBookingConfirmed, cs.handlers.HandleBookingConfirmed},
		{models.EventPaymentFailed, cs.handlers.HandlePaymentFailed},
		{models.EventTicketVerified, cs.handlers.HandleTicketVerified},
	}

	for _, s := range subscriptions {
		if err := cs.bus.SubscribeQueue(s.subject, QueueGroup, s.handler); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	done := make(chan error, 1)
	go func() { done <- cs.bus.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
