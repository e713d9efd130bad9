package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryBus delivers messages to in-process subscribers on background
// goroutines. It stands in for NATS in local runs and tests; a failed
// handler is logged, not retried.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	wg     sync.WaitGroup
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]Handler)}
}

func (b *MemoryBus) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("failed to publish to subject %s: bus closed", subject)
	}

	for _, handler := range b.subs[subject] {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(context.Background(), payload); err != nil {
				slog.Error("Message handling failed", "subject", subject, "error", err)
			}
		}(handler)
	}
	return nil
}

// SubscribeQueue registers handler for subject. Queue groups are not
// modelled, every subscriber receives every message.
func (b *MemoryBus) SubscribeQueue(subject, _ string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subject] = append(b.subs[subject], handler)
	return nil
}

// Wait blocks until every delivered message has been handled
func (b *MemoryBus) Wait() {
	b.wg.Wait()
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
