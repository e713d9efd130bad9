package notify

import (
	"context"
	"sync"
)

// DeliveryLedger remembers which deliveries were already made so that a
// redelivered background message does not mail anyone twice.
//
// Claim reports false when key is already held. Release drops a claim
// after a failed send so a later attempt may claim it again.
type DeliveryLedger interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// MemoryLedger is a process-local DeliveryLedger
type MemoryLedger struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{keys: make(map[string]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.keys[key]; ok {
		return false, nil
	}
	l.keys[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
	return nil
}
