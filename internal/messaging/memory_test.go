package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDelivers(t *testing.T) {
	bus := NewMemoryBus()

	var mu sync.Mutex
	var got []map[string]string
	require.NoError(t, bus.SubscribeQueue("booking.confirmed", "workers", func(_ context.Context, data []byte) error {
		var msg map[string]string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
		return nil
	}))
	require.NoError(t, bus.SubscribeQueue("payment.failed", "workers", func(context.Context, []byte) error {
		return errors.New("unexpected")
	}))

	require.NoError(t, bus.Publish("booking.confirmed", map[string]string{"booking_id": "b-1"}))
	require.NoError(t, bus.Publish("booking.confirmed", map[string]string{"booking_id": "b-2"}))
	bus.Wait()

	assert.ElementsMatch(t, []map[string]string{{"booking_id": "b-1"}, {"booking_id": "b-2"}}, got)
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())

	assert.Error(t, bus.Publish("booking.confirmed", map[string]string{}))
	assert.Error(t, bus.Publish("booking.confirmed", func() {}))
}
