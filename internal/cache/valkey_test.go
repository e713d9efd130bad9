package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewValkeyLedgerUnreachable(t *testing.T) {
	_, err := NewValkeyLedger(Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestValkeyLedgerDefaults(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	ledger := newValkeyLedger(rdb, Config{})
	assert.Equal(t, "eventhub:delivery:booking:1:purchaser", ledger.key("booking:1:purchaser"))
	assert.Equal(t, 7*24*time.Hour, ledger.ttl)

	ledger = newValkeyLedger(rdb, Config{KeyPrefix: "test:", TTL: time.Hour})
	assert.Equal(t, "test:k", ledger.key("k"))
	assert.Equal(t, time.Hour, ledger.ttl)
}
