package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Valkey connection settings
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// ValkeyLedger records email deliveries in Valkey so that every worker
// replica sees the same claims.
type ValkeyLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewValkeyLedger(cfg Config) (*ValkeyLedger, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return newValkeyLedger(rdb, cfg), nil
}

func newValkeyLedger(rdb *redis.Client, cfg Config) *ValkeyLedger {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "eventhub:delivery:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ValkeyLedger{client: rdb, prefix: prefix, ttl: ttl}
}

func (v *ValkeyLedger) key(k string) string {
	return v.prefix + k
}

// Claim sets the key only if it is absent
func (v *ValkeyLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := v.client.SetNX(ctx, v.key(key), time.Now().UTC().Format(time.RFC3339), v.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return ok, nil
}

func (v *ValkeyLedger) Release(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, v.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to release delivery: %w", err)
	}
	return nil
}

func (v *ValkeyLedger) Close() error {
	return v.client.Close()
}
