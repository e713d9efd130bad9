package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type PoolStats struct {
	MaxOpenConns      int           `json:"max_open_connections"`
	OpenConns         int           `json:"open_connections"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

type HealthCheck struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
	Timestamp    time.Time     `json:"timestamp"`
}

func (db *DB) GetPoolStats() PoolStats {
	stats := db.Stats()
	return PoolStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (db *DB) HealthCheck(ctx context.Context) HealthCheck {
	start := time.Now()
	healthCheck := HealthCheck{
		Timestamp: start,
		Stats:     db.GetPoolStats(),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := db.PingContext(pingCtx)
	healthCheck.ResponseTime = time.Since(start)

	if err != nil {
		healthCheck.Status = "unhealthy"
		healthCheck.Error = err.Error()
		slog.Error("Database health check failed", "error", err)
	} else {
		healthCheck.Status = "healthy"
	}

	if healthCheck.Stats.InUse > int(float64(healthCheck.Stats.MaxOpenConns)*0.9) {
		slog.Warn("High connection usage detected",
			"in_use", healthCheck.Stats.InUse, "max_open", healthCheck.Stats.MaxOpenConns)
	}

	return healthCheck
}

const (
	maxQueryAttempts  = 3
	queryBackoffDelay = 100 * time.Millisecond
)

// QueryRowWithRetry runs a single-row read, retrying transient
// connection failures with linear backoff. scan receives the row.
func (db *DB) QueryRowWithRetry(ctx context.Context, scan func(*sql.Row) error, query string, args ...interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxQueryAttempts; attempt++ {
		err := scan(db.QueryRowContext(ctx, query, args...))
		if err == nil || err == sql.ErrNoRows {
			return err
		}

		lastErr = err
		if !isRetryableError(err) {
			return err
		}

		if attempt < maxQueryAttempts {
			slog.Warn("Database query failed, retrying",
				"attempt", attempt, "max_retries", maxQueryAttempts, "error", err)
			time.Sleep(time.Duration(attempt) * queryBackoffDelay)
		}
	}

	return fmt.Errorf("query failed after %d attempts: %w", maxQueryAttempts, lastErr)
}

// QueryWithRetry is QueryRowWithRetry for multi-row reads
func (db *DB) QueryWithRetry(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var lastErr error
	for attempt := 1; attempt <= maxQueryAttempts; attempt++ {
		rows, err := db.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, fmt.Errorf("non-retryable error on attempt %d: %w", attempt, err)
		}

		if attempt < maxQueryAttempts {
			slog.Warn("Database query failed, retrying",
				"attempt", attempt, "max_retries", maxQueryAttempts, "error", err)
			time.Sleep(time.Duration(attempt) * queryBackoffDelay)
		}
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", maxQueryAttempts, lastErr)
}

var retryableErrors = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"driver: bad connection",
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}
