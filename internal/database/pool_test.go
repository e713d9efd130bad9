package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(sql.ErrNoRows))
	assert.False(t, isRetryableError(errors.New(`pq: duplicate key value violates unique constraint "ticket_codes_pkey"`)))

	assert.True(t, isRetryableError(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")))
	assert.True(t, isRetryableError(errors.New("driver: bad connection")))
	assert.True(t, isRetryableError(errors.New("read tcp: i/o timeout")))
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "eventhub", Password: "secret", DBName: "eventhub", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=eventhub password=secret dbname=eventhub sslmode=disable", cfg.DSN())
}
