package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtensions,
		createUsersTable,
		createEventsTable,
		createBookingsTable,
		createTicketCodesTable,
		createTicketVerificationsTable,
		createBookingsUserIndex,
		createVerificationsBookingIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtensions = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(500) NOT NULL,
    event_date TIMESTAMPTZ NOT NULL,
    location VARCHAR(500) NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0 CHECK (price >= 0),
    organizer_name VARCHAR(200) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// ticket_numbers[i] belongs to attendees->i
const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    event_id UUID NOT NULL REFERENCES events(id),
    user_id UUID NOT NULL REFERENCES users(id),
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    total_price BIGINT NOT NULL DEFAULT 0,
    ticket_numbers TEXT[] NOT NULL DEFAULT '{}',
    attendees JSONB NOT NULL DEFAULT '[]',
    cancelled_tickets TEXT[] NOT NULL DEFAULT '{}',
    status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'confirmed', 'cancelled', 'refunded')),
    payment_order_id VARCHAR(100),
    payment_id VARCHAR(100),
    pdf_url TEXT,
    download_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Global uniqueness of ticket numbers across all bookings
const createTicketCodesTable = `
CREATE TABLE IF NOT EXISTS ticket_codes (
    code VARCHAR(32) PRIMARY KEY,
    booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (booking_id, position)
);`

const createTicketVerificationsTable = `
CREATE TABLE IF NOT EXISTS ticket_verifications (
    id BIGSERIAL PRIMARY KEY,
    booking_id UUID NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    ticket_number VARCHAR(32) NOT NULL,
    verified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    verified_by VARCHAR(200) NOT NULL,
    status VARCHAR(20) NOT NULL CHECK (status IN ('approved', 'denied')),
    reason VARCHAR(50) NOT NULL DEFAULT ''
);`

const createBookingsUserIndex = `
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);`

const createVerificationsBookingIndex = `
CREATE INDEX IF NOT EXISTS idx_ticket_verifications_booking ON ticket_verifications(booking_id, id);`
