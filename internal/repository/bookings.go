package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventhub/internal/database"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/models"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation  = "23505"
	pqInvalidTextInput = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a pending booking without ticket numbers
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	attendees, err := json.Marshal(booking.AttendeeDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal attendees: %w", err)
	}

	query := `
		INSERT INTO bookings (event_id, user_id, quantity, total_price, attendees, status, payment_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		booking.EventID,
		booking.UserID,
		booking.Quantity,
		booking.TotalPrice,
		attendees,
		booking.Status,
		booking.PaymentOrderID,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

// GetByID returns the booking with its verification ledger, or nil when
// there is no such booking
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking := &models.Booking{}
	var attendees []byte

	query := `
		SELECT id, event_id, user_id, quantity, total_price, ticket_numbers, attendees,
		       cancelled_tickets, status, payment_order_id, payment_id, pdf_url,
		       download_count, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(
			&booking.ID,
			&booking.EventID,
			&booking.UserID,
			&booking.Quantity,
			&booking.TotalPrice,
			pq.Array(&booking.TicketNumbers),
			&attendees,
			pq.Array(&booking.CancelledTickets),
			&booking.Status,
			&booking.PaymentOrderID,
			&booking.PaymentID,
			&booking.PDFURL,
			&booking.DownloadCount,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
	}, query, id)

	if err == sql.ErrNoRows || pqCode(err) == pqInvalidTextInput {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &booking.AttendeeDetails); err != nil {
			return nil, fmt.Errorf("failed to decode attendees of booking %s: %w", id, err)
		}
	}

	booking.VerifiedTickets, err = r.Verifications(ctx, id)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// FindByTicketNumber resolves a ticket number to its booking
func (r *BookingRepository) FindByTicketNumber(ctx context.Context, number string) (*models.Booking, error) {
	var bookingID string
	err := r.db.QueryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(&bookingID)
	}, `SELECT booking_id FROM ticket_codes WHERE code = $1`, number)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, bookingID)
}

// ExistingCodes returns the subset of codes already assigned to any booking
func (r *BookingRepository) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryWithRetry(ctx, `SELECT code FROM ticket_codes WHERE code = ANY($1)`, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		existing = append(existing, code)
	}

	return existing, rows.Err()
}

// AssignTickets stores the ticket numbers and confirms the booking in one
// transaction. The update only applies to a pending booking that has no
// ticket numbers yet; a code taken concurrently by another booking fails
// the whole assignment with ErrTicketCodeConflict.
func (r *BookingRepository) AssignTickets(ctx context.Context, bookingID string, numbers []string, paymentID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET ticket_numbers = $2, status = $3, payment_id = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5 AND cardinality(ticket_numbers) = 0`,
		bookingID, pq.Array(numbers), models.BookingConfirmed, paymentID, models.BookingPending)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrTicketsAlreadyIssued
	}

	for i, number := range numbers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ticket_codes (code, booking_id, position) VALUES ($1, $2, $3)`,
			number, bookingID, i)
		if pqCode(err) == pqUniqueViolation {
			return fmt.Errorf("%w: %s", apperrors.ErrTicketCodeConflict, number)
		}
		if err != nil {
			return fmt.Errorf("failed to insert ticket code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket assignment: %w", err)
	}
	return nil
}

func (r *BookingRepository) AppendVerification(ctx context.Context, bookingID string, entry models.VerificationEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ticket_verifications (booking_id, ticket_number, verified_at, verified_by, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bookingID, entry.TicketNumber, entry.VerifiedAt, entry.VerifiedBy, entry.Status, entry.Reason)
	if err != nil {
		return fmt.Errorf("failed to append verification: %w", err)
	}
	return nil
}

// Verifications returns the ledger of a booking in append order
func (r *BookingRepository) Verifications(ctx context.Context, bookingID string) ([]models.VerificationEntry, error) {
	rows, err := r.db.QueryWithRetry(ctx, `
		SELECT ticket_number, verified_at, verified_by, status, reason
		FROM ticket_verifications
		WHERE booking_id = $1
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.VerificationEntry
	for rows.Next() {
		var entry models.VerificationEntry
		if err := rows.Scan(&entry.TicketNumber, &entry.VerifiedAt, &entry.VerifiedBy, &entry.Status, &entry.Reason); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CancelTicket adds number to the cancelled set. Cancelling twice is a
// no-op; numbers outside the booking are rejected.
func (r *BookingRepository) CancelTicket(ctx context.Context, bookingID, number string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET cancelled_tickets = array_append(cancelled_tickets, $2::text), updated_at = NOW()
		WHERE id = $1 AND $2 = ANY(ticket_numbers) AND NOT ($2 = ANY(cancelled_tickets))`,
		bookingID, number)
	if pqCode(err) == pqInvalidTextInput {
		return apperrors.ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil || affected > 0 {
		return err
	}

	var member bool
	err = r.db.QueryRowContext(ctx,
		`SELECT $2 = ANY(ticket_numbers) FROM bookings WHERE id = $1`, bookingID, number).Scan(&member)
	if err == sql.ErrNoRows {
		return apperrors.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrTicketNotInBooking
	}
	return nil
}

func (r *BookingRepository) IncrementDownloads(ctx context.Context, bookingID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET download_count = download_count + 1 WHERE id = $1`, bookingID)
	return err
}
