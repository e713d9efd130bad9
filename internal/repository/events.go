package repository

import (
	"context"
	"database/sql"

	"eventhub/internal/database"
	"eventhub/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, event_date, location, price, organizer_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Date,
		event.Location,
		event.Price,
		event.OrganizerName,
	).Scan(&event.ID)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, event_date, location, price, organizer_name
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(
			&event.ID,
			&event.Title,
			&event.Date,
			&event.Location,
			&event.Price,
			&event.OrganizerName,
		)
	}, query, id)

	if err == sql.ErrNoRows || pqCode(err) == pqInvalidTextInput {
		return nil, nil
	}

	return event, err
}
