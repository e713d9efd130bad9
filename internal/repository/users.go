package repository

import (
	"context"
	"database/sql"

	"eventhub/internal/database"
	"eventhub/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, user.Name, user.Email).Scan(&user.ID, &user.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = $1`

	err := r.db.QueryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	}, query, id)

	if err == sql.ErrNoRows || pqCode(err) == pqInvalidTextInput {
		return nil, nil
	}

	return user, err
}
