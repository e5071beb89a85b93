// Package records reads the application records the notification handlers need.
// It never writes.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"synctask-notifications/internal/models"
)

// ErrNotFound is returned when no record exists for the id.
var ErrNotFound = errors.New("record not found")

// UserLookup resolves a user record by id.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

const getUserQuery = `SELECT username, email FROM users WHERE id = $1`

// UserStore reads users from Postgres.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		username sql.NullString
		email    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, getUserQuery, id).Scan(&username, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}

	return &models.User{
		ID:       id,
		Username: username.String,
		Email:    email.String,
	}, nil
}
