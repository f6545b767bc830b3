package storage

import (
	"context"
	"time"

	"github.com/meur/pokedex/internal/models"
)

// CreateUser creates a new active user
func (s *Session) CreateUser(ctx context.Context, in *models.UserCreate) (*models.User, error) {
	now := time.Now().UTC()

	res, err := s.tx.ExecContext(ctx, `
		INSERT INTO users (username, email, is_active, created_at)
		VALUES (?, ?, 1, ?)
	`, in.Username, in.Email, now)
	if err != nil {
		return nil, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:        id,
		Username:  in.Username,
		Email:     in.Email,
		IsActive:  true,
		CreatedAt: now,
	}, nil
}

// GetUser returns a user by ID
func (s *Session) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.tx.GetContext(ctx, &u, `
		SELECT id, username, email, is_active, created_at
		FROM users WHERE id = ?
	`, id)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// UpdateUser applies the non-nil fields of update
func (s *Session) UpdateUser(ctx context.Context, id int64, update *models.UserUpdate) error {
	var sets []string
	var args []interface{}

	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *update.Email)
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *update.IsActive)
	}

	return s.execUpdate(ctx, "users", sets, args, id)
}
