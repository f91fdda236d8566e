package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"taskflow/models"
	"taskflow/store"
)

const userColumns = "id, username, email, password_hash, theme_preference, created_at, last_activity"

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u.ThemePreference == "" {
		u.ThemePreference = models.ThemeLight
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, theme_preference, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.ThemePreference, u.CreatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return 0, store.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return u.ID, nil
}

func (s *Store) getUser(ctx context.Context, where string, args ...any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ThemePreference, &u.CreatedAt, &u.LastActivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getUser(ctx, "username = $1 OR email = $1", login)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *Store) UpdateTheme(ctx context.Context, userID int64, theme string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET theme_preference = $1 WHERE id = $2", theme, userID)
	if err != nil {
		return fmt.Errorf("updating theme: %w", err)
	}
	return expectOne(tag)
}

func (s *Store) UpdateLastActivity(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.pool.Exec(ctx, "UPDATE users SET last_activity = $1 WHERE id = $2", at, userID)
	if err != nil {
		return fmt.Errorf("error updating last activity: %w", err)
	}
	return nil
}
