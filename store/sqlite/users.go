package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, theme_preference, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.ThemePreference, utc(u.CreatedAt))
	if isConstraint(err) {
		return 0, store.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (s *Store) getUser(ctx context.Context, where string, args ...any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ThemePreference, &u.CreatedAt, &u.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getUser(ctx, "username = ? OR email = ?", login, login)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) UpdateTheme(ctx context.Context, userID int64, theme string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET theme_preference = ? WHERE id = ?", theme, userID)
	if err != nil {
		return fmt.Errorf("updating theme: %w", err)
	}
	return expectOne(result)
}

func (s *Store) UpdateLastActivity(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_activity = ? WHERE id = ?", utc(at), userID)
	return err
}
