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

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, user_id FROM categories
		WHERE user_id IS NULL OR user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.UserID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListTags(ctx context.Context, userID int64) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, user_id, created_at FROM tags WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTeam(ctx context.Context, t *models.Team) (int64, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO teams (name, description, owner_id, created_at) VALUES (?, ?, ?, ?)",
		t.Name, t.Description, t.OwnerID, utc(t.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("inserting team: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		id, t.OwnerID, models.RoleAdmin, utc(t.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("adding team owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.ID = id
	t.Role = models.RoleAdmin
	return id, nil
}

func (s *Store) ListTeams(ctx context.Context, userID int64) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.owner_id, tm.role, t.created_at
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = ?
		ORDER BY t.created_at DESC, t.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	out := []models.Team{}
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.Role, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) MemberRole(ctx context.Context, teamID, userID int64) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM team_members WHERE team_id = ? AND user_id = ?", teamID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return role, err
}

func (s *Store) ListTeamMembers(ctx context.Context, teamID int64) ([]models.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, tm.role, tm.joined_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ?
		ORDER BY tm.joined_at, u.id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying team members: %w", err)
	}
	defer rows.Close()

	out := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) AddTeamMember(ctx context.Context, teamID, userID int64, role string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		teamID, userID, role, utc(now))
	if isConstraint(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) AssignTask(ctx context.Context, taskID, userID, assignedBy int64, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO task_assignments (task_id, user_id, assigned_by, assigned_at) VALUES (?, ?, ?, ?)",
		taskID, userID, assignedBy, utc(now))
	if isConstraint(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) CanAccessTask(ctx context.Context, userID, taskID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM tasks t
			WHERE t.id = ? AND t.is_deleted = 0
			  AND (t.user_id = ? OR EXISTS(
			        SELECT 1 FROM task_assignments ta WHERE ta.task_id = t.id AND ta.user_id = ?))
		)
	`, taskID, userID, userID).Scan(&ok)
	return ok, err
}

func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.task_id, c.user_id, u.username, c.content, c.created_at
		FROM task_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.task_id = ?
		ORDER BY c.created_at DESC, c.id DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AddComment(ctx context.Context, c *models.Comment) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO task_comments (task_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		c.TaskID, c.UserID, c.Content, utc(c.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("inserting comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}
