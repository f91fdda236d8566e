package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"taskflow/models"
	"taskflow/store"
)

const taskSelect = `
	SELECT t.id, t.user_id, t.title, t.description, t.status, t.priority, t.category_id,
	       c.name, c.icon, t.due_date, t.position, t.created_at, t.updated_at, t.completed_at,
	       (SELECT json_group_array(tg.name)
	          FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id
	         WHERE tt.task_id = t.id) AS tags
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id`

// buildListQuery assembles the tenant-scoped list query for f.
func buildListQuery(userID int64, f models.TaskFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(taskSelect)
	b.WriteString("\n\tWHERE t.user_id = ? AND t.is_deleted = 0")
	args := []any{userID}

	if f.Status != nil {
		b.WriteString(" AND t.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.CategoryID != nil {
		b.WriteString(" AND t.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Priority != nil {
		b.WriteString(" AND t.priority = ?")
		args = append(args, string(*f.Priority))
	}
	if f.Search != nil {
		b.WriteString(` AND (fold(t.title) LIKE ? ESCAPE '\' OR fold(COALESCE(t.description, '')) LIKE ? ESCAPE '\')`)
		pattern := "%" + store.EscapeLike(strings.ToLower(*f.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	b.WriteString("\n\tORDER BY t.position ASC, t.created_at DESC, t.id DESC")
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, extra ...any) (models.Task, error) {
	var (
		t    models.Task
		tags string
	)
	dest := []any{
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CategoryID,
		&t.CategoryName, &t.CategoryIcon, &t.DueDate, &t.Position, &t.CreatedAt, &t.UpdatedAt,
		&t.CompletedAt, &tags,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return t, err
	}
	names, err := decodeNames(tags)
	if err != nil {
		return t, fmt.Errorf("decoding tags of task %d: %w", t.ID, err)
	}
	t.Tags = names
	return t, nil
}

// decodeNames parses a json_group_array result into a sorted, non-nil slice.
func decodeNames(raw string) ([]string, error) {
	names := []string{}
	if raw == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) ListTasks(ctx context.Context, userID int64, f models.TaskFilter) ([]models.Task, error) {
	query, args := buildListQuery(userID, f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	query := strings.Replace(taskSelect, "AS tags", `AS tags,
	       (SELECT json_group_array(u.username)
	          FROM task_assignments ta JOIN users u ON u.id = ta.user_id
	         WHERE ta.task_id = t.id) AS assignees`, 1) +
		"\n\tWHERE t.id = ? AND t.user_id = ? AND t.is_deleted = 0"

	var assignees string
	t, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, userID), &assignees)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching task: %w", err)
	}

	names, err := decodeNames(assignees)
	if err != nil {
		return nil, fmt.Errorf("decoding assignees of task %d: %w", t.ID, err)
	}
	t.Assignees = make([]models.Assignee, 0, len(names))
	for _, n := range names {
		t.Assignees = append(t.Assignees, models.Assignee{Username: n})
	}
	return &t, nil
}

func (s *Store) CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE id = ? AND (user_id IS NULL OR user_id = ?))",
		categoryID, userID).Scan(&ok)
	return ok, err
}

func (s *Store) Overview(ctx context.Context, userID int64, w models.StatsWindow) (*models.TaskCounts, *models.PriorityCounts, error) {
	var (
		c models.TaskCounts
		p models.PriorityCounts
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'completed' THEN 1 END),
		       COUNT(CASE WHEN status = 'in_progress' THEN 1 END),
		       COUNT(CASE WHEN status = 'pending' THEN 1 END),
		       COUNT(CASE WHEN created_at >= ? AND created_at < ? THEN 1 END),
		       COUNT(CASE WHEN due_date IS NOT NULL AND due_date < ? AND status <> 'completed' THEN 1 END),
		       COUNT(CASE WHEN priority = 'high' THEN 1 END),
		       COUNT(CASE WHEN priority = 'medium' THEN 1 END),
		       COUNT(CASE WHEN priority = 'low' THEN 1 END)
		FROM tasks
		WHERE user_id = ? AND is_deleted = 0
	`, utc(w.DayStart), utc(w.DayEnd), w.Today, userID).Scan(
		&c.Total, &c.Completed, &c.InProgress, &c.Pending, &c.Today, &c.Overdue,
		&p.High, &p.Medium, &p.Low,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("computing overview: %w", err)
	}
	return &c, &p, nil
}

func (s *Store) RecentActivity(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, task_id, action, details, created_at
		FROM activity_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.TaskID, &a.Action, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RunInTransaction executes fn within a single database transaction.
// On error or panic the transaction is rolled back; panics are re-raised.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.TaskTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) InsertTask(ctx context.Context, userID int64, in models.NewTask, now time.Time) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, description, priority, category_id, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, in.Title, in.Description, string(in.Priority), in.CategoryID, in.DueDate, utc(now), utc(now))
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return result.LastInsertId()
}

func (t *txStore) UpsertTag(ctx context.Context, userID int64, name string, now time.Time) (int64, error) {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tags (name, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (name, user_id) DO NOTHING
	`, name, userID, utc(now))
	if err != nil {
		return 0, fmt.Errorf("upserting tag %q: %w", name, err)
	}

	var id int64
	err = t.tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ? AND user_id = ?", name, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving tag %q: %w", name, err)
	}
	return id, nil
}

func (t *txStore) LinkTag(ctx context.Context, taskID, tagID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)", taskID, tagID)
	if err != nil {
		return fmt.Errorf("linking tag %d to task %d: %w", tagID, taskID, err)
	}
	return nil
}

func (t *txStore) UpdateTask(ctx context.Context, userID, taskID int64, p models.TaskPatch) error {
	assignments := store.PatchAssignments(p)
	sets := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+2)
	for _, a := range assignments {
		sets = append(sets, a.Column+" = ?")
		if ts, ok := a.Value.(time.Time); ok {
			args = append(args, utc(ts))
		} else {
			args = append(args, a.Value)
		}
	}
	args = append(args, userID, taskID)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") +
		" WHERE user_id = ? AND id = ? AND is_deleted = 0"
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return expectOne(result)
}

func (t *txStore) SoftDeleteTask(ctx context.Context, userID, taskID int64, now time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE tasks SET is_deleted = 1, updated_at = ?
		WHERE user_id = ? AND id = ? AND is_deleted = 0
	`, utc(now), userID, taskID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOne(result)
}

func (t *txStore) AppendActivity(ctx context.Context, a models.Activity) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, task_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.UserID, a.TaskID, a.Action, a.Details, utc(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
