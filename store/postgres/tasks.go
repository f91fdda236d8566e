package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskflow/models"
	"taskflow/store"
)

const taskColumns = `
	t.id, t.user_id, t.title, t.description, t.status, t.priority, t.category_id,
	c.name, c.icon, to_char(t.due_date, 'YYYY-MM-DD'), t.position,
	t.created_at, t.updated_at, t.completed_at,
	ARRAY(SELECT tg.name FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id
	      WHERE tt.task_id = t.id ORDER BY tg.name)`

const assigneeColumn = `,
	ARRAY(SELECT u.username FROM task_assignments ta JOIN users u ON u.id = ta.user_id
	      WHERE ta.task_id = t.id ORDER BY u.username)`

const taskFrom = `
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id`

// args numbers positional parameters as they are appended.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// buildListQuery assembles the tenant-scoped list query for f.
func buildListQuery(userID int64, f models.TaskFilter) (string, []any) {
	var a args
	var b strings.Builder
	b.WriteString("SELECT" + taskColumns + taskFrom)
	b.WriteString("\n\tWHERE t.user_id = " + a.add(userID) + " AND NOT t.is_deleted")

	if f.Status != nil {
		b.WriteString(" AND t.status = " + a.add(string(*f.Status)))
	}
	if f.CategoryID != nil {
		b.WriteString(" AND t.category_id = " + a.add(*f.CategoryID))
	}
	if f.Priority != nil {
		b.WriteString(" AND t.priority = " + a.add(string(*f.Priority)))
	}
	if f.Search != nil {
		p := a.add("%" + store.EscapeLike(*f.Search) + "%")
		b.WriteString(` AND (t.title ILIKE ` + p + ` ESCAPE '\' OR t.description ILIKE ` + p + ` ESCAPE '\')`)
	}

	b.WriteString("\n\tORDER BY t.position ASC, t.created_at DESC, t.id DESC")
	return b.String(), a
}

// buildUpdateQuery renders p as a single UPDATE scoped to a live task of userID.
func buildUpdateQuery(userID, taskID int64, p models.TaskPatch) (string, []any) {
	var a args
	assignments := store.PatchAssignments(p)
	sets := make([]string, 0, len(assignments))
	for _, as := range assignments {
		sets = append(sets, as.Column+" = "+a.add(as.Value))
	}
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") +
		" WHERE user_id = " + a.add(userID) + " AND id = " + a.add(taskID) + " AND NOT is_deleted"
	return query, a
}

func scanTask(row pgx.Row, extra ...any) (models.Task, error) {
	var t models.Task
	dest := []any{
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CategoryID,
		&t.CategoryName, &t.CategoryIcon, &t.DueDate, &t.Position,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.Tags,
	}
	err := row.Scan(append(dest, extra...)...)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, err
}

func (s *Store) ListTasks(ctx context.Context, userID int64, f models.TaskFilter) ([]models.Task, error) {
	query, args := buildListQuery(userID, f)
	rows, err := s.pool.Query(ctx, query, args...)
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
	query := "SELECT" + taskColumns + assigneeColumn + taskFrom +
		"\n\tWHERE t.id = $1 AND t.user_id = $2 AND NOT t.is_deleted"

	var names []string
	t, err := scanTask(s.pool.QueryRow(ctx, query, taskID, userID), &names)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching task: %w", err)
	}

	t.Assignees = make([]models.Assignee, 0, len(names))
	for _, n := range names {
		t.Assignees = append(t.Assignees, models.Assignee{Username: n})
	}
	return &t, nil
}

func (s *Store) CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND (user_id IS NULL OR user_id = $2))",
		categoryID, userID).Scan(&ok)
	return ok, err
}

func (s *Store) Overview(ctx context.Context, userID int64, w models.StatsWindow) (*models.TaskCounts, *models.PriorityCounts, error) {
	var (
		c models.TaskCounts
		p models.PriorityCounts
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3),
		       COUNT(*) FILTER (WHERE due_date < $4::date AND status <> 'completed'),
		       COUNT(*) FILTER (WHERE priority = 'high'),
		       COUNT(*) FILTER (WHERE priority = 'medium'),
		       COUNT(*) FILTER (WHERE priority = 'low')
		FROM tasks
		WHERE user_id = $1 AND NOT is_deleted
	`, userID, w.DayStart, w.DayEnd, w.Today).Scan(
		&c.Total, &c.Completed, &c.InProgress, &c.Pending, &c.Today, &c.Overdue,
		&p.High, &p.Medium, &p.Low,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("computing overview: %w", err)
	}
	return &c, &p, nil
}

func (s *Store) RecentActivity(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, task_id, action, details, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
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
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) InsertTask(ctx context.Context, userID int64, in models.NewTask, now time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, priority, category_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $7)
		RETURNING id
	`, userID, in.Title, in.Description, string(in.Priority), in.CategoryID, in.DueDate, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}
	return id, nil
}

func (t *txStore) UpsertTag(ctx context.Context, userID int64, name string, now time.Time) (int64, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO tags (name, user_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (name, user_id) DO NOTHING
	`, name, userID, now)
	if err != nil {
		return 0, fmt.Errorf("upserting tag %q: %w", name, err)
	}

	var id int64
	err = t.tx.QueryRow(ctx, "SELECT id FROM tags WHERE name = $1 AND user_id = $2", name, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving tag %q: %w", name, err)
	}
	return id, nil
}

func (t *txStore) LinkTag(ctx context.Context, taskID, tagID int64) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", taskID, tagID)
	if err != nil {
		return fmt.Errorf("linking tag %d to task %d: %w", tagID, taskID, err)
	}
	return nil
}

func (t *txStore) UpdateTask(ctx context.Context, userID, taskID int64, p models.TaskPatch) error {
	query, args := buildUpdateQuery(userID, taskID, p)
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return expectOne(tag)
}

func (t *txStore) SoftDeleteTask(ctx context.Context, userID, taskID int64, now time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE tasks SET is_deleted = TRUE, updated_at = $1
		WHERE user_id = $2 AND id = $3 AND NOT is_deleted
	`, now, userID, taskID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOne(tag)
}

func (t *txStore) AppendActivity(ctx context.Context, a models.Activity) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO activity_logs (user_id, task_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.UserID, a.TaskID, a.Action, a.Details, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

func expectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
