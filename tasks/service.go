// Package tasks implements the task query engine, the task write pipeline
// and the dashboard statistics on top of a store.TaskStore.
package tasks

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"taskflow/models"
	"taskflow/store"
	"taskflow/utils"
)

const recentActivityLimit = 10

type Service struct {
	store store.TaskStore
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now; tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(s store.TaskStore, opts ...Option) *Service {
	svc := &Service{store: s, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// FilterParams are the raw list query parameters. Empty values are ignored.
type FilterParams struct {
	Status   string
	Category string
	Priority string
	Search   string
}

// CreateInput is the request body of a task creation.
type CreateInput struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    string   `json:"priority"`
	CategoryID  *int64   `json:"category_id"`
	DueDate     *string  `json:"due_date"`
	Tags        []string `json:"tags"`
}

type CreateResult struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Service) List(ctx context.Context, userID int64, p FilterParams) ([]models.Task, error) {
	f, err := parseFilter(p)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, userID, f)
	if err != nil {
		return nil, models.WrapStorage("listing tasks", err)
	}
	return tasks, nil
}

// Search is List restricted to a required free-text query.
func (s *Service) Search(ctx context.Context, userID int64, q string) ([]models.Task, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.ValidationError("Search query is required")
	}
	return s.List(ctx, userID, FilterParams{Search: q})
}

func (s *Service) Get(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, userID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NotFoundError("Task not found")
	}
	if err != nil {
		return nil, models.WrapStorage("fetching task", err)
	}
	return task, nil
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*CreateResult, error) {
	task, err := s.validateCreate(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var id int64
	err = s.store.RunInTransaction(ctx, func(tx store.TaskTx) error {
		var err error
		id, err = tx.InsertTask(ctx, userID, task, now)
		if err != nil {
			return err
		}
		for _, name := range task.Tags {
			tagID, err := tx.UpsertTag(ctx, userID, name, now)
			if err != nil {
				return err
			}
			if err := tx.LinkTag(ctx, id, tagID); err != nil {
				return err
			}
		}
		return tx.AppendActivity(ctx, models.Activity{
			UserID:    userID,
			TaskID:    &id,
			Action:    models.ActionCreated,
			Details:   `Task "` + task.Title + `" created`,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, models.WrapStorage("creating task", err)
	}

	return &CreateResult{ID: id, Success: true, Message: "Task created successfully"}, nil
}

func (s *Service) validateCreate(ctx context.Context, userID int64, in CreateInput) (models.NewTask, error) {
	var t models.NewTask

	t.Title = strings.TrimSpace(in.Title)
	if t.Title == "" {
		return t, models.ValidationError("Title is required")
	}
	if err := utils.ValidateTaskInput(t.Title); err != nil {
		return t, models.ValidationError("%s", capitalize(err.Error()))
	}

	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		t.Description = in.Description
	}

	t.Priority = models.PriorityMedium
	if in.Priority != "" {
		t.Priority = models.Priority(in.Priority)
		if !t.Priority.Valid() {
			return t, models.ValidationError("Invalid priority %q", in.Priority)
		}
	}

	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *in.CategoryID); err != nil {
			return t, err
		}
		t.CategoryID = in.CategoryID
	}

	if in.DueDate != nil && *in.DueDate != "" {
		if err := utils.ValidateDueDate(*in.DueDate); err != nil {
			return t, models.ValidationError("%s", capitalize(err.Error()))
		}
		t.DueDate = in.DueDate
	}

	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return t, err
	}
	t.Tags = tags
	return t, nil
}

// Update applies a raw JSON patch to a task owned by userID.
func (s *Service) Update(ctx context.Context, userID, taskID int64, body []byte) error {
	p, err := ParsePatch(body)
	if err != nil {
		return err
	}
	if p.Empty() {
		return models.ValidationError("No valid fields to update")
	}
	if err := s.validatePatch(ctx, userID, &p); err != nil {
		return err
	}

	now := s.clock()
	p.UpdatedAt = now
	if p.Status != nil && *p.Status == models.StatusCompleted {
		p.CompletedAt = &now
	}

	err = s.store.RunInTransaction(ctx, func(tx store.TaskTx) error {
		if err := tx.UpdateTask(ctx, userID, taskID, p); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, models.Activity{
			UserID:    userID,
			TaskID:    &taskID,
			Action:    models.ActionUpdated,
			Details:   string(p.Raw),
			CreatedAt: now,
		})
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.NotFoundError("Task not found")
	}
	if err != nil {
		return models.WrapStorage("updating task", err)
	}
	return nil
}

func (s *Service) validatePatch(ctx context.Context, userID int64, p *models.TaskPatch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return models.ValidationError("Title is required")
		}
		if err := utils.ValidateTaskInput(title); err != nil {
			return models.ValidationError("%s", capitalize(err.Error()))
		}
		p.Title = &title
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return models.ValidationError("Invalid priority %q", *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return models.ValidationError("Invalid status %q", *p.Status)
	}
	if p.CategoryID != nil && !p.CategoryID.Null {
		if err := s.checkCategory(ctx, userID, p.CategoryID.Value); err != nil {
			return err
		}
	}
	if p.DueDate != nil && !p.DueDate.Null {
		if err := utils.ValidateDueDate(p.DueDate.Value); err != nil {
			return models.ValidationError("%s", capitalize(err.Error()))
		}
	}
	if p.Position != nil && *p.Position < 0 {
		return models.ValidationError("Position must not be negative")
	}
	return nil
}

// Delete moves a task to the trash.
func (s *Service) Delete(ctx context.Context, userID, taskID int64) error {
	now := s.clock()
	err := s.store.RunInTransaction(ctx, func(tx store.TaskTx) error {
		if err := tx.SoftDeleteTask(ctx, userID, taskID, now); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, models.Activity{
			UserID:    userID,
			TaskID:    &taskID,
			Action:    models.ActionDeleted,
			Details:   "Task moved to trash",
			CreatedAt: now,
		})
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.NotFoundError("Task not found")
	}
	if err != nil {
		return models.WrapStorage("deleting task", err)
	}
	return nil
}

// Overview computes the dashboard counts for the current UTC day.
func (s *Service) Overview(ctx context.Context, userID int64) (*models.Overview, error) {
	now := s.clock()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	w := models.StatsWindow{
		DayStart: dayStart,
		DayEnd:   dayStart.AddDate(0, 0, 1),
		Today:    dayStart.Format(time.DateOnly),
	}

	counts, prio, err := s.store.Overview(ctx, userID, w)
	if err != nil {
		return nil, models.WrapStorage("computing overview", err)
	}
	recent, err := s.store.RecentActivity(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, models.WrapStorage("loading recent activity", err)
	}

	return &models.Overview{Tasks: *counts, Priorities: *prio, RecentActivity: recent}, nil
}

func (s *Service) checkCategory(ctx context.Context, userID, categoryID int64) error {
	ok, err := s.store.CategoryVisible(ctx, userID, categoryID)
	if err != nil {
		return models.WrapStorage("checking category", err)
	}
	if !ok {
		return models.ValidationError("Invalid category")
	}
	return nil
}

func parseFilter(p FilterParams) (models.TaskFilter, error) {
	var f models.TaskFilter
	if p.Status != "" {
		st := models.Status(p.Status)
		if !st.Valid() {
			return f, models.ValidationError("Invalid status %q", p.Status)
		}
		f.Status = &st
	}
	if p.Priority != "" {
		pr := models.Priority(p.Priority)
		if !pr.Valid() {
			return f, models.ValidationError("Invalid priority %q", p.Priority)
		}
		f.Priority = &pr
	}
	if p.Category != "" {
		id, err := strconv.ParseInt(p.Category, 10, 64)
		if err != nil || id <= 0 {
			return f, models.ValidationError("Invalid category %q", p.Category)
		}
		f.CategoryID = &id
	}
	if q := strings.TrimSpace(p.Search); q != "" {
		f.Search = &q
	}
	return f, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
