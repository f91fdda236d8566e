package models

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is the response shape shared by list and single fetches.
type Task struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"-" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description" db:"description"`
	Status       Status     `json:"status" db:"status"`
	Priority     Priority   `json:"priority" db:"priority"`
	CategoryID   *int64     `json:"category_id" db:"category_id"`
	CategoryName *string    `json:"category_name" db:"category_name"`
	CategoryIcon *string    `json:"category_icon" db:"category_icon"`
	DueDate      *string    `json:"due_date" db:"due_date"`
	Position     int        `json:"position" db:"position"`
	Tags         []string   `json:"tags"`
	Assignees    []Assignee `json:"assignees,omitempty"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
}

type Assignee struct {
	Username string `json:"username"`
}

// TaskFilter holds the optional list predicates. Nil fields are not applied.
type TaskFilter struct {
	Status     *Status
	CategoryID *int64
	Priority   *Priority
	Search     *string
}

// NewTask is the validated input of the create pipeline.
type NewTask struct {
	Title       string
	Description *string
	Priority    Priority
	CategoryID  *int64
	DueDate     *string
	Tags        []string
}

// Nullable carries a patch value that may explicitly clear a column.
type Nullable[T any] struct {
	Value T
	Null  bool
}

// TaskPatch is a partial update restricted to the patchable task columns.
// Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *Nullable[string]
	Priority    *Priority
	CategoryID  *Nullable[int64]
	Status      *Status
	DueDate     *Nullable[string]
	Position    *int

	// Stamped by the service, never read from the request.
	CompletedAt *time.Time
	UpdatedAt   time.Time

	// Raw is the request body as received, kept for the activity log.
	Raw json.RawMessage
}

// Empty reports whether no client-patchable field is set.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.CategoryID == nil && p.Status == nil && p.DueDate == nil && p.Position == nil
}
