package models

import "time"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Activity is an append-only audit entry written alongside task writes.
type Activity struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TaskID    *int64    `json:"task_id" db:"task_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TaskCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Today      int `json:"today"`
	Overdue    int `json:"overdue"`
}

type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Overview is the dashboard summary for one user.
type Overview struct {
	Tasks          TaskCounts     `json:"tasks"`
	Priorities     PriorityCounts `json:"priorities"`
	RecentActivity []Activity     `json:"recent_activity"`
}

// StatsWindow fixes the calendar day the aggregator counts against.
type StatsWindow struct {
	DayStart time.Time
	DayEnd   time.Time
	Today    string
}
