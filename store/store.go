// Package store defines the persistence contracts shared by the postgres and
// sqlite backends.
package store

import (
	"context"
	"errors"
	"time"

	"taskflow/models"
)

var (
	// ErrNotFound is returned when a row is absent or not owned by the caller.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("store: conflict")
)

// TaskTx is the unit of work handed to TaskStore.RunInTransaction. Every
// method runs on the same transaction.
type TaskTx interface {
	InsertTask(ctx context.Context, userID int64, in models.NewTask, now time.Time) (int64, error)
	// UpsertTag inserts (name, userID) if absent and returns the tag id either way.
	UpsertTag(ctx context.Context, userID int64, name string, now time.Time) (int64, error)
	LinkTag(ctx context.Context, taskID, tagID int64) error
	// UpdateTask applies p to a non-deleted task owned by userID. ErrNotFound
	// when no row matched.
	UpdateTask(ctx context.Context, userID, taskID int64, p models.TaskPatch) error
	// SoftDeleteTask flags a non-deleted task owned by userID. ErrNotFound when
	// no row matched.
	SoftDeleteTask(ctx context.Context, userID, taskID int64, now time.Time) error
	AppendActivity(ctx context.Context, a models.Activity) error
}

type TaskStore interface {
	ListTasks(ctx context.Context, userID int64, f models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error)
	// CategoryVisible reports whether categoryID is global or owned by userID.
	CategoryVisible(ctx context.Context, userID, categoryID int64) (bool, error)
	Overview(ctx context.Context, userID int64, w models.StatsWindow) (*models.TaskCounts, *models.PriorityCounts, error)
	RecentActivity(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
	// RunInTransaction commits when fn returns nil and rolls back otherwise,
	// including when fn panics.
	RunInTransaction(ctx context.Context, fn func(tx TaskTx) error) error
}

type UserStore interface {
	// CreateUser returns ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// GetUserByLogin matches login against username or email.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateTheme(ctx context.Context, userID int64, theme string) error
	UpdateLastActivity(ctx context.Context, userID int64, at time.Time) error
}

type CatalogStore interface {
	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)
	ListTags(ctx context.Context, userID int64) ([]models.Tag, error)
}

type TeamStore interface {
	// CreateTeam inserts the team and its owner as admin atomically.
	CreateTeam(ctx context.Context, t *models.Team) (int64, error)
	ListTeams(ctx context.Context, userID int64) ([]models.Team, error)
	// MemberRole returns ErrNotFound when userID is not in the team.
	MemberRole(ctx context.Context, teamID, userID int64) (string, error)
	ListTeamMembers(ctx context.Context, teamID int64) ([]models.TeamMember, error)
	// AddTeamMember returns ErrConflict when the user is already a member.
	AddTeamMember(ctx context.Context, teamID, userID int64, role string, now time.Time) error
	// AssignTask returns ErrConflict on a duplicate assignment.
	AssignTask(ctx context.Context, taskID, userID, assignedBy int64, now time.Time) error
	// CanAccessTask reports whether userID owns or is assigned to a live task.
	CanAccessTask(ctx context.Context, userID, taskID int64) (bool, error)
	ListComments(ctx context.Context, taskID int64) ([]models.Comment, error)
	AddComment(ctx context.Context, c *models.Comment) (int64, error)
}

// Dumper exports raw table contents for backups.
type Dumper interface {
	DumpTable(ctx context.Context, table string) ([]map[string]any, error)
}

// Store is everything a backend provides.
type Store interface {
	TaskStore
	UserStore
	CatalogStore
	TeamStore
	Dumper
	Close()
}

// Tables lists every table in dependency order. DumpTable only accepts these.
var Tables = []string{
	"users",
	"categories",
	"tasks",
	"tags",
	"task_tags",
	"teams",
	"team_members",
	"task_assignments",
	"task_comments",
	"activity_logs",
}

func KnownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
