// Package teams implements team membership, task assignment and task comments.
package teams

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/models"
	"taskflow/store"
	"taskflow/utils"
)

const (
	maxTeamName      = 100
	maxCommentLength = 2000
	notifyTimeout    = 10 * time.Second
)

// Store is the slice of the backend the collaborator features need.
type Store interface {
	store.TeamStore
	GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	store  Store
	mailer utils.Mailer
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(s Store, mailer utils.Mailer, opts ...Option) *Service {
	if mailer == nil {
		mailer = utils.LogMailer{}
	}
	svc := &Service{store: s, mailer: mailer, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AssignInput struct {
	UserID int64 `json:"user_id"`
}

type CommentInput struct {
	Content string `json:"content"`
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*models.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.ValidationError("Team name is required")
	}
	if utf8.RuneCountInString(name) > maxTeamName {
		return nil, models.ValidationError("Team name must be at most %d characters", maxTeamName)
	}

	team := &models.Team{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     userID,
		CreatedAt:   s.now().UTC(),
	}
	if _, err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, models.WrapStorage("creating team", err)
	}
	return team, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]models.Team, error) {
	teams, err := s.store.ListTeams(ctx, userID)
	if err != nil {
		return nil, models.WrapStorage("listing teams", err)
	}
	return teams, nil
}

// Members lists a team's members. Non-members get NotFound so team ids do
// not leak.
func (s *Service) Members(ctx context.Context, userID, teamID int64) ([]models.TeamMember, error) {
	if _, err := s.role(ctx, teamID, userID); err != nil {
		return nil, err
	}
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, models.WrapStorage("listing team members", err)
	}
	return members, nil
}

// Invite adds the user registered under in.Email to the team. Only admins may
// invite.
func (s *Service) Invite(ctx context.Context, userID, teamID int64, in InviteInput) error {
	role, err := s.role(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return models.ValidationError("Only team admins can invite members")
	}

	newRole := in.Role
	if newRole == "" {
		newRole = models.RoleMember
	}
	if newRole != models.RoleMember && newRole != models.RoleAdmin {
		return models.ValidationError("Invalid role %q", in.Role)
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return models.ValidationError("Email is required")
	}
	invitee, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.NotFoundError("User not found")
	}
	if err != nil {
		return models.WrapStorage("looking up invitee", err)
	}

	err = s.store.AddTeamMember(ctx, teamID, invitee.ID, newRole, s.now().UTC())
	if errors.Is(err, store.ErrConflict) {
		return models.ValidationError("User is already a member of this team")
	}
	if err != nil {
		return models.WrapStorage("adding team member", err)
	}

	s.notify(ctx, invitee.Email, "You have been added to a team on TaskFlow", inviteMail, mailData{
		Username: invitee.Username,
		Role:     newRole,
	})
	return nil
}

// Assign assigns a task the caller owns to another user.
func (s *Service) Assign(ctx context.Context, userID, taskID int64, in AssignInput) error {
	task, err := s.store.GetTask(ctx, userID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NotFoundError("Task not found")
	}
	if err != nil {
		return models.WrapStorage("fetching task", err)
	}

	if in.UserID <= 0 {
		return models.ValidationError("user_id is required")
	}
	assignee, err := s.store.GetUser(ctx, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NotFoundError("User not found")
	}
	if err != nil {
		return models.WrapStorage("looking up assignee", err)
	}

	err = s.store.AssignTask(ctx, taskID, assignee.ID, userID, s.now().UTC())
	if errors.Is(err, store.ErrConflict) {
		return models.ValidationError("Task is already assigned to this user")
	}
	if err != nil {
		return models.WrapStorage("assigning task", err)
	}

	s.notify(ctx, assignee.Email, "A task was assigned to you", assignMail, mailData{
		Username:  assignee.Username,
		TaskTitle: task.Title,
	})
	return nil
}

func (s *Service) Comments(ctx context.Context, userID, taskID int64) ([]models.Comment, error) {
	if err := s.checkAccess(ctx, userID, taskID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, taskID)
	if err != nil {
		return nil, models.WrapStorage("listing comments", err)
	}
	return comments, nil
}

func (s *Service) AddComment(ctx context.Context, userID, taskID int64, in CommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.ValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, models.ValidationError("Comments must be at most %d characters", maxCommentLength)
	}
	if err := s.checkAccess(ctx, userID, taskID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.store.AddComment(ctx, c); err != nil {
		return nil, models.WrapStorage("adding comment", err)
	}
	if u, err := s.store.GetUser(ctx, userID); err == nil {
		c.Username = u.Username
	}
	return c, nil
}

func (s *Service) role(ctx context.Context, teamID, userID int64) (string, error) {
	role, err := s.store.MemberRole(ctx, teamID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", models.NotFoundError("Team not found")
	}
	if err != nil {
		return "", models.WrapStorage("checking team membership", err)
	}
	return role, nil
}

func (s *Service) checkAccess(ctx context.Context, userID, taskID int64) error {
	ok, err := s.store.CanAccessTask(ctx, userID, taskID)
	if err != nil {
		return models.WrapStorage("checking task access", err)
	}
	if !ok {
		return models.NotFoundError("Task not found")
	}
	return nil
}
