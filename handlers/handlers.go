// Package handlers exposes the TaskFlow JSON API over net/http.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow/models"
	"taskflow/store"
	"taskflow/tasks"
	"taskflow/teams"
	"taskflow/utils"
)

// App holds the dependencies shared by every handler.
type App struct {
	Store   store.Store
	Redis   *redis.Client
	Tasks   *tasks.Service
	Teams   *teams.Service
	Session utils.SessionOptions
	Now     func() time.Time
}

func NewApp(s store.Store, redisClient *redis.Client, mailer utils.Mailer, session utils.SessionOptions) *App {
	return &App{
		Store:   s,
		Redis:   redisClient,
		Tasks:   tasks.NewService(s),
		Teams:   teams.NewService(s, mailer),
		Session: session,
		Now:     time.Now,
	}
}

func (a *App) now() time.Time {
	return a.Now().UTC()
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

// requireUser resolves the session cookie before h runs. Requests without a
// live session never reach the store.
func (a *App) requireUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.Authenticate(r.Context(), r, a.Redis, a.now())
		if errors.Is(err, utils.ErrUnauthorized) {
			writeError(w, models.AuthError("Authentication required"))
			return
		}
		if err != nil {
			log.Println("Error resolving session:", err)
			writeError(w, models.StorageError(err))
			return
		}
		h(w, r, userID)
	}
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": a.now().Format(time.RFC3339),
	})
}

// Routes registers every endpoint. Static files are served from staticDir
// when it is set.
func (a *App) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if staticDir != "" {
		fileServer := http.FileServer(http.Dir(staticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static", fileServer))
	}

	mux.HandleFunc("GET /api/health", a.Health)

	mux.HandleFunc("POST /api/auth/register", a.Register)
	mux.HandleFunc("POST /api/auth/login", a.Login)
	mux.HandleFunc("POST /api/auth/logout", a.Logout)
	mux.HandleFunc("GET /api/auth/me", a.requireUser(a.Me))
	mux.HandleFunc("PUT /api/auth/theme", a.requireUser(a.UpdateTheme))

	mux.HandleFunc("GET /api/tasks", a.requireUser(a.ListTasks))
	mux.HandleFunc("POST /api/tasks", a.requireUser(a.CreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", a.requireUser(a.GetTask))
	mux.HandleFunc("PUT /api/tasks/{id}", a.requireUser(a.UpdateTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", a.requireUser(a.UpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", a.requireUser(a.DeleteTask))
	mux.HandleFunc("GET /api/search", a.requireUser(a.SearchTasks))
	mux.HandleFunc("GET /api/stats/overview", a.requireUser(a.Overview))

	mux.HandleFunc("GET /api/categories", a.requireUser(a.Categories))
	mux.HandleFunc("GET /api/tags", a.requireUser(a.Tags))

	mux.HandleFunc("GET /api/teams", a.requireUser(a.ListTeams))
	mux.HandleFunc("POST /api/teams", a.requireUser(a.CreateTeam))
	mux.HandleFunc("GET /api/teams/{id}/members", a.requireUser(a.TeamMembers))
	mux.HandleFunc("POST /api/teams/{id}/invite", a.requireUser(a.InviteMember))
	mux.HandleFunc("POST /api/tasks/{id}/assign", a.requireUser(a.AssignTask))
	mux.HandleFunc("GET /api/tasks/{id}/comments", a.requireUser(a.ListComments))
	mux.HandleFunc("POST /api/tasks/{id}/comments", a.requireUser(a.AddComment))

	return mux
}

// Handler wraps the routes in the standard middleware chain. A nil limiter
// disables rate limiting.
func (a *App) Handler(staticDir string, limiter *RateLimiter) http.Handler {
	var h http.Handler = a.Routes(staticDir)
	if limiter != nil {
		h = limiter.Middleware(h)
	}
	return Recover(LogRequests(h))
}
