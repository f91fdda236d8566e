package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"taskflow/models"
	"taskflow/store"
	"taskflow/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Theme    string `json:"theme,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, models.ValidationError("All fields are required"))
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, models.ValidationError("Username must be between 3 and 50 characters"))
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, models.ValidationError("Invalid email address"))
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, models.ValidationError("Passwords must be at least 8 characters in length and contain: one uppercase letter, one lowercase letter, one special character, one digit"))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    a.now(),
	}
	id, err := a.Store.CreateUser(r.Context(), user)
	if errors.Is(err, store.ErrConflict) {
		writeError(w, models.ValidationError("Username or email already exists"))
		return
	}
	if err != nil {
		log.Println("add user error:", err, "user:", req.Email)
		writeError(w, models.StorageError(err))
		return
	}

	if _, err := utils.OpenSession(r.Context(), w, r, a.Redis, id, a.Session, a.now()); err != nil {
		log.Println("Error opening session:", err)
		writeError(w, models.StorageError(err))
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:       id,
		Username: user.Username,
		Email:    user.Email,
		Message:  "User registered successfully",
	})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	login := strings.TrimSpace(req.Username)
	if login == "" || req.Password == "" {
		writeError(w, models.ValidationError("Username and password are required"))
		return
	}

	user, err := a.Store.GetUserByLogin(r.Context(), login)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, models.AuthError("Invalid credentials"))
		return
	}
	if err != nil {
		log.Println("Login failed:", err)
		writeError(w, models.StorageError(err))
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, models.AuthError("Invalid credentials"))
		return
	}

	now := a.now()
	if _, err := utils.OpenSession(r.Context(), w, r, a.Redis, user.ID, a.Session, now); err != nil {
		log.Println("Error opening session:", err)
		writeError(w, models.StorageError(err))
		return
	}
	if err := a.Store.UpdateLastActivity(r.Context(), user.ID, now); err != nil {
		log.Println("Error updating last activity:", err)
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Theme:    user.ThemePreference,
	})
}

// Logout ends the current session. With ?all=1 every session of the same
// user is ended. It always succeeds.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	st, err := r.Cookie(utils.SessionCookie)
	if err == nil && st.Value != "" {
		ctx := r.Context()
		if r.URL.Query().Get("all") == "1" {
			userID, err := utils.GetUserIDFromST(ctx, a.Redis, st.Value)
			if err == nil {
				err = utils.DeleteAllUserSessions(ctx, a.Redis, userID)
			}
			if err != nil {
				log.Println("Failed to delete user sessions:", err)
			}
		}
		if err := utils.DeleteSession(ctx, a.Redis, st.Value); err != nil {
			log.Println("Failed to delete session:", err)
		}
	}

	utils.ClearSessionCookie(w, a.Session.Secure)
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out successfully"})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request, userID int64) {
	user, err := a.Store.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, models.AuthError("Authentication required"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Theme:    user.ThemePreference,
	})
}
