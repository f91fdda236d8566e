package handlers

import (
	"errors"
	"net/http"

	"taskflow/models"
	"taskflow/store"
)

type themeRequest struct {
	Theme string `json:"theme"`
}

// UpdateTheme stores the caller's light/dark preference.
func (a *App) UpdateTheme(w http.ResponseWriter, r *http.Request, userID int64) {
	var req themeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Theme != models.ThemeLight && req.Theme != models.ThemeDark {
		writeError(w, models.ValidationError("Theme must be light or dark"))
		return
	}

	err := a.Store.UpdateTheme(r.Context(), userID, req.Theme)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, models.AuthError("Authentication required"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeRequest{Theme: req.Theme})
}

func (a *App) Categories(w http.ResponseWriter, r *http.Request, userID int64) {
	categories, err := a.Store.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *App) Tags(w http.ResponseWriter, r *http.Request, userID int64) {
	tags, err := a.Store.ListTags(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
