package handlers

import (
	"net/http"

	"taskflow/tasks"
)

// ListTasks returns the caller's tasks filtered by the status, category,
// priority and search query parameters.
func (a *App) ListTasks(w http.ResponseWriter, r *http.Request, userID int64) {
	q := r.URL.Query()
	list, err := a.Tasks.List(r.Context(), userID, tasks.FilterParams{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) SearchTasks(w http.ResponseWriter, r *http.Request, userID int64) {
	list, err := a.Tasks.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) GetTask(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := a.Tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *App) CreateTask(w http.ResponseWriter, r *http.Request, userID int64) {
	var in tasks.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	res, err := a.Tasks.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdateTask serves both PUT and PATCH. The body is handed to the service
// as-is so explicit nulls survive decoding.
func (a *App) UpdateTask(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.Tasks.Update(r.Context(), userID, taskID, body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Task updated successfully"})
}

func (a *App) DeleteTask(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.Tasks.Delete(r.Context(), userID, taskID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Task deleted successfully"})
}

func (a *App) Overview(w http.ResponseWriter, r *http.Request, userID int64) {
	overview, err := a.Tasks.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
