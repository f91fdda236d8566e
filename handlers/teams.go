package handlers

import (
	"net/http"

	"taskflow/teams"
)

func (a *App) ListTeams(w http.ResponseWriter, r *http.Request, userID int64) {
	list, err := a.Teams.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) CreateTeam(w http.ResponseWriter, r *http.Request, userID int64) {
	var in teams.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	team, err := a.Teams.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (a *App) TeamMembers(w http.ResponseWriter, r *http.Request, userID int64) {
	teamID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	members, err := a.Teams.Members(r.Context(), userID, teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (a *App) InviteMember(w http.ResponseWriter, r *http.Request, userID int64) {
	teamID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in teams.InviteInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := a.Teams.Invite(r.Context(), userID, teamID, in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "User invited successfully"})
}

func (a *App) AssignTask(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in teams.AssignInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := a.Teams.Assign(r.Context(), userID, taskID, in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Task assigned successfully"})
}

func (a *App) ListComments(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	comments, err := a.Teams.Comments(r.Context(), userID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (a *App) AddComment(w http.ResponseWriter, r *http.Request, userID int64) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in teams.CommentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	comment, err := a.Teams.AddComment(r.Context(), userID, taskID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
