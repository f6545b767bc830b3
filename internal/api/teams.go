package api

import (
	"net/http"

	"github.com/meur/pokedex/internal/models"
)

// handleCreateTeam creates an empty team for a trainer
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in models.TeamCreate
	if !s.decodeAndValidate(w, r, &in) {
		return
	}

	sess := sessionFrom(r)
	if _, err := sess.GetUser(r.Context(), userID); err != nil {
		respondStoreError(w, r, err, "User")
		return
	}

	team, err := sess.CreateTeam(r.Context(), userID, &in)
	if err != nil {
		respondStoreError(w, r, err, "Team")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusCreated, team)
}

// handleListTeams returns summaries of a trainer's teams
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := sessionFrom(r)
	if _, err := sess.GetUser(r.Context(), userID); err != nil {
		respondStoreError(w, r, err, "User")
		return
	}

	teams, err := sess.ListTeams(r.Context(), userID)
	if err != nil {
		respondStoreError(w, r, err, "Team")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// handleGetTeam returns a team with its members
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := sessionFrom(r).GetTeam(r.Context(), teamID)
	if err != nil {
		respondStoreError(w, r, err, "Team")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// handleUpdateTeam renames a team or changes its description
func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update models.TeamUpdate
	if !s.decodeAndValidate(w, r, &update) {
		return
	}

	sess := sessionFrom(r)
	if err := sess.UpdateTeam(r.Context(), teamID, &update); err != nil {
		respondStoreError(w, r, err, "Team")
		return
	}
	team, err := sess.GetTeam(r.Context(), teamID)
	if err != nil {
		respondStoreError(w, r, err, "Team")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// handleAddTeamMember places one of the trainer's entries in the team
func (s *Server) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in models.TeamMemberCreate
	if !s.decodeAndValidate(w, r, &in) {
		return
	}

	member, err := sessionFrom(r).AddTeamMember(r.Context(), teamID, &in)
	if err != nil {
		respondStoreError(w, r, err, "Team member")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusCreated, member)
}
