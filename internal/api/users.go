package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/meur/pokedex/internal/models"
	"github.com/meur/pokedex/internal/storage"
)

// handleCreateUser registers a new trainer
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if !s.decodeAndValidate(w, r, &in) {
		return
	}

	sess := sessionFrom(r)
	user, err := sess.CreateUser(r.Context(), &in)
	if err != nil {
		respondStoreError(w, r, err, "User")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a user by ID
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := sessionFrom(r).GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, r, err, "User")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// handleUpdateUser updates username, email or active flag
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update models.UserUpdate
	if !s.decodeAndValidate(w, r, &update) {
		return
	}

	sess := sessionFrom(r)
	if err := sess.UpdateUser(r.Context(), userID, &update); err != nil {
		respondStoreError(w, r, err, "User")
		return
	}
	user, err := sess.GetUser(r.Context(), userID)
	if err != nil {
		respondStoreError(w, r, err, "User")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// respondStoreError maps storage sentinels onto response statuses
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, storage.ErrTeamFull):
		respondError(w, http.StatusConflict, "Team already has 6 members")
	case errors.Is(err, storage.ErrConflict):
		respondError(w, http.StatusConflict, entity+" conflicts with an existing record")
	case errors.Is(err, storage.ErrEntryNotOwned):
		respondError(w, http.StatusBadRequest, "Pokedex entry does not belong to the team's trainer")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("entity", entity).Msg("Storage operation failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
