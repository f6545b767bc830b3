package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/meur/pokedex/internal/models"
)

// handleCreateEntry adds a Pokémon to a user's Pokédex. Name and sprite
// left empty are filled from the catalog. It runs outside the request
// session so that no write lock is held during the catalog call.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in models.PokedexEntryCreate
	if !s.decodeAndValidate(w, r, &in) {
		return
	}

	if err := s.checkUser(r.Context(), userID); err != nil {
		respondStoreError(w, r, err, "User")
		return
	}

	if in.PokemonName == "" || in.PokemonSprite == "" {
		detail, err := s.catalog.FetchItemByID(r.Context(), in.PokemonID)
		if err != nil {
			s.respondCatalogError(w, r, err)
			return
		}
		if in.PokemonName == "" {
			in.PokemonName = detail.Name
		}
		if in.PokemonSprite == "" && detail.SpriteURL != nil {
			in.PokemonSprite = *detail.SpriteURL
		}
	}

	sess, err := s.store.Begin(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to open storage session")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer sess.Close()

	entry, err := sess.CreateEntry(r.Context(), userID, &in)
	if err != nil {
		respondStoreError(w, r, err, "Pokedex entry")
		return
	}
	if err := sess.Commit(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to commit storage session")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// checkUser reports storage.ErrNotFound for an unknown user
func (s *Server) checkUser(ctx context.Context, userID int64) error {
	sess, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	_, err = sess.GetUser(ctx, userID)
	return err
}

// handleListEntries returns a user's Pokédex, optionally only captured entries
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	capturedOnly := r.URL.Query().Get("captured") == "true"

	sess := sessionFrom(r)
	if _, err := sess.GetUser(r.Context(), userID); err != nil {
		respondStoreError(w, r, err, "User")
		return
	}

	entries, err := sess.ListEntries(r.Context(), userID, capturedOnly)
	if err != nil {
		respondStoreError(w, r, err, "Pokedex entry")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":     entries,
		"total_count": len(entries),
	})
}

// handleGetEntry returns a single Pokédex entry
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := urlID(r, "entryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := sessionFrom(r).GetEntry(r.Context(), entryID)
	if err != nil {
		respondStoreError(w, r, err, "Pokedex entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleUpdateEntry updates capture state, nickname, notes or favorite flag
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := urlID(r, "entryID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update models.PokedexEntryUpdate
	if !s.decodeAndValidate(w, r, &update) {
		return
	}

	sess := sessionFrom(r)
	if err := sess.UpdateEntry(r.Context(), entryID, &update); err != nil {
		respondStoreError(w, r, err, "Pokedex entry")
		return
	}
	entry, err := sess.GetEntry(r.Context(), entryID)
	if err != nil {
		respondStoreError(w, r, err, "Pokedex entry")
		return
	}
	if !commit(w, r) {
		return
	}

	respondJSON(w, http.StatusOK, entry)
}
