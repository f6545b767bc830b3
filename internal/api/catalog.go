package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/meur/pokedex/internal/catalog"
)

const (
	defaultPageLimit  = 20
	defaultPageOffset = 0
)

// handleListPokemon returns one page of the catalog listing
func (s *Server) handleListPokemon(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", defaultPageOffset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.catalog.ListItems(r.Context(), limit, offset)
	if err != nil {
		s.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// handleGetPokemon returns a single Pokémon by name or id
func (s *Server) handleGetPokemon(w http.ResponseWriter, r *http.Request) {
	detail, err := s.catalog.FetchItem(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		s.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// handleGetPokemonByType returns every Pokémon of a type
func (s *Server) handleGetPokemonByType(w http.ResponseWriter, r *http.Request) {
	typeName := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "typeName")))

	items, err := s.catalog.ListItemsByType(r.Context(), typeName)
	if err != nil {
		s.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"type":        typeName,
		"pokemon":     items,
		"total_count": len(items),
	})
}

// respondCatalogError maps a catalog failure kind onto a response status.
// Internal failures are logged with detail and reported generically.
func (s *Server) respondCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *catalog.Error
	if !errors.As(err, &ce) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Unclassified catalog failure")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch ce.Kind {
	case catalog.KindInvalidArgument:
		if ce.Identifier != "" {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid argument: %s", ce.Identifier))
		} else {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid argument: %v", ce.Err))
		}
	case catalog.KindNotFound:
		if ce.Op == catalog.OpListItemsByType {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Type '%s' not found", ce.Identifier))
		} else {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Pokemon '%s' not found", ce.Identifier))
		}
	case catalog.KindUnavailable:
		if ce.Timeout {
			respondError(w, http.StatusGatewayTimeout, "Pokemon API timed out")
		} else {
			respondError(w, http.StatusServiceUnavailable, "Pokemon API unavailable")
		}
	case catalog.KindUpstream:
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Pokemon API error: status %d", ce.StatusCode))
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("op", ce.Op).Msg("Catalog call failed internally")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
