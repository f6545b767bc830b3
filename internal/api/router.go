package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/meur/pokedex/internal/catalog"
	"github.com/meur/pokedex/internal/config"
	"github.com/meur/pokedex/internal/metrics"
	"github.com/meur/pokedex/internal/storage"
)

// Catalog is the subset of the upstream client used by the handlers
type Catalog interface {
	FetchItem(ctx context.Context, identifier string) (*catalog.ItemDetail, error)
	FetchItemByID(ctx context.Context, id int) (*catalog.ItemDetail, error)
	ListItems(ctx context.Context, limit, offset int) (*catalog.Page, error)
	ListItemsByType(ctx context.Context, typeName string) ([]catalog.ItemSummary, error)
}

// Options carries the optional server collaborators
type Options struct {
	AllowedOrigins []string
	RateLimit      config.RateLimitConfig
	Metrics        *metrics.Metrics
}

// Server holds the HTTP server dependencies
type Server struct {
	store    *storage.Store
	catalog  Catalog
	logger   zerolog.Logger
	validate *validator.Validate
	opts     Options
	router   chi.Router
}

// New creates a new API server
func New(store *storage.Store, cat Catalog, logger zerolog.Logger, opts Options) *Server {
	s := &Server{
		store:    store,
		catalog:  cat,
		logger:   logger.With().Str("component", "api").Logger(),
		validate: newValidator(),
		opts:     opts,
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	if s.opts.Metrics != nil {
		s.router.Use(s.opts.Metrics.Middleware)
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)

	s.router.Route("/api", func(r chi.Router) {
		if s.opts.RateLimit.Enabled {
			r.Use(newRateLimiter(s.opts.RateLimit.RequestsPerSecond, s.opts.RateLimit.Burst).Handler)
		}

		// Catalog
		r.Get("/pokemon", s.handleListPokemon)
		r.Get("/pokemon/{identifier}", s.handleGetPokemon)
		r.Get("/types/{typeName}/pokemon", s.handleGetPokemonByType)

		// Opens its own sessions around the catalog call
		r.Post("/users/{userID}/pokedex", s.handleCreateEntry)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			// Users
			r.Post("/users", s.handleCreateUser)
			r.Get("/users/{userID}", s.handleGetUser)
			r.Put("/users/{userID}", s.handleUpdateUser)

			// Pokedex
			r.Get("/users/{userID}/pokedex", s.handleListEntries)
			r.Get("/pokedex/{entryID}", s.handleGetEntry)
			r.Put("/pokedex/{entryID}", s.handleUpdateEntry)

			// Teams
			r.Post("/users/{userID}/teams", s.handleCreateTeam)
			r.Get("/users/{userID}/teams", s.handleListTeams)
			r.Get("/teams/{teamID}", s.handleGetTeam)
			r.Put("/teams/{teamID}", s.handleUpdateTeam)
			r.Post("/teams/{teamID}/members", s.handleAddTeamMember)
		})
	})

	// Health check
	s.router.Get("/health", s.handleHealth)

	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler())
	}
}

// handleRoot reports that the API is up. It does not touch the catalog.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Pokedex API online"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Database ping failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate writes a 400 and returns false when the body is unusable
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(r, v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s validation", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// urlID parses a positive integer URL parameter
func urlID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
