// Package seed loads demo trainers and their Pokédex entries into the store,
// filling Pokémon names and sprites from the catalog.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meur/pokedex/internal/catalog"
	"github.com/meur/pokedex/internal/models"
	"github.com/meur/pokedex/internal/storage"
)

// fetchConcurrency bounds parallel catalog lookups
const fetchConcurrency = 4

// Catalog resolves Pokémon ids
type Catalog interface {
	FetchItemByID(ctx context.Context, id int) (*catalog.ItemDetail, error)
}

// File is the seed document
type File struct {
	Users []User `json:"users"`
}

// User is a trainer with the entries to add to their Pokédex
type User struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Pokedex  []Entry `json:"pokedex"`
}

// Entry is one Pokédex entry of a seeded trainer
type Entry struct {
	PokemonID  int     `json:"pokemon_id"`
	IsCaptured bool    `json:"is_captured"`
	Nickname   *string `json:"nickname,omitempty"`
	Favorite   bool    `json:"favorite"`
}

// Result counts what a run created
type Result struct {
	Users   int
	Skipped int
	Entries int
}

// Load reads a seed document from disk
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// Run creates every user of f that does not exist yet, with their entries,
// in a single session. Existing usernames or emails are skipped.
func Run(ctx context.Context, store *storage.Store, cat Catalog, f *File, logger zerolog.Logger) (*Result, error) {
	details, err := fetchDetails(ctx, cat, f, logger)
	if err != nil {
		return nil, err
	}

	sess, err := store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	res := &Result{}
	for _, u := range f.Users {
		user, err := sess.CreateUser(ctx, &models.UserCreate{Username: u.Username, Email: u.Email})
		if errors.Is(err, storage.ErrConflict) {
			logger.Warn().Str("username", u.Username).Msg("User already exists, skipping")
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", u.Username, err)
		}
		res.Users++

		for _, e := range u.Pokedex {
			d := details[e.PokemonID]
			in := &models.PokedexEntryCreate{
				PokemonID:   e.PokemonID,
				PokemonName: d.Name,
				IsCaptured:  e.IsCaptured,
				Nickname:    e.Nickname,
				Favorite:    e.Favorite,
			}
			if d.SpriteURL != nil {
				in.PokemonSprite = *d.SpriteURL
			}
			if _, err := sess.CreateEntry(ctx, user.ID, in); err != nil {
				return nil, fmt.Errorf("failed to add pokemon %d for %s: %w", e.PokemonID, u.Username, err)
			}
			res.Entries++
		}
	}

	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// fetchDetails looks up every distinct Pokémon id of f concurrently
func fetchDetails(ctx context.Context, cat Catalog, f *File, logger zerolog.Logger) (map[int]*catalog.ItemDetail, error) {
	ids := make(map[int]struct{})
	for _, u := range f.Users {
		for _, e := range u.Pokedex {
			ids[e.PokemonID] = struct{}{}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	var mu sync.Mutex
	details := make(map[int]*catalog.ItemDetail, len(ids))

	for id := range ids {
		g.Go(func() error {
			d, err := cat.FetchItemByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch pokemon %d: %w", id, err)
			}
			logger.Debug().Int("pokemon_id", id).Str("name", d.Name).Msg("Fetched seed pokemon")

			mu.Lock()
			details[id] = d
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
