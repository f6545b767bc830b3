package storage

import (
	"context"
	"time"

	"github.com/meur/pokedex/internal/models"
)

const entryColumns = `id, owner_id, pokemon_id, pokemon_name, pokemon_sprite, is_captured,
	capture_date, nickname, notes, favorite, created_at`

// CreateEntry adds a Pokémon to the owner's Pokédex. A captured entry
// without a capture date is stamped with the current time.
func (s *Session) CreateEntry(ctx context.Context, ownerID int64, in *models.PokedexEntryCreate) (*models.PokedexEntry, error) {
	now := time.Now().UTC()

	captureDate := in.CaptureDate
	if in.IsCaptured && captureDate == nil {
		captureDate = &now
	}

	res, err := s.tx.ExecContext(ctx, `
		INSERT INTO pokedex_entries (owner_id, pokemon_id, pokemon_name, pokemon_sprite,
			is_captured, capture_date, nickname, notes, favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ownerID, in.PokemonID, in.PokemonName, in.PokemonSprite,
		in.IsCaptured, captureDate, in.Nickname, in.Notes, in.Favorite, now)
	if err != nil {
		return nil, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.PokedexEntry{
		ID:            id,
		OwnerID:       ownerID,
		PokemonID:     in.PokemonID,
		PokemonName:   in.PokemonName,
		PokemonSprite: in.PokemonSprite,
		IsCaptured:    in.IsCaptured,
		CaptureDate:   captureDate,
		Nickname:      in.Nickname,
		Notes:         in.Notes,
		Favorite:      in.Favorite,
		CreatedAt:     now,
	}, nil
}

// GetEntry returns an entry by ID
func (s *Session) GetEntry(ctx context.Context, id int64) (*models.PokedexEntry, error) {
	var e models.PokedexEntry
	err := s.tx.GetContext(ctx, &e, `SELECT `+entryColumns+` FROM pokedex_entries WHERE id = ?`, id)
	if err != nil {
		return nil, classify(err)
	}
	return &e, nil
}

// ListEntries returns the owner's entries in insertion order
func (s *Session) ListEntries(ctx context.Context, ownerID int64, capturedOnly bool) ([]models.PokedexEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM pokedex_entries WHERE owner_id = ?`
	if capturedOnly {
		query += ` AND is_captured = 1`
	}
	query += ` ORDER BY id`

	entries := []models.PokedexEntry{}
	if err := s.tx.SelectContext(ctx, &entries, query, ownerID); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// UpdateEntry applies the non-nil fields of update. Marking an entry as
// captured keeps an existing capture date; releasing it clears the date.
func (s *Session) UpdateEntry(ctx context.Context, id int64, update *models.PokedexEntryUpdate) error {
	var sets []string
	var args []interface{}

	if update.IsCaptured != nil {
		sets = append(sets, "is_captured = ?")
		args = append(args, *update.IsCaptured)

		switch {
		case update.CaptureDate != nil:
			sets = append(sets, "capture_date = ?")
			args = append(args, update.CaptureDate.UTC())
		case *update.IsCaptured:
			sets = append(sets, "capture_date = COALESCE(capture_date, ?)")
			args = append(args, time.Now().UTC())
		default:
			sets = append(sets, "capture_date = NULL")
		}
	} else if update.CaptureDate != nil {
		sets = append(sets, "capture_date = ?")
		args = append(args, update.CaptureDate.UTC())
	}
	if update.Nickname != nil {
		sets = append(sets, "nickname = ?")
		args = append(args, *update.Nickname)
	}
	if update.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *update.Notes)
	}
	if update.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *update.Favorite)
	}

	return s.execUpdate(ctx, "pokedex_entries", sets, args, id)
}
