package models

import (
	"time"
)

// PokedexEntry is one Pokémon tracked in a user's Pokédex.
// Pokemon* fields mirror the catalog at the time the entry was created.
type PokedexEntry struct {
	ID            int64      `db:"id" json:"id"`
	OwnerID       int64      `db:"owner_id" json:"owner_id"`
	PokemonID     int        `db:"pokemon_id" json:"pokemon_id"`
	PokemonName   string     `db:"pokemon_name" json:"pokemon_name"`
	PokemonSprite string     `db:"pokemon_sprite" json:"pokemon_sprite"`
	IsCaptured    bool       `db:"is_captured" json:"is_captured"`
	CaptureDate   *time.Time `db:"capture_date" json:"capture_date,omitempty"`
	Nickname      *string    `db:"nickname" json:"nickname,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	Favorite      bool       `db:"favorite" json:"favorite"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// PokedexEntryCreate is the request body for adding a Pokémon to a Pokédex.
// Empty name/sprite are filled from the catalog.
type PokedexEntryCreate struct {
	PokemonID     int        `json:"pokemon_id" validate:"required,min=1"`
	PokemonName   string     `json:"pokemon_name,omitempty" validate:"max=100"`
	PokemonSprite string     `json:"pokemon_sprite,omitempty" validate:"omitempty,url"`
	IsCaptured    bool       `json:"is_captured"`
	CaptureDate   *time.Time `json:"capture_date,omitempty"`
	Nickname      *string    `json:"nickname,omitempty" validate:"omitempty,max=50"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	Favorite      bool       `json:"favorite"`
}

// PokedexEntryUpdate is the request body for updating an entry
type PokedexEntryUpdate struct {
	IsCaptured  *bool      `json:"is_captured,omitempty"`
	CaptureDate *time.Time `json:"capture_date,omitempty"`
	Nickname    *string    `json:"nickname,omitempty" validate:"omitempty,max=50"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	Favorite    *bool      `json:"favorite,omitempty"`
}
