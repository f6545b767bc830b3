package models

import (
	"time"
)

// MaxTeamSize is the number of slots in a battle team
const MaxTeamSize = 6

// Team is a battle team of up to six Pokédex entries
type Team struct {
	ID          int64        `db:"id" json:"id"`
	TrainerID   int64        `db:"trainer_id" json:"trainer_id"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	Members     []TeamMember `db:"-" json:"members"`
}

// TeamMember places a Pokédex entry at a position (1-6) in a team
type TeamMember struct {
	ID             int64 `db:"id" json:"id"`
	TeamID         int64 `db:"team_id" json:"team_id"`
	PokedexEntryID int64 `db:"pokedex_entry_id" json:"pokedex_entry_id"`
	Position       int   `db:"position" json:"position"`
}

// TeamCreate is the request body for creating a team
type TeamCreate struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
}

// TeamUpdate is the request body for updating a team
type TeamUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
}

// TeamMemberCreate is the request body for adding a member to a team
type TeamMemberCreate struct {
	PokedexEntryID int64 `json:"pokedex_entry_id" validate:"required,min=1"`
	Position       int   `json:"position" validate:"required,min=1,max=6"`
}

// TeamSummary is a lightweight version for listings
type TeamSummary struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	MemberCount int       `db:"member_count" json:"member_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
