package storage

import (
	"context"
	"time"

	"github.com/meur/pokedex/internal/models"
)

// CreateTeam creates an empty team for the trainer
func (s *Session) CreateTeam(ctx context.Context, trainerID int64, in *models.TeamCreate) (*models.Team, error) {
	now := time.Now().UTC()

	res, err := s.tx.ExecContext(ctx, `
		INSERT INTO teams (trainer_id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, trainerID, in.Name, in.Description, now)
	if err != nil {
		return nil, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Team{
		ID:          id,
		TrainerID:   trainerID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		Members:     []models.TeamMember{},
	}, nil
}

// GetTeam returns a team with its members ordered by position
func (s *Session) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	var t models.Team
	err := s.tx.GetContext(ctx, &t, `
		SELECT id, trainer_id, name, description, created_at
		FROM teams WHERE id = ?
	`, id)
	if err != nil {
		return nil, classify(err)
	}

	t.Members = []models.TeamMember{}
	err = s.tx.SelectContext(ctx, &t.Members, `
		SELECT id, team_id, pokedex_entry_id, position
		FROM team_members WHERE team_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

// ListTeams returns summaries of the trainer's teams
func (s *Session) ListTeams(ctx context.Context, trainerID int64) ([]models.TeamSummary, error) {
	teams := []models.TeamSummary{}
	err := s.tx.SelectContext(ctx, &teams, `
		SELECT t.id, t.name, t.created_at, COUNT(m.id) AS member_count
		FROM teams t LEFT JOIN team_members m ON m.team_id = t.id
		WHERE t.trainer_id = ?
		GROUP BY t.id, t.name, t.created_at
		ORDER BY t.id
	`, trainerID)
	if err != nil {
		return nil, classify(err)
	}
	return teams, nil
}

// UpdateTeam applies the non-nil fields of update
func (s *Session) UpdateTeam(ctx context.Context, id int64, update *models.TeamUpdate) error {
	var sets []string
	var args []interface{}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}

	return s.execUpdate(ctx, "teams", sets, args, id)
}

// AddTeamMember places one of the trainer's entries at a free position
func (s *Session) AddTeamMember(ctx context.Context, teamID int64, in *models.TeamMemberCreate) (*models.TeamMember, error) {
	var trainerID int64
	if err := s.tx.GetContext(ctx, &trainerID, `SELECT trainer_id FROM teams WHERE id = ?`, teamID); err != nil {
		return nil, classify(err)
	}

	var ownerID int64
	if err := s.tx.GetContext(ctx, &ownerID, `SELECT owner_id FROM pokedex_entries WHERE id = ?`, in.PokedexEntryID); err != nil {
		return nil, classify(err)
	}
	if ownerID != trainerID {
		return nil, ErrEntryNotOwned
	}

	var count int
	if err := s.tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM team_members WHERE team_id = ?`, teamID); err != nil {
		return nil, classify(err)
	}
	if count >= models.MaxTeamSize {
		return nil, ErrTeamFull
	}

	res, err := s.tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, pokedex_entry_id, position)
		VALUES (?, ?, ?)
	`, teamID, in.PokedexEntryID, in.Position)
	if err != nil {
		return nil, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.TeamMember{
		ID:             id,
		TeamID:         teamID,
		PokedexEntryID: in.PokedexEntryID,
		Position:       in.Position,
	}, nil
}
