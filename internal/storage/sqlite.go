package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness or check constraint
	ErrConflict = errors.New("conflict")
	// ErrTeamFull is returned when a team already has six members
	ErrTeamFull = errors.New("team already has 6 members")
	// ErrEntryNotOwned is returned when a team member belongs to another trainer
	ErrEntryNotOwned = errors.New("pokedex entry does not belong to the team's trainer")
)

// Store handles all database operations
type Store struct {
	db *sqlx.DB
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}

	// Sessions read before they write; an immediate lock makes a second writer
	// wait on the busy timeout instead of failing on a stale snapshot.
	db, err := sqlx.Open("sqlite3", dbPath+sep+"_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// NewWithDB wraps an already opened connection without migrating it
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "sqlite3")}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist yet
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pokedex_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			pokemon_id INTEGER NOT NULL,
			pokemon_name TEXT NOT NULL,
			pokemon_sprite TEXT NOT NULL DEFAULT '',
			is_captured BOOLEAN NOT NULL DEFAULT 0,
			capture_date DATETIME,
			nickname TEXT CHECK (nickname IS NULL OR length(nickname) <= 50),
			notes TEXT CHECK (notes IS NULL OR length(notes) <= 500),
			favorite BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_owner ON pokedex_entries(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_pokemon ON pokedex_entries(pokemon_id)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trainer_id INTEGER NOT NULL REFERENCES users(id),
			name TEXT NOT NULL CHECK (length(name) <= 100),
			description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_teams_trainer ON teams(trainer_id)`,
		`CREATE TABLE IF NOT EXISTS team_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			team_id INTEGER NOT NULL REFERENCES teams(id),
			pokedex_entry_id INTEGER NOT NULL REFERENCES pokedex_entries(id),
			position INTEGER NOT NULL CHECK (position BETWEEN 1 AND 6),
			UNIQUE(team_id, position),
			UNIQUE(team_id, pokedex_entry_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Begin opens a unit of work holding the write lock until Commit or Close.
// Callers must Close it; Close after Commit is a no-op.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}
	return &Session{tx: tx}, nil
}

// Session is a transaction-scoped view of the store, one per request
type Session struct {
	tx   *sqlx.Tx
	done bool
}

// Commit persists every write made through the session
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Commit()
}

// Close discards uncommitted writes
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Rollback()
}

// classify maps driver errors onto the package sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrConflict, sqliteErr.Error())
	}
	return err
}

// buildUpdate renders "UPDATE table SET a = ?, b = ? WHERE id = ?"
func buildUpdate(table string, sets []string, args []interface{}, id int64) (string, []interface{}) {
	args = append(args, id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", ")), args
}

func (s *Session) execUpdate(ctx context.Context, table string, sets []string, args []interface{}, id int64) error {
	if len(sets) == 0 {
		var exists int
		err := s.tx.GetContext(ctx, &exists, fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", table), id)
		return classify(err)
	}

	query, args := buildUpdate(table, sets, args, id)
	res, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
