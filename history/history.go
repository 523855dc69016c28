// Package history persists one row per completed fetch cycle so operators
// can see room counts and data sources over time.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Bitte-ein-Git/wiimmfi-api/wiimmfi"
)

// ErrNotFound is returned when no cycle with the given id exists.
var ErrNotFound = errors.New("history: cycle not found")

// Schema for the fetch_cycles table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS fetch_cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fetched_at INTEGER NOT NULL,
	source TEXT NOT NULL,
	room_count INTEGER NOT NULL,
	player_count INTEGER NOT NULL,
	body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_cycles_ts ON fetch_cycles(fetched_at);
`

// Cycle is one recorded fetch cycle.
type Cycle struct {
	ID          int64     `json:"id"`
	FetchedAt   time.Time `json:"fetched_at"`
	Source      string    `json:"source"`
	RoomCount   int       `json:"room_count"`
	PlayerCount int       `json:"player_count"`
}

// Store persists fetch cycles to a SQLite table.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the fetch_cycles table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Record inserts one row for a completed fetch cycle, snapshot body included.
// Cycles complete every couple of minutes at most, so a synchronous insert is
// fine.
func (s *Store) Record(snap *wiimmfi.Snapshot) error {
	players := 0
	for _, r := range snap.Rooms {
		players += len(r.Players)
	}

	_, err := s.db.Exec(
		`INSERT INTO fetch_cycles (fetched_at, source, room_count, player_count, body)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.FetchedAt.UnixMicro(), snap.Source, len(snap.Rooms), players, string(snap.JSON),
	)
	if err != nil {
		return fmt.Errorf("history: insert cycle: %w", err)
	}
	return nil
}

// Body returns the stored snapshot JSON of one cycle.
func (s *Store) Body(ctx context.Context, id int64) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM fetch_cycles WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("history: query body: %w", err)
	}
	return body, nil
}

// Recent returns up to limit cycles, newest first. Bodies are omitted; fetch
// them per cycle with Body.
func (s *Store) Recent(ctx context.Context, limit int) ([]Cycle, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fetched_at, source, room_count, player_count
		 FROM fetch_cycles ORDER BY fetched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []Cycle{}
	for rows.Next() {
		var c Cycle
		var ts int64
		if err := rows.Scan(&c.ID, &ts, &c.Source, &c.RoomCount, &c.PlayerCount); err != nil {
			return nil, fmt.Errorf("history: scan cycle: %w", err)
		}
		c.FetchedAt = time.UnixMicro(ts).UTC()
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}
