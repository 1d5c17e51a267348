// internal/history/history.go
//
// Best-effort SQLite history for finished games and solo runs.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout).
//   - Creating the schema idempotently at open.
//   - Recording multiplayer standings and solo results.
//   - Serving the all-time leaderboard.
//
// The engine never depends on this package succeeding: in-memory play is
// authoritative, and every write failure is logged and swallowed.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id     TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    display_name TEXT NOT NULL,
    score       INTEGER NOT NULL,
    correct     INTEGER NOT NULL,
    answered    INTEGER NOT NULL,
    rank        INTEGER NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS solo_results (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id     TEXT NOT NULL,
    score       INTEGER NOT NULL,
    total       INTEGER NOT NULL,
    percentage  INTEGER NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results(user_id);
`

// Store wraps the history database. A nil *Store is valid and records
// nothing, so callers never need to branch on whether history is enabled.
type Store struct {
	db *sql.DB
}

// Open opens (creating if missing) the SQLite file at dsn and applies the
// schema. The parent directory is created for relative paths.
func Open(dsn string) (*Store, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordGame writes one row per standing. Failures are logged and dropped.
func (s *Store) RecordGame(roomID string, standings []engine.Standing) {
	if s == nil || s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("history: begin game record")
		return
	}
	for _, st := range standings {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO game_results (room_id, user_id, display_name, score, correct, answered, rank)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			roomID, st.ID, st.DisplayName, st.Score, st.CorrectAnswers, st.QuestionsAnswered, st.Rank,
		); err != nil {
			_ = tx.Rollback()
			log.Warn().Err(err).Str("room", roomID).Msg("history: record game")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("history: commit game record")
	}
}

// RecordSolo writes one finished solo run. Failures are logged and dropped.
func (s *Store) RecordSolo(userID string, score, total, percentage int) {
	if s == nil || s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO solo_results (user_id, score, total, percentage)
        VALUES (?, ?, ?, ?)`,
		userID, score, total, percentage,
	); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("history: record solo")
	}
}

// AllTimeRow is one line of the all-time leaderboard.
type AllTimeRow struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TotalScore  int    `json:"totalScore"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
}

// AllTimeLeaderboard aggregates multiplayer results across all recorded
// games, ordered by total score. Default limit is 20.
func (s *Store) AllTimeLeaderboard(ctx context.Context, limit int) ([]AllTimeRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id,
               MAX(display_name),
               SUM(score),
               COUNT(1),
               SUM(CASE WHEN rank = 1 THEN 1 ELSE 0 END)
        FROM game_results
        GROUP BY user_id
        ORDER BY SUM(score) DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AllTimeRow, 0, limit)
	for rows.Next() {
		var r AllTimeRow
		if err := rows.Scan(&r.UserID, &r.DisplayName, &r.TotalScore, &r.GamesPlayed, &r.Wins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
