// internal/rank/store.go
//
// Leaderboard of the fastest completed wins, read from the denormalized
// finish columns on games. Anonymous players show up as "guest".

package rank

import (
	"context"
	"database/sql"
)

// Row is one leaderboard entry.
type Row struct {
	Username  string `json:"username"`
	Rounds    int    `json:"rounds"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store reads leaderboard rows from the game database.
type Store struct{ db *sql.DB }

// NewStore wraps an opened game database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Fastest returns the quickest wins for a testament/difficulty pairing,
// fastest first.
func (s *Store) Fastest(ctx context.Context, testament, difficulty, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(u.username, 'guest'), g.rounds_done, g.elapsed_ms
		FROM games g
		LEFT JOIN users u ON u.id = g.user_id
		WHERE g.status='won' AND g.testament=? AND g.difficulty=?
		ORDER BY g.elapsed_ms ASC, g.finished_at ASC
		LIMIT ?`, testament, difficulty, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Username, &r.Rounds, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
