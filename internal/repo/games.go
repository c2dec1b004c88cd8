// internal/repo/games.go
//
// Persistence for the Game aggregate (game, rounds, guesses).
// Responsibilities:
//   - Create a game with its initial round.
//   - Reconstruct the full aggregate (rounds and guesses in pick/guess
//     order); lives and status are derived by the caller from the history.
//   - Append guesses and rounds. Both are single-row, append-only writes.
//   - Record terminal outcomes for the leaderboard and history listings.
//
// This package is the sole writer of game state. Rows are never mutated
// except the denormalized finish columns on games, which are written once at
// a terminal transition and never read back into the state machine.

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/game"
)

// ErrNotFound is returned for unknown game or round ids.
var ErrNotFound = errors.New("repo: not found")

// timeLayout is how timestamps are stored (TEXT columns, UTC).
const timeLayout = time.RFC3339

// GameRepository owns the games/rounds/guesses tables and asks the verse
// store for round targets.
type GameRepository struct {
	db     *sql.DB
	verses *bible.Store
}

// New constructs a GameRepository.
func New(db *sql.DB, verses *bible.Store) *GameRepository {
	return &GameRepository{db: db, verses: verses}
}

// Create inserts a game row and its initial round (no books excluded yet)
// and returns the reconstructed aggregate.
func (r *GameRepository) Create(ctx context.Context, userID string, translationID int64, testament int, difficulty game.Difficulty) (*game.Game, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO games (user_id, translation, testament, difficulty, created_at)
		 VALUES (?,?,?,?,?)`,
		userID, translationID, testament, int(difficulty), now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	gameID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}

	min, max := bible.BookRange(testament)
	v, err := r.verses.RandomVerse(ctx, translationID, min, max, nil)
	if err != nil {
		return nil, err
	}
	if err := r.insertRound(ctx, gameID, v, now); err != nil {
		return nil, err
	}
	return r.Load(ctx, gameID)
}

// Load reconstructs the full aggregate for one game. Rounds are ordered by
// pick time ascending and guesses by guess time ascending, so replaying them
// through the scoring engine yields the lives total.
func (r *GameRepository) Load(ctx context.Context, gameID int64) (*game.Game, error) {
	g := &game.Game{ID: gameID}
	var difficulty int
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, translation, testament, difficulty FROM games WHERE id=?`, gameID,
	).Scan(&g.UserID, &g.Translation, &g.Testament, &difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", gameID, err)
	}
	g.Difficulty = game.Difficulty(difficulty)

	if g.Rounds, err = r.loadRounds(ctx, gameID); err != nil {
		return nil, fmt.Errorf("load game %d: %w", gameID, err)
	}
	return g, nil
}

func (r *GameRepository) loadRounds(ctx context.Context, gameID int64) ([]game.Round, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book, chapter, verse, verse_text, picked_at
		 FROM rounds WHERE game_id=? ORDER BY picked_at ASC, id ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Round
	byID := make(map[int64]int)
	for rows.Next() {
		var rd game.Round
		var picked string
		rd.GameID = gameID
		if err := rows.Scan(&rd.ID, &rd.Location.Book, &rd.Location.Chapter, &rd.Location.Verse, &rd.Text, &picked); err != nil {
			return nil, err
		}
		rd.PickedAt = parseTime(picked)
		byID[rd.ID] = len(out)
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	grows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.round_id, g.book, g.chapter, g.made_at
		 FROM guesses g JOIN rounds r ON r.id = g.round_id
		 WHERE r.game_id=? ORDER BY g.made_at ASC, g.id ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer grows.Close()

	for grows.Next() {
		var gs game.Guess
		var chapter sql.NullInt64
		var made string
		if err := grows.Scan(&gs.ID, &gs.RoundID, &gs.Book, &chapter, &made); err != nil {
			return nil, err
		}
		if chapter.Valid {
			c := int(chapter.Int64)
			gs.Chapter = &c
		}
		gs.MadeAt = parseTime(made)
		if i, ok := byID[gs.RoundID]; ok {
			out[i].Guesses = append(out[i].Guesses, gs)
		}
	}
	return out, grows.Err()
}

// AppendGuess records a guess against the game's current (last) round. It
// never advances rounds; that is the session service's call to make.
func (r *GameRepository) AppendGuess(ctx context.Context, gameID int64, book int, chapter *int) (*game.Guess, error) {
	var roundID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM rounds WHERE game_id=? ORDER BY picked_at DESC, id DESC LIMIT 1`, gameID,
	).Scan(&roundID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d has no rounds: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("append guess: %w", err)
	}

	now := time.Now().UTC()
	var chapterArg any
	if chapter != nil {
		chapterArg = *chapter
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guesses (round_id, book, chapter, made_at) VALUES (?,?,?,?)`,
		roundID, book, chapterArg, now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("append guess: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("append guess: %w", err)
	}
	return &game.Guess{ID: id, RoundID: roundID, Book: book, Chapter: chapter, MadeAt: now}, nil
}

// AppendRound asks the verse store for a fresh verse outside the books the
// game has already targeted and inserts it as the new current round.
func (r *GameRepository) AppendRound(ctx context.Context, g *game.Game) (*game.Round, error) {
	min, max := bible.BookRange(g.Testament)
	v, err := r.verses.RandomVerse(ctx, g.Translation, min, max, g.UsedBooks())
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := r.insertRound(ctx, g.ID, v, now); err != nil {
		return nil, err
	}
	rounds, err := r.loadRounds(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("append round: %w", err)
	}
	g.Rounds = rounds
	return &rounds[len(rounds)-1], nil
}

func (r *GameRepository) insertRound(ctx context.Context, gameID int64, v *bible.Verse, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rounds (game_id, book, chapter, verse, verse_text, picked_at)
		 VALUES (?,?,?,?,?,?)`,
		gameID, v.Book, v.Chapter, v.Verse, v.Text, at.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// RecordFinish stamps the terminal outcome onto the game row. These columns
// feed the leaderboard and history listings only; the state machine always
// re-derives status from the guess log.
func (r *GameRepository) RecordFinish(ctx context.Context, gameID int64, status game.Status, roundsDone int, elapsed time.Duration) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status=?, finished_at=?, rounds_done=?, elapsed_ms=? WHERE id=?`,
		status.String(), time.Now().UTC().Format(timeLayout), roundsDone, elapsed.Milliseconds(), gameID,
	)
	if err != nil {
		return fmt.Errorf("record finish: %w", err)
	}
	return nil
}

// Summary is one row of a player's game history.
type Summary struct {
	ID         int64  `json:"id"`
	Testament  int    `json:"testament"`
	Difficulty string `json:"difficulty"`
	Status     string `json:"status"`
	Rounds     int    `json:"rounds"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// ListByUser returns the user's most recent games, newest first.
func (r *GameRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, testament, difficulty, status, rounds_done, created_at, COALESCE(finished_at, '')
		 FROM games WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var difficulty int
		if err := rows.Scan(&s.ID, &s.Testament, &difficulty, &s.Status, &s.Rounds, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, err
		}
		s.Difficulty = game.Difficulty(difficulty).Name()
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClaimAnonymous transfers games recorded under an anonymous cookie id to a
// user account after signup or login.
func (r *GameRepository) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE games SET user_id=? WHERE user_id=?`, userID, anonID)
	if err != nil {
		return fmt.Errorf("claim anonymous games: %w", err)
	}
	return nil
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
