// internal/game/types.go
//
// Core type definitions for a game session.
// Defines:
//   - Difficulty: scoring policy (easy/hard).
//   - Lives: remaining lives in half-life units.
//   - Guess, Round, Game: the reconstructed aggregate. Lives and status are
//     always derived from the guess history, never stored.

package game

import (
	"strconv"
	"time"

	"github.com/dcgray/scriptle/internal/bible"
)

// Difficulty selects the scoring policy for a game.
type Difficulty int

const (
	// Easy requires only the right book; a miss costs a full life.
	Easy Difficulty = 0
	// Hard requires the right book and chapter; right book with the wrong
	// chapter costs half a life instead of a full one.
	Hard Difficulty = 1
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool { return d == Easy || d == Hard }

// Name returns the display name of the difficulty.
func (d Difficulty) Name() string {
	if d == Hard {
		return "hard"
	}
	return "easy"
}

// Lives counts remaining lives in half-life units so the hard-mode half-life
// arithmetic stays exact integer math. 10 units = 5 lives.
type Lives int

// StartingLives is the 5 lives every game begins with.
const StartingLives Lives = 10

// Costs of a single guess, in half-life units.
const (
	CostNone Lives = 0
	CostHalf Lives = 1
	CostFull Lives = 2
)

// Float converts to the client-facing representation (5, 4.5, ... 0).
func (l Lives) Float() float64 { return float64(l) / 2 }

// MarshalJSON emits lives as a JSON number in half steps.
func (l Lives) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(l.Float(), 'f', -1, 64)), nil
}

// Guess is one recorded guess on a round. Append-only.
type Guess struct {
	ID      int64
	RoundID int64
	Book    int
	Chapter *int // nil when the game's difficulty ignores chapters
	MadeAt  time.Time
}

// Round is one verse-guessing challenge within a game.
type Round struct {
	ID       int64
	GameID   int64
	Location bible.BCV
	Text     string
	PickedAt time.Time
	Guesses  []Guess
}

// Solved reports whether any recorded guess answered this round correctly.
func (r *Round) Solved(d Difficulty) bool {
	for _, g := range r.Guesses {
		if Score(d, r.Location, g.Book, g.Chapter).Correct {
			return true
		}
	}
	return false
}

// Status is the derived lifecycle state of a game.
type Status int

const (
	Active Status = iota
	Won
	Lost
)

// String returns the status as stored in finish records and API payloads.
func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "active"
	}
}

// Game is the reconstructed aggregate for one session. Repository loads
// produce it; the session service holds it only for the span of a request.
type Game struct {
	ID          int64
	UserID      string
	Translation int64
	Testament   int
	Difficulty  Difficulty
	Rounds      []Round
}

// CurrentRound returns the last (open) round, or nil for an empty game.
func (g *Game) CurrentRound() *Round {
	if len(g.Rounds) == 0 {
		return nil
	}
	return &g.Rounds[len(g.Rounds)-1]
}

// TotalBooks is the number of books in the game's testament range, which is
// also the number of rounds needed to win.
func (g *Game) TotalBooks() int {
	min, max := bible.BookRange(g.Testament)
	return max - min + 1
}

// UsedBooks returns the set of book positions already targeted by a round.
// No two rounds of one game ever target the same book.
func (g *Game) UsedBooks() map[int]bool {
	used := make(map[int]bool, len(g.Rounds))
	for i := range g.Rounds {
		used[g.Rounds[i].Location.Book] = true
	}
	return used
}

// Lives replays the full guess history through the scoring engine.
func (g *Game) Lives() Lives {
	return Replay(g.Difficulty, g.Rounds)
}

// Status derives the lifecycle state. Lost takes precedence: a game whose
// lives have run out stays lost regardless of its round count.
func (g *Game) Status() Status {
	if g.Lives() <= 0 {
		return Lost
	}
	last := g.CurrentRound()
	if last != nil && len(g.Rounds) == g.TotalBooks() && last.Solved(g.Difficulty) {
		return Won
	}
	return Active
}

// StartedAt is the pick time of round 0; elapsed-time messages count from it.
func (g *Game) StartedAt() time.Time {
	if len(g.Rounds) == 0 {
		return time.Time{}
	}
	return g.Rounds[0].PickedAt
}
