// internal/session/service.go
//
// The game state machine. Orchestrates game creation, guess submission,
// round advancement, and Won/Lost detection with the repository and the
// scoring engine.
//
// States per game: Active → Won | Lost. Terminal states are absorbing: once
// a game is won or lost no further guess is scored or recorded, which makes
// a double-submitted guess idempotent. Guess processing is serialized per game
// id so two near-simultaneous guesses cannot both read the same lives total.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/game"
	"github.com/dcgray/scriptle/internal/repo"
)

// Service runs game sessions. It holds reconstructed aggregates only for the
// duration of one call; the repository owns all persisted state.
type Service struct {
	games  *repo.GameRepository
	verses *bible.Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex // per-game guess serialization
}

// New constructs a Service.
func New(games *repo.GameRepository, verses *bible.Store) *Service {
	return &Service{games: games, verses: verses, locks: make(map[int64]*sync.Mutex)}
}

// StartResult is returned by StartGame.
type StartResult struct {
	Game    *game.Game
	Books   []bible.Book
	Message string
}

// StartGame creates a game with its first round and returns the book list
// for the testament range. Inputs are validated at the HTTP boundary; the
// service assumes they are in range.
func (s *Service) StartGame(ctx context.Context, userID string, translationID int64, testament int, difficulty game.Difficulty) (*StartResult, error) {
	g, err := s.games.Create(ctx, userID, translationID, testament, difficulty)
	if err != nil {
		if errors.Is(err, bible.ErrNotFound) {
			return nil, NotFound("No verses available for this translation")
		}
		return nil, err
	}

	min, max := bible.BookRange(testament)
	books, err := s.verses.BooksInRange(ctx, translationID, min, max)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("gameId", g.ID).Str("user", userID).
		Int("testament", testament).Str("difficulty", difficulty.Name()).
		Msg("game started")
	return &StartResult{Game: g, Books: books, Message: "Started new game"}, nil
}

// GuessResult is returned by SubmitGuess.
type GuessResult struct {
	Game    *game.Game
	Guess   *game.Guess
	Correct bool
	Lives   game.Lives
	Status  game.Status
	// Reveal is the solved or lost round's true location; nil on a plain
	// incorrect guess that leaves the game running.
	Reveal *bible.BCV
	// NewRound is set only when a correct guess advanced the game.
	NewRound *game.Round
	Message  string
	Severity Severity
}

// SubmitGuess scores one guess for the game's current round and advances the
// state machine.
func (s *Service) SubmitGuess(ctx context.Context, userID string, gameID int64, book int, chapter *int) (*GuessResult, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, err := s.games.Load(ctx, gameID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFound("Game not found")
		}
		return nil, err
	}
	if g.UserID != userID {
		return nil, Forbidden("You are not the player of this game")
	}

	round := g.CurrentRound()
	if round == nil {
		return nil, NotFound("Game not found")
	}
	if g.Status() != game.Active {
		return nil, GameOver(round.Location)
	}

	verdict := game.Score(g.Difficulty, round.Location, book, chapter)

	guess, err := s.games.AppendGuess(ctx, gameID, book, chapter)
	if err != nil {
		return nil, err
	}
	round.Guesses = append(round.Guesses, *guess)

	res := &GuessResult{
		Game:     g,
		Guess:    guess,
		Correct:  verdict.Correct,
		Lives:    g.Lives(),
		Severity: SeverityInfo,
	}

	if !verdict.Correct {
		if res.Lives <= 0 {
			// Lost. Reveal the answer; round 0 counts as unsolved.
			res.Reveal = &round.Location
			res.Message = fmt.Sprintf("You got %d verses right in %d minutes",
				len(g.Rounds)-1, elapsedMinutes(g))
			s.recordFinish(ctx, g, game.Lost, len(g.Rounds)-1)
		} else {
			res.Message = "Incorrect!"
		}
		res.Status = g.Status()
		return res, nil
	}

	// Correct: reveal the solved round's reference.
	res.Reveal = &round.Location

	if g.Status() == game.Won {
		res.Message = fmt.Sprintf("You won in %d minutes", elapsedMinutes(g))
		s.recordFinish(ctx, g, game.Won, len(g.Rounds))
		res.Status = game.Won
		return res, nil
	}

	next, err := s.games.AppendRound(ctx, g)
	if err != nil {
		return nil, err
	}
	res.NewRound = next
	res.Message = "Correct!"
	res.Status = g.Status()
	return res, nil
}

// recordFinish stamps the terminal outcome for leaderboards and history.
// Best effort: the state machine never reads it back.
func (s *Service) recordFinish(ctx context.Context, g *game.Game, status game.Status, roundsDone int) {
	elapsed := time.Since(g.StartedAt())
	if err := s.games.RecordFinish(ctx, g.ID, status, roundsDone, elapsed); err != nil {
		log.Warn().Err(err).Int64("gameId", g.ID).Msg("record finish")
	}
	log.Info().Int64("gameId", g.ID).Str("status", status.String()).
		Int("rounds", roundsDone).Dur("elapsed", elapsed).
		Msg("game finished")
}

// elapsedMinutes counts whole minutes since the game's first round was picked.
func elapsedMinutes(g *game.Game) int {
	return int(time.Since(g.StartedAt()) / time.Minute)
}

// gameLock returns the mutex serializing guesses for one game id.
func (s *Service) gameLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}
