// internal/game/score.go
//
// Scoring engine for a single guess.
// Responsibilities:
//   - Decide correctness of a guess under the game's difficulty policy.
//   - Price a wrong guess: full life for the wrong book, half a life for the
//     right book with the wrong chapter (hard mode only).
//   - Replay a full guess history into a remaining-lives total.
//
// Everything here is pure: no I/O, no randomness, no clock.

package game

import "github.com/dcgray/scriptle/internal/bible"

// Verdict is the outcome of scoring one guess.
type Verdict struct {
	Correct bool
	Cost    Lives // CostNone, CostHalf, or CostFull; CostNone iff Correct
}

// Score evaluates a guess against the round's true location.
//
// Easy: only the book matters; chapter is ignored even if supplied.
// Hard: book and chapter must both match. The right book with the wrong (or
// missing) chapter is the sole graduated penalty in the game and always
// costs exactly half a life, never a full one.
func Score(d Difficulty, actual bible.BCV, book int, chapter *int) Verdict {
	rightBook := book == actual.Book

	if d != Hard {
		if rightBook {
			return Verdict{Correct: true}
		}
		return Verdict{Cost: CostFull}
	}

	rightChapter := rightBook && chapter != nil && *chapter == actual.Chapter
	switch {
	case rightChapter:
		return Verdict{Correct: true}
	case rightBook:
		return Verdict{Cost: CostHalf}
	default:
		return Verdict{Cost: CostFull}
	}
}

// Replay folds every recorded guess through Score and returns the remaining
// lives, floored at zero. Guesses recorded after lives hit zero (a double
// submit racing the terminal check) are not counted again.
func Replay(d Difficulty, rounds []Round) Lives {
	lives := StartingLives
	for i := range rounds {
		r := &rounds[i]
		for _, g := range r.Guesses {
			lives -= Score(d, r.Location, g.Book, g.Chapter).Cost
			if lives <= 0 {
				return 0
			}
		}
	}
	return lives
}
