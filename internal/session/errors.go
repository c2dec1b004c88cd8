// internal/session/errors.go
//
// Expected, user-facing outcomes of session operations. These carry a short
// message and a severity for the client's message box; storage failures are
// not represented here and propagate unmodified.

package session

import "github.com/dcgray/scriptle/internal/bible"

// Severity of a user-facing message.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Code discriminates expected failure outcomes.
type Code int

const (
	CodeNotFound Code = iota + 1
	CodeForbidden
	CodeGameOver
)

// Error is an expected outcome rejected by the session service.
type Error struct {
	Code     Code
	Message  string
	Severity Severity
	// Reveal carries the final round's true location on CodeGameOver so the
	// client can show the answer.
	Reveal *bible.BCV
}

func (e *Error) Error() string { return e.Message }

// NotFound builds a not-found outcome.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Severity: SeverityError}
}

// Forbidden builds a wrong-actor outcome.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg, Severity: SeverityError}
}

// GameOver builds the absorbing terminal outcome for guesses submitted after
// a game has already been lost. The guess is acknowledged, not re-penalized.
func GameOver(reveal bible.BCV) *Error {
	return &Error{
		Code:     CodeGameOver,
		Message:  "This game is already over",
		Severity: SeverityWarn,
		Reveal:   &reveal,
	}
}
