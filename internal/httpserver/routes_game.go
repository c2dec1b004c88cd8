// internal/httpserver/routes_game.go
//
// Handlers for the game and verse endpoints. Input validation lives here so
// the session service only ever sees in-range values.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dcgray/scriptle/internal/assets"
	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/game"
	"github.com/dcgray/scriptle/internal/session"
)

// Chapter numbers above this cannot occur in any translation (Psalms has 150
// verses but 117 is the historical client-side cap carried over here).
const maxChapter = 117

// ------------------------------ payloads -----------------------------------

type difficultyPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type roundPayload struct {
	VerseText string  `json:"verse_text"`
	VerseBCV  *string `json:"verse_bcv,omitempty"`
}

type gamePayload struct {
	ID         int64             `json:"id"`
	Lives      game.Lives        `json:"lives"`
	Difficulty difficultyPayload `json:"difficulty"`
	Rounds     []roundPayload    `json:"rounds"`
}

// buildGamePayload serializes a reconstructed game for the client. Solved
// rounds carry their revealed reference; the open round never does.
func buildGamePayload(g *game.Game) gamePayload {
	p := gamePayload{
		ID:    g.ID,
		Lives: g.Lives(),
		Difficulty: difficultyPayload{
			ID:   int(g.Difficulty),
			Name: g.Difficulty.Name(),
		},
	}
	for i := range g.Rounds {
		r := &g.Rounds[i]
		rp := roundPayload{VerseText: r.Text}
		if r.Solved(g.Difficulty) {
			s := r.Location.String()
			rp.VerseBCV = &s
		}
		p.Rounds = append(p.Rounds, rp)
	}
	return p
}

// ------------------------------- index -------------------------------------

// handleIndex serves the embedded index page with the translations payload
// injected in place of the '={ PAYLOAD }=' marker.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	translations, err := s.verses.Translations(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load translations")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	page, err := assets.IndexPage(translations)
	if err != nil {
		log.Error().Err(err).Msg("render index")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ------------------------------- verses ------------------------------------

// handleRandomVerse returns a random verse from the whole corpus.
func (s *Server) handleRandomVerse(w http.ResponseWriter, r *http.Request) {
	v, err := s.verses.RandomVerse(r.Context(), 1, 1, 66, nil)
	if err != nil {
		s.rejectError(w, err)
		return
	}
	respond(w, v, nil)
}

// handleDailyVerse returns the deterministic verse of the day.
func (s *Server) handleDailyVerse(w http.ResponseWriter, r *http.Request) {
	v, err := s.verses.DailyVerse(r.Context(), 1, s.cfg.DailySalt, time.Now())
	if err != nil {
		s.rejectError(w, err)
		return
	}
	respond(w, struct {
		Date  string       `json:"date"`
		Verse *bible.Verse `json:"verse"`
	}{Date: bible.DateKey(time.Now()), Verse: v}, nil)
}

// ---------------------------- start game -----------------------------------

type startGameReq struct {
	Testament   int   `json:"testament"`
	Difficulty  int   `json:"difficulty"`
	Translation int64 `json:"translation"`
}

type startGameData struct {
	Game  gamePayload  `json:"game"`
	Books []bible.Book `json:"books"`
}

// handleStartGame validates the request and creates a new game.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid request body", "error", nil)
		return
	}
	if !bible.ValidTestament(req.Testament) {
		reject(w, http.StatusBadRequest, "Invalid testament code", "error", nil)
		return
	}
	if !game.Difficulty(req.Difficulty).Valid() {
		reject(w, http.StatusBadRequest, "Invalid difficulty ID", "error", nil)
		return
	}
	if req.Translation < 1 {
		reject(w, http.StatusBadRequest, "Invalid translation ID", "error", nil)
		return
	}

	userID := s.playerID(w, r)
	res, err := s.sessions.StartGame(r.Context(), userID, req.Translation, req.Testament, game.Difficulty(req.Difficulty))
	if err != nil {
		s.rejectError(w, err)
		return
	}

	respond(w, startGameData{
		Game:  buildGamePayload(res.Game),
		Books: res.Books,
	}, &Message{Text: res.Message, Level: string(session.SeverityInfo)})
}

// ------------------------------- guess -------------------------------------

type guessReq struct {
	Book    int  `json:"book"`
	Chapter *int `json:"chapter"`
}

type guessPayload struct {
	Book    int  `json:"book"`
	Chapter *int `json:"chapter,omitempty"`
}

type guessData struct {
	Correct bool          `json:"correct"`
	Guess   guessPayload  `json:"guess"`
	Lives   game.Lives    `json:"lives"`
	BCV     *string       `json:"bcv,omitempty"`
	Round   *roundPayload `json:"round,omitempty"`
}

// handleGuess validates and submits a guess for one game.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		reject(w, http.StatusBadRequest, "Invalid game ID", "error", nil)
		return
	}
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "Invalid request body", "error", nil)
		return
	}
	if req.Book < 1 || req.Book > 66 {
		reject(w, http.StatusBadRequest, "Invalid book", "error", nil)
		return
	}
	if req.Chapter != nil && (*req.Chapter < 1 || *req.Chapter > maxChapter) {
		reject(w, http.StatusBadRequest, "Invalid chapter", "error", nil)
		return
	}

	userID := s.playerID(w, r)
	res, err := s.sessions.SubmitGuess(r.Context(), userID, gameID, req.Book, req.Chapter)
	if err != nil {
		s.rejectError(w, err)
		return
	}

	data := guessData{
		Correct: res.Correct,
		Guess:   guessPayload{Book: res.Guess.Book, Chapter: res.Guess.Chapter},
		Lives:   res.Lives,
	}
	if res.Reveal != nil {
		bcv := res.Reveal.String()
		data.BCV = &bcv
	}
	if res.NewRound != nil {
		data.Round = &roundPayload{VerseText: res.NewRound.Text}
	}

	if res.Status != game.Active {
		s.bumpStatsIfUser(r, res.Status == game.Won)
	}

	respond(w, data, &Message{Text: res.Message, Level: string(res.Severity)})
}

// --------------------------- leaderboard -----------------------------------

// handleLeaderboard returns the fastest wins for a testament/difficulty
// pairing (defaults: both testaments, easy).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	testament := queryInt(r, "testament", bible.TestamentBoth)
	difficulty := queryInt(r, "difficulty", int(game.Easy))
	if !bible.ValidTestament(testament) {
		reject(w, http.StatusBadRequest, "Invalid testament code", "error", nil)
		return
	}
	if !game.Difficulty(difficulty).Valid() {
		reject(w, http.StatusBadRequest, "Invalid difficulty ID", "error", nil)
		return
	}

	rows, err := s.ranks.Fastest(r.Context(), testament, difficulty, 20)
	if err != nil {
		s.rejectError(w, err)
		return
	}
	respond(w, rows, nil)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// --------------------------- error mapping ---------------------------------

// rejectError maps service errors onto the envelope. Expected outcomes keep
// their message and severity; anything else is a generic failure.
func (s *Server) rejectError(w http.ResponseWriter, err error) {
	var se *session.Error
	if errors.As(err, &se) {
		var data any
		if se.Reveal != nil {
			bcv := se.Reveal.String()
			data = struct {
				BCV string `json:"bcv"`
			}{BCV: bcv}
		}
		reject(w, statusForCode(se.Code), se.Message, string(se.Severity), data)
		return
	}
	if errors.Is(err, bible.ErrNotFound) {
		reject(w, http.StatusNotFound, "Not found", "error", nil)
		return
	}
	log.Error().Err(err).Msg("request failed")
	reject(w, http.StatusInternalServerError, "Something went wrong", "error", nil)
}

func statusForCode(c session.Code) int {
	switch c {
	case session.CodeNotFound:
		return http.StatusNotFound
	case session.CodeForbidden:
		return http.StatusForbidden
	case session.CodeGameOver:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
