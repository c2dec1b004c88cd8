package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/config"
	"github.com/dcgray/scriptle/internal/repo"
	"github.com/dcgray/scriptle/internal/session"
)

const testSchema = `
CREATE TABLE translation (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    abbreviation TEXT NOT NULL,
    name TEXT NOT NULL
);
CREATE TABLE book (
    position INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE TABLE verse (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    translation INTEGER NOT NULL,
    book INTEGER NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    text TEXT NOT NULL
);
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE,
    password_hash TEXT,
    created_at TEXT NOT NULL,
    games_played INTEGER NOT NULL DEFAULT 0,
    wins INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    translation INTEGER NOT NULL,
    testament INTEGER NOT NULL,
    difficulty INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    finished_at TEXT,
    rounds_done INTEGER NOT NULL DEFAULT 0,
    elapsed_ms INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE rounds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id INTEGER NOT NULL REFERENCES games(id),
    book INTEGER NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    verse_text TEXT NOT NULL,
    picked_at TEXT NOT NULL
);
CREATE TABLE guesses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    round_id INTEGER NOT NULL REFERENCES rounds(id),
    book INTEGER NOT NULL,
    chapter INTEGER,
    made_at TEXT NOT NULL
);`

func newTestServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO translation (abbreviation, name) VALUES ('KJV', 'King James Version')`); err != nil {
		t.Fatalf("seed translation: %v", err)
	}
	for b := 1; b <= 66; b++ {
		if _, err := db.Exec(`INSERT INTO book (position, name) VALUES (?,?)`, b, fmt.Sprintf("Book %d", b)); err != nil {
			t.Fatalf("seed book: %v", err)
		}
		if _, err := db.Exec(
			`INSERT INTO verse (translation, book, chapter, verse, text) VALUES (1,?,3,1,'verse text')`, b,
		); err != nil {
			t.Fatalf("seed verse: %v", err)
		}
	}

	cfg := &config.Config{
		Port:          "0",
		JWTSecret:     "test_secret",
		JWTExpireDays: 1,
		CookieName:    "scriptle_token",
		ClientOrigin:  "http://localhost:5173",
		DailySalt:     "test_salt",
	}
	verses := bible.NewStore(db)
	games := repo.New(db, verses)
	return New(cfg, db, verses, games, session.New(games, verses)), db
}

// apiEnvelope mirrors the wire shape; Message is the [text, level] pair.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message []string        `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *Server, method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var env apiEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func cookieNamed(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", name)
	return nil
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w, _ := do(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"ok":true`)) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestIndexInjectsTranslations(t *testing.T) {
	s, _ := newTestServer(t)
	w, _ := do(t, s, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if strings.Contains(body, "={ PAYLOAD }=") {
		t.Error("payload marker not replaced")
	}
	if !strings.Contains(body, "King James Version") {
		t.Error("translations missing from page")
	}
}

func TestRandomVerse(t *testing.T) {
	s, _ := newTestServer(t)
	w, env := do(t, s, http.MethodGet, "/api", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var v struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil || v.Text == "" {
		t.Errorf("data = %s (%v)", env.Data, err)
	}
}

func TestStartGameValidation(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name, body, msg string
	}{
		{"bad testament", `{"testament":9,"difficulty":0,"translation":1}`, "Invalid testament code"},
		{"bad difficulty", `{"testament":3,"difficulty":7,"translation":1}`, "Invalid difficulty ID"},
		{"bad translation", `{"testament":3,"difficulty":0,"translation":0}`, "Invalid translation ID"},
		{"bad body", `{`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodPost, "/api/game", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			if env.Success {
				t.Error("success = true on rejection")
			}
			if len(env.Message) != 2 || env.Message[0] != tc.msg || env.Message[1] != "error" {
				t.Errorf("message = %v", env.Message)
			}
		})
	}
}

func TestStartAndGuessFlow(t *testing.T) {
	s, db := newTestServer(t)

	w, env := do(t, s, http.MethodPost, "/api/game", `{"testament":3,"difficulty":0,"translation":1}`)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("start: status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(env.Message) != 2 || env.Message[0] != "Started new game" || env.Message[1] != "info" {
		t.Fatalf("message = %v", env.Message)
	}
	anon := cookieNamed(t, w, anonCookieName)

	var data struct {
		Game struct {
			ID    int64   `json:"id"`
			Lives float64 `json:"lives"`
			Rounds []struct {
				VerseText string  `json:"verse_text"`
				VerseBCV  *string `json:"verse_bcv"`
			} `json:"rounds"`
		} `json:"game"`
		Books []bible.Book `json:"books"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Game.Lives != 5 {
		t.Errorf("lives = %v, want 5", data.Game.Lives)
	}
	if len(data.Game.Rounds) != 1 || data.Game.Rounds[0].VerseText == "" {
		t.Fatalf("rounds = %+v", data.Game.Rounds)
	}
	if data.Game.Rounds[0].VerseBCV != nil {
		t.Error("open round revealed its reference")
	}
	if len(data.Books) != 66 {
		t.Errorf("books = %d", len(data.Books))
	}

	var target int
	if err := db.QueryRow(`SELECT book FROM rounds WHERE game_id=?`, data.Game.ID).Scan(&target); err != nil {
		t.Fatalf("read target: %v", err)
	}
	wrong := 1
	if target == 1 {
		wrong = 2
	}

	guessPath := fmt.Sprintf("/api/game/%d/guess", data.Game.ID)

	w, env = do(t, s, http.MethodPost, guessPath, fmt.Sprintf(`{"book":%d}`, wrong), anon)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("wrong guess: status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(env.Message) != 2 || env.Message[0] != "Incorrect!" {
		t.Errorf("message = %v", env.Message)
	}
	var gd struct {
		Correct bool    `json:"correct"`
		Lives   float64 `json:"lives"`
		BCV     *string `json:"bcv"`
		Round   *struct {
			VerseText string `json:"verse_text"`
		} `json:"round"`
	}
	if err := json.Unmarshal(env.Data, &gd); err != nil {
		t.Fatalf("decode guess data: %v", err)
	}
	if gd.Correct || gd.Lives != 4 || gd.BCV != nil || gd.Round != nil {
		t.Errorf("wrong guess data = %+v", gd)
	}

	w, env = do(t, s, http.MethodPost, guessPath, fmt.Sprintf(`{"book":%d}`, target), anon)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("right guess: status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(env.Message) != 2 || env.Message[0] != "Correct!" {
		t.Errorf("message = %v", env.Message)
	}
	if err := json.Unmarshal(env.Data, &gd); err != nil {
		t.Fatalf("decode guess data: %v", err)
	}
	if !gd.Correct || gd.Lives != 4 {
		t.Errorf("right guess data = %+v", gd)
	}
	if gd.BCV == nil || *gd.BCV != fmt.Sprintf("%d-3-1", target) {
		t.Errorf("bcv = %v", gd.BCV)
	}
	if gd.Round == nil || gd.Round.VerseText == "" {
		t.Errorf("round = %+v", gd.Round)
	}
}

func TestGuessValidation(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name, path, body, msg string
	}{
		{"bad id", "/api/game/abc/guess", `{"book":1}`, "Invalid game ID"},
		{"bad body", "/api/game/1/guess", `{`, "Invalid request body"},
		{"book too low", "/api/game/1/guess", `{"book":0}`, "Invalid book"},
		{"book too high", "/api/game/1/guess", `{"book":67}`, "Invalid book"},
		{"chapter too high", "/api/game/1/guess", `{"book":19,"chapter":118}`, "Invalid chapter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodPost, tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			if len(env.Message) != 2 || env.Message[0] != tc.msg {
				t.Errorf("message = %v", env.Message)
			}
		})
	}
}

func TestGuessUnknownGame(t *testing.T) {
	s, _ := newTestServer(t)
	w, env := do(t, s, http.MethodPost, "/api/game/999/guess", `{"book":1}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if len(env.Message) != 2 || env.Message[0] != "Game not found" {
		t.Errorf("message = %v", env.Message)
	}
}

func TestGuessWrongPlayer(t *testing.T) {
	s, _ := newTestServer(t)

	w, env := do(t, s, http.MethodPost, "/api/game", `{"testament":3,"difficulty":0,"translation":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("start: status = %d", w.Code)
	}
	var data struct {
		Game struct {
			ID int64 `json:"id"`
		} `json:"game"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	// No cookie: the request gets a fresh anonymous id.
	path := fmt.Sprintf("/api/game/%d/guess", data.Game.ID)
	w, env = do(t, s, http.MethodPost, path, `{"book":1}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(env.Message) != 2 || env.Message[0] != "You are not the player of this game" {
		t.Errorf("message = %v", env.Message)
	}
}

func TestLeaderboard(t *testing.T) {
	s, db := newTestServer(t)
	if _, err := db.Exec(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES ('u1','alice','x','2024-01-01T00:00:00Z')`,
	); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO games (user_id, translation, testament, difficulty, created_at, status, finished_at, rounds_done, elapsed_ms)
		 VALUES ('u1',1,3,0,'2024-01-01T00:00:00Z','won','2024-01-01T00:05:00Z',66,300000)`,
	); err != nil {
		t.Fatalf("seed game: %v", err)
	}

	w, env := do(t, s, http.MethodGet, "/api/leaderboard?testament=3&difficulty=0", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rows []struct {
		Username  string `json:"username"`
		Rounds    int    `json:"rounds"`
		ElapsedMs int64  `json:"elapsedMs"`
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Username != "alice" || rows[0].Rounds != 66 {
		t.Errorf("rows = %+v", rows)
	}

	w, _ = do(t, s, http.MethodGet, "/api/leaderboard?testament=9", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad testament status = %d", w.Code)
	}
}

func TestSignupLoginMe(t *testing.T) {
	s, _ := newTestServer(t)

	w, _ := do(t, s, http.MethodPost, "/auth/signup", `{"username":"bob","password":"hunter2hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup: status = %d, body = %s", w.Code, w.Body.String())
	}
	tok := cookieNamed(t, w, s.cfg.CookieName)

	w, _ = do(t, s, http.MethodGet, "/auth/me", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d, body = %s", w.Code, w.Body.String())
	}
	var me authUser
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || me.Username != "bob" {
		t.Errorf("me = %+v (%v)", me, err)
	}

	// Wrong password.
	w, _ = do(t, s, http.MethodPost, "/auth/login", `{"username":"bob","password":"wrong-password"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", w.Code)
	}

	// No token.
	w, _ = do(t, s, http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated me status = %d", w.Code)
	}

	// Duplicate username.
	w, _ = do(t, s, http.MethodPost, "/auth/signup", `{"username":"bob","password":"hunter2hunter2"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d", w.Code)
	}
}
