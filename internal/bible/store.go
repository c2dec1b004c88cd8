// internal/bible/store.go
//
// SQL-backed read-only store for the verse corpus.
// Responsibilities:
//   - Random verse selection within a book range, excluding given books.
//   - Exact verse lookup by (translation, book, chapter, verse).
//   - Book listings annotated with per-translation chapter counts.
//   - Translation listings.
//
// The corpus lives in its own database file (bible.db), separate from game
// state, and is never written at runtime except for the sample seed.

package bible

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
)

// ErrNotFound is returned when no verse, book, or translation matches.
var ErrNotFound = errors.New("bible: not found")

// Store provides read access to the verse corpus.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened corpus database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RandomVerse picks a uniformly random book in [minBook, maxBook] that is not
// in excluded, then a uniformly random verse of that book for the given
// translation. Returns ErrNotFound if every book in range is excluded or the
// chosen book has no verses for the translation.
func (s *Store) RandomVerse(ctx context.Context, translationID int64, minBook, maxBook int, excluded map[int]bool) (*Verse, error) {
	var candidates []int
	for b := minBook; b <= maxBook; b++ {
		if !excluded[b] {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no books left in range %d-%d: %w", minBook, maxBook, ErrNotFound)
	}
	book := candidates[randomIndex(len(candidates))]

	var v Verse
	err := s.db.QueryRowContext(ctx,
		`SELECT translation, book, chapter, verse, text
		 FROM verse WHERE translation=? AND book=?
		 ORDER BY RANDOM() LIMIT 1`,
		translationID, book,
	).Scan(&v.Translation, &v.Book, &v.Chapter, &v.Verse, &v.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no verses for translation %d book %d: %w", translationID, book, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// VerseAt looks up one verse exactly.
func (s *Store) VerseAt(ctx context.Context, translationID int64, loc BCV) (*Verse, error) {
	var v Verse
	err := s.db.QueryRowContext(ctx,
		`SELECT translation, book, chapter, verse, text
		 FROM verse WHERE translation=? AND book=? AND chapter=? AND verse=?`,
		translationID, loc.Book, loc.Chapter, loc.Verse,
	).Scan(&v.Translation, &v.Book, &v.Chapter, &v.Verse, &v.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verse %s translation %d: %w", loc, translationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// BooksInRange returns books with positions in [min, max] ascending, each
// annotated with its chapter count for the translation. Books without any
// verse rows for the translation report a chapter count of 0.
func (s *Store) BooksInRange(ctx context.Context, translationID int64, min, max int) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.position, b.name, COALESCE(MAX(v.chapter), 0)
		 FROM book b
		 LEFT JOIN verse v ON v.book = b.position AND v.translation = ?
		 WHERE b.position >= ? AND b.position <= ?
		 GROUP BY b.position, b.name
		 ORDER BY b.position ASC`,
		translationID, min, max,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.Position, &b.Name, &b.ChapterCount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Translations lists every translation in the corpus.
func (s *Store) Translations(ctx context.Context) ([]Translation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, abbreviation, name FROM translation ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.ID, &t.Abbreviation, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Translation looks up one translation by id.
func (s *Store) Translation(ctx context.Context, id int64) (*Translation, error) {
	var t Translation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, abbreviation, name FROM translation WHERE id=?`, id,
	).Scan(&t.ID, &t.Abbreviation, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("translation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// randomIndex returns a cryptographically random index in [0, n).
func randomIndex(n int) int {
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(nBig.Int64())
}
