package bible

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// verseIndex returns a deterministic index for a date using
// HMAC(salt, YYYY-MM-DD) % total.
func verseIndex(date time.Time, salt string, total int) int {
	if total <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(total))
}

// DailyVerse returns the verse of the day for a translation: the same verse
// for every caller on a given date, rotating with the date and salt.
func (s *Store) DailyVerse(ctx context.Context, translationID int64, salt string, now time.Time) (*Verse, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM verse WHERE translation=?`, translationID,
	).Scan(&total); err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("no verses for translation %d: %w", translationID, ErrNotFound)
	}

	idx := verseIndex(now, salt, total)
	var v Verse
	err := s.db.QueryRowContext(ctx,
		`SELECT translation, book, chapter, verse, text
		 FROM verse WHERE translation=?
		 ORDER BY book, chapter, verse LIMIT 1 OFFSET ?`,
		translationID, idx,
	).Scan(&v.Translation, &v.Book, &v.Chapter, &v.Verse, &v.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("daily verse translation %d: %w", translationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
