// internal/bible/types.go
//
// Core type definitions for the verse corpus.
// Defines:
//   - Translation: one scripture translation (KJV, WEB, ...).
//   - Book: one of the 66 books, annotated with its chapter count.
//   - BCV: a book-chapter-verse location.
//   - Verse: a single verse row from the corpus.

package bible

import (
	"fmt"
	"strconv"
	"strings"
)

// Translation is one scripture translation available in the corpus.
type Translation struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

// Book is one of the 66 books, positions 1..66.
// ChapterCount is per translation (translations can split chapters differently).
type Book struct {
	Position     int    `json:"position"`
	Name         string `json:"name"`
	ChapterCount int    `json:"chapterCount"`
}

// BCV is a book-chapter-verse location. The wire form is "book-chapter-verse"
// joined with dashes, e.g. "43-3-16" for John 3:16.
type BCV struct {
	Book    int
	Chapter int
	Verse   int
}

// String renders the dash-joined wire form.
func (l BCV) String() string {
	return fmt.Sprintf("%d-%d-%d", l.Book, l.Chapter, l.Verse)
}

// ParseBCV parses the dash-joined wire form.
func ParseBCV(s string) (BCV, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return BCV{}, fmt.Errorf("bible: malformed bcv %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return BCV{}, fmt.Errorf("bible: malformed bcv %q", s)
		}
		nums[i] = n
	}
	return BCV{Book: nums[0], Chapter: nums[1], Verse: nums[2]}, nil
}

// Verse is a single verse of a translation. Identity is
// (translation, book, chapter, verse); rows are immutable.
type Verse struct {
	Translation int64  `json:"translation"`
	Book        int    `json:"book"`
	Chapter     int    `json:"chapter"`
	Verse       int    `json:"verse"`
	Text        string `json:"text"`
}

// Location returns the verse's BCV.
func (v Verse) Location() BCV {
	return BCV{Book: v.Book, Chapter: v.Chapter, Verse: v.Verse}
}
