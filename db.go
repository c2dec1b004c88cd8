// db.go
//
// Database helpers for the Scriptle server.
// Responsibilities:
//   - Opening SQLite database files with safe defaults (WAL, busy timeout,
//     foreign keys). Two files are used: the verse corpus (bible.db) and the
//     game/user state (data.db), mirroring their different lifecycles.
//   - Applying migrations from a directory of *.sql files (idempotent,
//     recorded in _migrations).
//   - Seeding the embedded sample corpus when the verse table is empty.

package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/dcgray/scriptle/internal/assets"
)

// openDB opens (and creates if missing) a SQLite database file.
func openDB(dsn string) (*sql.DB, error) {
	// Ensure directory exists for ./data/app.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies SQL migrations from the given directory in lexical order,
// tracking applied files in a _migrations table.
func migrate(db *sql.DB, root string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	var files []string
	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// seedSampleCorpus inserts the embedded sample verses when the corpus is
// empty, so a fresh checkout serves games without a full translation import.
func seedSampleCorpus(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM verse`).Scan(&count); err != nil {
		return fmt.Errorf("count verses: %w", err)
	}
	if count > 0 {
		return nil
	}

	verses, err := assets.SampleVerses()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO translation (id, abbreviation, name) VALUES (1, 'KJV', 'King James Version')`,
	); err != nil {
		return fmt.Errorf("seed translation: %w", err)
	}
	for _, v := range verses {
		if _, err := tx.Exec(
			`INSERT INTO verse (translation, book, chapter, verse, text) VALUES (?,?,?,?,?)`,
			v.Translation, v.Book, v.Chapter, v.Verse, v.Text,
		); err != nil {
			return fmt.Errorf("seed verse %d-%d-%d: %w", v.Book, v.Chapter, v.Verse, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Int("verses", len(verses)).Msg("seeded sample corpus")
	return nil
}
