package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// logLayout is stamped into PRAGMA user_version. A run log stamped with a
// larger value was written by a newer synthkit and is not opened.
const logLayout = 1

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the durable run log.
type Store struct {
	db *sql.DB
}

// Open opens the run log at path, creating the file and the runs table on
// first use. Opening an existing log leaves its rows untouched.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	// One connection: run ids are deduplicated by the insert itself and
	// seq must be assigned by a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepare(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	var layout int
	if err := db.QueryRow("PRAGMA user_version").Scan(&layout); err != nil {
		return fmt.Errorf("read log layout: %w", err)
	}
	if layout > logLayout {
		return fmt.Errorf("run log layout %d is newer than supported layout %d", layout, logLayout)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if layout != logLayout {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", logLayout)); err != nil {
			return fmt.Errorf("stamp log layout: %w", err)
		}
	}
	return nil
}

// pragma reads the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return value, nil
}
