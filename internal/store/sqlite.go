package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// SchemaVersion is recorded in the metadata table of every journal.
const SchemaVersion = "1"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS journal (
		source TEXT PRIMARY KEY,
		digest TEXT NOT NULL,
		ts     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outputs (
		source TEXT NOT NULL REFERENCES journal(source) ON DELETE CASCADE,
		seq    INTEGER NOT NULL,
		path   TEXT NOT NULL,
		digest TEXT NOT NULL,
		PRIMARY KEY (source, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SQLite is a SQLite-backed journal.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite opens or creates the journal at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	return s, nil
}

// migrate creates missing tables and checks the schema version.
func (s *SQLite) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	version, err := meta(tx, "schema_version")
	switch {
	case err != nil:
		return err
	case version == "":
		if err := setMeta(tx, "schema_version", SchemaVersion); err != nil {
			return err
		}
	case version != SchemaVersion:
		return fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return tx.Commit()
}

// Get retrieves the entry of a source.
func (s *SQLite) Get(source string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT j.digest, j.ts, o.path, o.digest
		FROM journal j LEFT JOIN outputs o ON o.source = j.source
		WHERE j.source = ?
		ORDER BY o.seq`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var e *Entry
	for rows.Next() {
		var digest, ts string
		var path, outDigest sql.NullString
		if err := rows.Scan(&digest, &ts, &path, &outDigest); err != nil {
			return nil, err
		}
		if e == nil {
			e = &Entry{Source: source, Digest: digest, Ts: ts}
		}
		if path.Valid {
			e.Outputs = append(e.Outputs, Output{Path: path.String, Digest: outDigest.String})
		}
	}
	return e, rows.Err()
}

// Put stores an entry in one transaction.
func (s *SQLite) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO journal (source, digest, ts) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET digest = excluded.digest, ts = excluded.ts`,
		e.Source, e.Digest, e.Ts); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM outputs WHERE source = ?", e.Source); err != nil {
		return err
	}
	for i, o := range e.Outputs {
		if _, err := tx.Exec("INSERT INTO outputs (source, seq, path, digest) VALUES (?, ?, ?, ?)",
			e.Source, i, o.Path, o.Digest); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the entry of a source and its outputs.
func (s *SQLite) Delete(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"outputs", "journal"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE source = ?", source); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata returns the metadata value of key, or "" if unset.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return meta(s.db, key)
}

// SetMetadata stores a metadata value.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setMeta(s.db, key, value)
}

func meta(q querier, key string) (string, error) {
	var value string
	err := q.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func setMeta(q querier, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
