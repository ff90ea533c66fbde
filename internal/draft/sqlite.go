package draft

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteMirror persists mirror records in a single-table SQLite database so
// drafts survive process restarts.
type SQLiteMirror struct {
	db *sql.DB
}

// OpenSQLiteMirror opens (and if needed creates) the mirror database at
// path.
func OpenSQLiteMirror(path string) (*SQLiteMirror, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open mirror database: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mirror table: %w", err)
	}
	return &SQLiteMirror{db: db}, nil
}

func (m *SQLiteMirror) Get(key string) (string, bool, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read mirror key %s: %w", key, err)
	}
	return value, true, nil
}

func (m *SQLiteMirror) Set(key, value string) error {
	_, err := m.db.Exec(`
		INSERT INTO local_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write mirror key %s: %w", key, err)
	}
	return nil
}

func (m *SQLiteMirror) Delete(key string) error {
	if _, err := m.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete mirror key %s: %w", key, err)
	}
	return nil
}

func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}
