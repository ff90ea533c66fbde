package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSlugTaken reports a unique-constraint violation on the slug column.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrNotFound reports that no row matched the requested slug.
	ErrNotFound = errors.New("entry not found")
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// InsertEntry persists a new entry and returns the stored row including the
// store-assigned id and created_at. A colliding slug fails with ErrSlugTaken
// and leaves the table untouched.
func (s *PostgresStore) InsertEntry(ctx context.Context, slug, title, content string) (Entry, error) {
	var item Entry
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO entries (slug, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, slug, title, content, created_at
	`, slug, title, content).Scan(&item.ID, &item.Slug, &item.Title, &item.Content, &item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Entry{}, ErrSlugTaken
		}
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return item, nil
}

// UpdateEntry rewrites title and content for the row matching slug.
// created_at is immutable. Zero rows matched reports ErrNotFound.
func (s *PostgresStore) UpdateEntry(ctx context.Context, slug, title, content string) (Entry, error) {
	var item Entry
	err := s.db.QueryRowContext(ctx, `
		UPDATE entries
		SET title=$2, content=$3
		WHERE slug=$1
		RETURNING id, slug, title, content, created_at
	`, slug, title, content).Scan(&item.ID, &item.Slug, &item.Title, &item.Content, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, slug string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE slug=$1`, slug)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetEntryBySlug(ctx context.Context, slug string) (Entry, error) {
	var item Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, content, created_at
		FROM entries
		WHERE slug=$1
	`, slug).Scan(&item.ID, &item.Slug, &item.Title, &item.Content, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, title, content, created_at
		FROM entries
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	items := make([]Entry, 0)
	for rows.Next() {
		var item Entry
		if err := rows.Scan(&item.ID, &item.Slug, &item.Title, &item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return items, nil
}

// ListEntrySlugs returns every slug in the table. Slugs are the
// authoritative set of dates that already have an entry.
func (s *PostgresStore) ListEntrySlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM entries ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("list entry slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan entry slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry slugs: %w", err)
	}
	return slugs, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
