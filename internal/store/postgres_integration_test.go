package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"daybook/migrations"
)

// testStore connects to the database named by TEST_DATABASE_URL and applies
// migrations. Tests are skipped when no test database is configured.
func testStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigrations(ctx, db, migrations.Files); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func uniqueSlug() string {
	return fmt.Sprintf("2025-01-02-test-%d", time.Now().UnixNano())
}

func TestInsertEntry_SlugConflict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	slug := uniqueSlug()

	if _, err := s.InsertEntry(ctx, slug, "first", "<p>one</p>"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteEntry(ctx, slug) })

	_, err := s.InsertEntry(ctx, slug, "second", "<p>two</p>")
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}
}

func TestEntryLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	slug := uniqueSlug()

	created, err := s.InsertEntry(ctx, slug, "title", "<p>body</p>")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Errorf("insert must return the stored row, got %+v", created)
	}

	updated, err := s.UpdateEntry(ctx, slug, "new title", "<p>new body</p>")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "new title" || updated.Content != "<p>new body</p>" {
		t.Errorf("update result mismatch: %+v", updated)
	}

	fetched, err := s.GetEntryBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Title != "new title" {
		t.Errorf("fetched stale row: %+v", fetched)
	}

	if err := s.DeleteEntry(ctx, slug); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetEntryBySlug(ctx, slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateAndDeleteMissingEntry(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	slug := uniqueSlug()

	if _, err := s.UpdateEntry(ctx, slug, "t", "c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteEntry(ctx, slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing: expected ErrNotFound, got %v", err)
	}
}
