package app

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"daybook/internal/auth"
	"daybook/internal/client"
	"daybook/internal/config"
	"daybook/internal/draft"
	"daybook/internal/store"
)

// trackingStore behaves like the real table for slug uniqueness.
type trackingStore struct {
	fakeStore
	mu    sync.Mutex
	slugs map[string]bool
}

func newTrackingStore() *trackingStore {
	return &trackingStore{slugs: map[string]bool{}}
}

func (s *trackingStore) InsertEntry(_ context.Context, slug, title, content string) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugs[slug] {
		return store.Entry{}, store.ErrSlugTaken
	}
	s.slugs[slug] = true
	return store.Entry{ID: int64(len(s.slugs)), Slug: slug, Title: title, Content: content, CreatedAt: time.Now()}, nil
}

// TestComposeAndPublish drives the full client path: draft edits mirrored
// locally, submission over HTTP, and the conflict on writing the same day
// twice.
func TestComposeAndPublish(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	svc := &Service{
		cfg: config.Config{
			JWTSecret:         testSecret,
			AccessTTL:         time.Hour,
			AdminPasswordHash: hash,
		},
		store: newTrackingStore(),
	}
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	defer server.Close()

	api := client.New(server.URL)
	ctx := context.Background()
	if err := api.Login(ctx, "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mirror := draft.NewMemoryMirror()
	reconciler, err := draft.NewReconciler(mirror, api)
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	if err := reconciler.SelectDate(day); err != nil {
		t.Fatal(err)
	}
	if err := reconciler.SetTitle("Pi day"); err != nil {
		t.Fatal(err)
	}
	if err := reconciler.SetContent("<p>celebrated</p>", nil); err != nil {
		t.Fatal(err)
	}

	location, err := reconciler.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if location != "/entry/2025-03-14" {
		t.Errorf("navigation target = %q", location)
	}
	if reconciler.State() != draft.StateEmpty {
		t.Errorf("state after success = %v", reconciler.State())
	}
	if entries := reconciler.Entries(); len(entries) != 1 || entries[0].Date != "2025-03-14" {
		t.Errorf("local entry cache = %v", entries)
	}

	// Writing the same day again must surface the server's conflict message
	// and leave the new draft intact.
	if err := reconciler.SelectDate(day); err != nil {
		t.Fatal(err)
	}
	if err := reconciler.SetTitle("Pi day again"); err != nil {
		t.Fatal(err)
	}
	if err := reconciler.SetContent("<p>again</p>", nil); err != nil {
		t.Fatal(err)
	}

	if _, err := reconciler.Submit(ctx); err == nil {
		t.Fatal("expected conflict on duplicate day")
	}
	if reconciler.LastError() != "That slug already exists." {
		t.Errorf("conflict message = %q", reconciler.LastError())
	}
	if reconciler.State() != draft.StateEditing {
		t.Errorf("state after conflict = %v", reconciler.State())
	}
	if got := reconciler.Draft().Title; got != "Pi day again" {
		t.Errorf("draft must survive the conflict, title = %q", got)
	}
	if entries := reconciler.Entries(); len(entries) != 1 {
		t.Errorf("cache must not grow on conflict, got %d", len(entries))
	}
}
