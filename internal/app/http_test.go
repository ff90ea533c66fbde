package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daybook/internal/auth"
	"daybook/internal/config"
	"daybook/internal/store"
)

const testSecret = "test-secret"

func newTestServer(fs *fakeStore) *HTTPServer {
	svc := &Service{
		cfg: config.Config{
			JWTSecret: testSecret,
			AccessTTL: time.Hour,
		},
		store: fs,
	}
	return NewHTTPServer(svc, "*")
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueToken([]byte(testSecret), auth.Claims{
		Sub: "admin",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestCreateEntryRoute_Success(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rr := doRequest(t, server, http.MethodPost, "/api/entries", adminToken(t),
		`{"slug":"2025-03-14","title":"Pi day","content":"<p>hi</p>"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if location := rr.Header().Get("Location"); location != "/entry/2025-03-14" {
		t.Errorf("expected Location /entry/2025-03-14, got %q", location)
	}

	var response struct {
		Entry store.Entry `json:"entry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Entry.Slug != "2025-03-14" {
		t.Errorf("expected slug in response, got %q", response.Entry.Slug)
	}
}

func TestCreateEntryRoute_Conflict(t *testing.T) {
	server := newTestServer(&fakeStore{
		insertEntryFn: func(context.Context, string, string, string) (store.Entry, error) {
			return store.Entry{}, store.ErrSlugTaken
		},
	})

	rr := doRequest(t, server, http.MethodPost, "/api/entries", adminToken(t),
		`{"slug":"2025-03-14","title":"Pi day","content":"<p>hi</p>"}`)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["error"] != "That slug already exists." {
		t.Errorf("unexpected error message %v", response["error"])
	}
	if response["code"] != "SLUG_EXISTS" {
		t.Errorf("unexpected code %v", response["code"])
	}
}

func TestCreateEntryRoute_RequiresAuth(t *testing.T) {
	server := newTestServer(&fakeStore{
		insertEntryFn: func(context.Context, string, string, string) (store.Entry, error) {
			t.Fatal("store must not be reached without auth")
			return store.Entry{}, nil
		},
	})

	rr := doRequest(t, server, http.MethodPost, "/api/entries", "",
		`{"slug":"2025-03-14","title":"t","content":"c"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}

	rr = doRequest(t, server, http.MethodPost, "/api/entries", "bogus-token",
		`{"slug":"2025-03-14","title":"t","content":"c"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for bad token, got %d", rr.Code)
	}
}

func TestUpdateEntryRoute_NotFound(t *testing.T) {
	server := newTestServer(&fakeStore{
		updateEntryFn: func(context.Context, string, string, string) (store.Entry, error) {
			return store.Entry{}, store.ErrNotFound
		},
	})

	rr := doRequest(t, server, http.MethodPut, "/api/entries/2025-03-14", adminToken(t),
		`{"title":"t","content":"c"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["error"] != "Failed to update the blog entry." {
		t.Errorf("unexpected error message %v", response["error"])
	}
}

func TestUpdateEntryRoute_SlugComesFromPath(t *testing.T) {
	var gotSlug string
	server := newTestServer(&fakeStore{
		updateEntryFn: func(_ context.Context, slug, title, content string) (store.Entry, error) {
			gotSlug = slug
			return store.Entry{Slug: slug, Title: title, Content: content}, nil
		},
	})

	rr := doRequest(t, server, http.MethodPut, "/api/entries/2025-03-14", adminToken(t),
		`{"slug":"2030-01-01","title":"t","content":"c"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotSlug != "2025-03-14" {
		t.Errorf("path slug must win over body slug, got %q", gotSlug)
	}
}

func TestDeleteEntryRoute_Success(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rr := doRequest(t, server, http.MethodDelete, "/api/entries/2025-03-14", adminToken(t), "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["success"] != true {
		t.Errorf("expected success=true, got %v", response["success"])
	}
}

func TestDeleteEntryRoute_NotFound(t *testing.T) {
	server := newTestServer(&fakeStore{
		deleteEntryFn: func(context.Context, string) error {
			return store.ErrNotFound
		},
	})

	rr := doRequest(t, server, http.MethodDelete, "/api/entries/2025-03-14", adminToken(t), "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["error"] != "Blog entry not found." {
		t.Errorf("unexpected error message %v", response["error"])
	}
}

func TestGetEntryRoute(t *testing.T) {
	server := newTestServer(&fakeStore{
		getEntryBySlugFn: func(_ context.Context, slug string) (store.Entry, error) {
			return store.Entry{Slug: slug, Title: "Pi day", Content: "<p>hi</p>"}, nil
		},
	})

	rr := doRequest(t, server, http.MethodGet, "/api/entries/2025-03-14", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response struct {
		Entry store.Entry `json:"entry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Entry.Title != "Pi day" {
		t.Errorf("unexpected entry %+v", response.Entry)
	}
}

func TestListEntriesRoute(t *testing.T) {
	server := newTestServer(&fakeStore{
		listEntriesFn: func(context.Context) ([]store.Entry, error) {
			return []store.Entry{
				{Slug: "2025-03-14", Title: "Pi day"},
				{Slug: "2025-03-13", Title: "Eve of pi"},
			}, nil
		},
	})

	rr := doRequest(t, server, http.MethodGet, "/api/entries", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response struct {
		Entries []store.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(response.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(response.Entries))
	}
}

func TestEntryDatesRoute(t *testing.T) {
	server := newTestServer(&fakeStore{
		listSlugsFn: func(context.Context) ([]string, error) {
			return []string{"2025-03-14"}, nil
		},
	})

	rr := doRequest(t, server, http.MethodGet, "/api/entries/dates", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(response.Dates) != 1 || response.Dates[0] != "2025-03-14" {
		t.Errorf("unexpected dates %v", response.Dates)
	}
}

func TestLoginRoute(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	svc := &Service{
		cfg: config.Config{
			JWTSecret:         testSecret,
			AccessTTL:         time.Hour,
			AdminPasswordHash: hash,
		},
		store: &fakeStore{},
	}
	server := NewHTTPServer(svc, "*")

	rr := doRequest(t, server, http.MethodPost, "/api/session/login", "", `{"password":"hunter2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var response struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Token == "" {
		t.Fatal("expected a token")
	}
	if err := svc.VerifyToken(response.Token); err != nil {
		t.Errorf("issued token must verify: %v", err)
	}

	rr = doRequest(t, server, http.MethodPost, "/api/session/login", "", `{"password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for bad password, got %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(&fakeStore{})

	rr := doRequest(t, server, http.MethodGet, "/api/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
