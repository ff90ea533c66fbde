package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"daybook/internal/auth"
	"daybook/internal/config"
	"daybook/internal/export"
	"daybook/internal/richtext"
	"daybook/internal/search"
	"daybook/internal/store"
)

// CreateEntryInput carries a new entry submission. Doc is the editor's
// structured tree; when Content is empty the HTML is derived from it.
type CreateEntryInput struct {
	Title   string          `json:"title"`
	Slug    string          `json:"slug"`
	Content string          `json:"content"`
	Doc     json.RawMessage `json:"doc,omitempty"`
}

// UpdateEntryInput carries an edit to an existing entry. The slug is the
// row key and cannot change.
type UpdateEntryInput struct {
	Slug    string          `json:"slug"`
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Doc     json.RawMessage `json:"doc,omitempty"`
}

type entryStore interface {
	InsertEntry(ctx context.Context, slug, title, content string) (store.Entry, error)
	UpdateEntry(ctx context.Context, slug, title, content string) (store.Entry, error)
	DeleteEntry(ctx context.Context, slug string) error
	GetEntryBySlug(ctx context.Context, slug string) (store.Entry, error)
	ListEntries(ctx context.Context) ([]store.Entry, error)
	ListEntrySlugs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// viewCache holds rendered payloads for the public read views. nil disables
// caching; invalidation is fire-and-forget relative to the mutation result.
type viewCache interface {
	GetListing(ctx context.Context) ([]byte, bool)
	SetListing(ctx context.Context, payload []byte) error
	GetEntry(ctx context.Context, slug string) ([]byte, bool)
	SetEntry(ctx context.Context, slug string, payload []byte) error
	GetDates(ctx context.Context) ([]byte, bool)
	SetDates(ctx context.Context, payload []byte) error
	InvalidateListing(ctx context.Context) error
	InvalidateEntry(ctx context.Context, slug string) error
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexEntry(record search.EntryRecord)
	DeleteEntry(slug string)
}

type mediaStore interface {
	Upload(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error)
}

type Service struct {
	cfg    config.Config
	store  entryStore
	views  viewCache
	search searchIndex
	media  mediaStore
}

func New(cfg config.Config, dataStore *store.PostgresStore) *Service {
	return &Service{cfg: cfg, store: dataStore}
}

// WithViewCache enables the Redis view cache.
func (s *Service) WithViewCache(views viewCache) *Service {
	s.views = views
	return s
}

// WithSearch enables entry search and index maintenance.
func (s *Service) WithSearch(searchService searchIndex) *Service {
	s.search = searchService
	return s
}

// WithMedia enables editor image uploads.
func (s *Service) WithMedia(mediaService mediaStore) *Service {
	s.media = mediaService
	return s
}

// CreateEntry validates the submission, inserts the row, and invalidates the
// listing view. A slug collision maps to the dedicated conflict message and
// never mutates the store.
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (store.Entry, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	content := resolveContent(in.Content, in.Doc)

	if slug == "" {
		return store.Entry{}, validationError("slug is required")
	}
	if title == "" {
		return store.Entry{}, validationError("title is required")
	}
	if content == "" {
		return store.Entry{}, validationError("content is required")
	}

	entry, err := s.store.InsertEntry(ctx, slug, title, content)
	if errors.Is(err, store.ErrSlugTaken) {
		return store.Entry{}, slugConflict()
	}
	if err != nil {
		return store.Entry{}, domainError(http.StatusInternalServerError, "CREATE_FAILED", failureMessage(err, "An unknown error occurred while creating the blog."))
	}

	s.invalidateListing(ctx)
	s.indexEntry(entry)
	return entry, nil
}

// UpdateEntry rewrites title and content for an existing slug and
// invalidates both the entry view and the listing view.
func (s *Service) UpdateEntry(ctx context.Context, in UpdateEntryInput) (store.Entry, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	content := resolveContent(in.Content, in.Doc)

	if slug == "" || title == "" || content == "" {
		return store.Entry{}, validationError("slug, title and content are required")
	}

	entry, err := s.store.UpdateEntry(ctx, slug, title, content)
	if errors.Is(err, store.ErrNotFound) {
		return store.Entry{}, domainError(http.StatusNotFound, "UPDATE_FAILED", "Failed to update the blog entry.")
	}
	if err != nil {
		return store.Entry{}, domainError(http.StatusInternalServerError, "UPDATE_FAILED", failureMessage(err, "An unknown error occurred while updating the blog."))
	}

	s.invalidateEntry(ctx, slug)
	s.invalidateListing(ctx)
	s.indexEntry(entry)
	return entry, nil
}

// DeleteEntry removes the row matching slug and invalidates the listing
// view. The caller decides where to navigate afterwards.
func (s *Service) DeleteEntry(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return validationError("slug is required")
	}

	err := s.store.DeleteEntry(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return entryNotFound()
	}
	if err != nil {
		return domainError(http.StatusInternalServerError, "DELETE_FAILED", failureMessage(err, "An unknown error occurred while deleting the blog."))
	}

	s.invalidateEntry(ctx, slug)
	s.invalidateListing(ctx)
	if s.search != nil {
		s.search.DeleteEntry(slug)
	}
	return nil
}

// ListEntriesPayload returns the rendered listing view, cached when the
// view cache is configured.
func (s *Service) ListEntriesPayload(ctx context.Context) ([]byte, error) {
	if s.views != nil {
		if payload, ok := s.views.GetListing(ctx); ok {
			return payload, nil
		}
	}

	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	payload, err := json.Marshal(map[string]any{"entries": entries})
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}

	if s.views != nil {
		if err := s.views.SetListing(ctx, payload); err != nil {
			log.Printf("viewcache: set listing: %v", err)
		}
	}
	return payload, nil
}

// EntryPayload returns the rendered detail view for one slug.
func (s *Service) EntryPayload(ctx context.Context, slug string) ([]byte, error) {
	if s.views != nil {
		if payload, ok := s.views.GetEntry(ctx, slug); ok {
			return payload, nil
		}
	}

	entry, err := s.store.GetEntryBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, entryNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	payload, err := json.Marshal(map[string]any{"entry": entry})
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	if s.views != nil {
		if err := s.views.SetEntry(ctx, slug, payload); err != nil {
			log.Printf("viewcache: set entry %s: %v", slug, err)
		}
	}
	return payload, nil
}

// DatesPayload returns the authoritative set of dates that already have an
// entry. Slugs are dates, so the slug list is the date list.
func (s *Service) DatesPayload(ctx context.Context) ([]byte, error) {
	if s.views != nil {
		if payload, ok := s.views.GetDates(ctx); ok {
			return payload, nil
		}
	}

	slugs, err := s.store.ListEntrySlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entry dates: %w", err)
	}
	payload, err := json.Marshal(map[string]any{"dates": slugs})
	if err != nil {
		return nil, fmt.Errorf("marshal dates: %w", err)
	}

	if s.views != nil {
		if err := s.views.SetDates(ctx, payload); err != nil {
			log.Printf("viewcache: set dates: %v", err)
		}
	}
	return payload, nil
}

// SearchEntries runs a full-text query over published entries.
func (s *Service) SearchEntries(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// ExportEntry renders an entry as a downloadable document.
func (s *Service) ExportEntry(ctx context.Context, slug string, format export.Format) (*export.Result, error) {
	entry, err := s.store.GetEntryBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, entryNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get entry for export: %w", err)
	}

	result, err := export.Export(export.Entry{
		Slug:      entry.Slug,
		Title:     entry.Title,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
	}, format)
	if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
		return nil, unavailable("EXPORT_UNAVAILABLE", "Export tooling is not installed on this server")
	}
	if err != nil {
		return nil, fmt.Errorf("export entry %s: %w", slug, err)
	}
	return result, nil
}

// UploadMedia stores an editor image and returns its public URL.
func (s *Service) UploadMedia(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	if s.media == nil {
		return "", unavailable("MEDIA_UNAVAILABLE", "Media storage is not configured")
	}
	url, err := s.media.Upload(ctx, filename, contentType, reader, size)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	return url, nil
}

// Login exchanges the admin password for a signed session token.
func (s *Service) Login(password string) (string, time.Time, error) {
	if s.cfg.AdminPasswordHash == "" {
		return "", time.Time{}, unavailable("AUTH_UNAVAILABLE", "Admin password is not configured")
	}
	if err := auth.CheckPassword(s.cfg.AdminPasswordHash, password); err != nil {
		return "", time.Time{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid password")
	}

	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub: "admin",
		Exp: expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken checks a bearer token issued by Login.
func (s *Service) VerifyToken(token string) error {
	_, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	return err
}

// Bootstrap backfills the search index from the store.
func (s *Service) Bootstrap(ctx context.Context, searchService *search.Service) {
	if searchService != nil {
		searchService.ReindexAllFromPG(ctx)
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateListing(ctx); err != nil {
		log.Printf("viewcache: invalidate listing: %v", err)
	}
}

func (s *Service) invalidateEntry(ctx context.Context, slug string) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateEntry(ctx, slug); err != nil {
		log.Printf("viewcache: invalidate entry %s: %v", slug, err)
	}
}

func (s *Service) indexEntry(entry store.Entry) {
	if s.search == nil {
		return
	}
	s.search.IndexEntry(search.EntryRecord{
		Slug:      entry.Slug,
		Title:     entry.Title,
		Text:      richtext.StripTags(entry.Content),
		CreatedAt: entry.CreatedAt.Unix(),
	})
}

// resolveContent prefers the submitted HTML and derives it from the editor
// tree only when the HTML is absent. A derived document that renders to
// markup with no text (an editor left at one empty paragraph) counts as no
// content; image-only documents still do.
func resolveContent(content string, doc json.RawMessage) string {
	content = strings.TrimSpace(content)
	if content != "" {
		return content
	}
	derived := strings.TrimSpace(richtext.ToHTML(doc))
	if richtext.StripTags(derived) == "" && !strings.Contains(derived, "<img") {
		return ""
	}
	return derived
}

func failureMessage(err error, fallback string) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return fallback
	}
	return err.Error()
}
