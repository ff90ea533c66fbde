// Package draft tracks the entry being composed and keeps it mirrored to
// durable local storage so an interrupted session can resume where it left
// off.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle position of the current draft.
type State int

const (
	// StateEmpty means nothing has been composed since the last successful
	// submission (or ever).
	StateEmpty State = iota
	// StateEditing means the draft holds at least one field.
	StateEditing
	// StateSubmitting means a submission is in flight; edits and further
	// submits are refused until it resolves.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

const (
	draftKey   = "blog-draft-content"
	entriesKey = "blog-entries"
)

// ErrSubmitInFlight is returned when an operation arrives while a
// submission is still being resolved.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// ValidationError reports a guard failure before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Draft is the in-progress entry. Date doubles as the slug.
type Draft struct {
	Date    string          `json:"date,omitempty"`
	Title   string          `json:"title,omitempty"`
	Content string          `json:"content,omitempty"`
	Doc     json.RawMessage `json:"doc,omitempty"`
}

func (d Draft) empty() bool {
	return d.Date == "" && d.Title == "" && strings.TrimSpace(d.Content) == "" && len(d.Doc) == 0
}

// CachedEntry is the local record appended after a successful submission,
// used to mark calendar days while offline.
type CachedEntry struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Submission is what the gateway sends to the server.
type Submission struct {
	Slug    string
	Title   string
	Content string
	Doc     json.RawMessage
}

// Gateway submits a finished draft and returns the navigation target for
// the new entry. Failures carry the user-facing message.
type Gateway interface {
	CreateEntry(ctx context.Context, sub Submission) (location string, err error)
}

// DeriveSlug maps a calendar day to its entry slug. The mapping is total
// and injective per day, so one day can hold at most one entry.
func DeriveSlug(day time.Time) string {
	return day.Format("2006-01-02")
}

// Reconciler owns the draft state machine and the write-through mirror.
type Reconciler struct {
	mu      sync.Mutex
	state   State
	draft   Draft
	entries []CachedEntry
	lastErr string

	mirror  Mirror
	gateway Gateway
}

// NewReconciler restores any mirrored draft and entry cache. A non-empty
// mirrored draft resumes in StateEditing.
func NewReconciler(mirror Mirror, gateway Gateway) (*Reconciler, error) {
	r := &Reconciler{mirror: mirror, gateway: gateway}

	raw, ok, err := mirror.Get(draftKey)
	if err != nil {
		return nil, fmt.Errorf("restore draft: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &r.draft); err != nil {
			// A corrupt mirror entry is dropped rather than wedging startup.
			_ = mirror.Delete(draftKey)
			r.draft = Draft{}
		}
	}
	if !r.draft.empty() {
		r.state = StateEditing
	}

	raw, ok, err = mirror.Get(entriesKey)
	if err != nil {
		return nil, fmt.Errorf("restore entry cache: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &r.entries); err != nil {
			r.entries = nil
		}
	}
	return r, nil
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) Draft() Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// Entries returns the locally cached submissions, newest last.
func (r *Reconciler) Entries() []CachedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CachedEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// LastError returns the message from the most recent failed submission,
// cleared on the next successful one.
func (r *Reconciler) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// SelectDate points the draft at a calendar day. The slug is derived from
// the day, never typed by hand.
func (r *Reconciler) SelectDate(day time.Time) error {
	return r.edit(func(d *Draft) {
		d.Date = DeriveSlug(day)
	})
}

func (r *Reconciler) SetTitle(title string) error {
	return r.edit(func(d *Draft) {
		d.Title = title
	})
}

// SetContent records the rendered HTML and, when available, the editor's
// structured tree alongside it.
func (r *Reconciler) SetContent(html string, doc json.RawMessage) error {
	return r.edit(func(d *Draft) {
		d.Content = html
		d.Doc = doc
	})
}

// Discard drops the draft and its mirror record.
func (r *Reconciler) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	r.draft = Draft{}
	r.state = StateEmpty
	if err := r.mirror.Delete(draftKey); err != nil {
		return fmt.Errorf("clear mirrored draft: %w", err)
	}
	return nil
}

// edit applies one mutation, recomputes the state, and writes through to
// the mirror before returning.
func (r *Reconciler) edit(apply func(*Draft)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	apply(&r.draft)
	if r.draft.empty() {
		r.state = StateEmpty
		if err := r.mirror.Delete(draftKey); err != nil {
			return fmt.Errorf("clear mirrored draft: %w", err)
		}
		return nil
	}

	r.state = StateEditing
	raw, err := json.Marshal(r.draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.mirror.Set(draftKey, string(raw)); err != nil {
		return fmt.Errorf("mirror draft: %w", err)
	}
	return nil
}

// Submit validates the draft, sends it through the gateway, and resolves
// the outcome. Guards run in a fixed order and short-circuit before any
// network traffic. On success the draft is cleared everywhere and the
// navigation target is returned; on failure the draft survives intact so
// the author can correct and resubmit.
func (r *Reconciler) Submit(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state == StateSubmitting {
		r.mu.Unlock()
		return "", ErrSubmitInFlight
	}

	if r.draft.Date == "" {
		r.lastErr = "Please select a date."
		r.mu.Unlock()
		return "", &ValidationError{Message: "Please select a date."}
	}
	if strings.TrimSpace(r.draft.Title) == "" {
		r.lastErr = "Please enter a title."
		r.mu.Unlock()
		return "", &ValidationError{Message: "Please enter a title."}
	}
	if strings.TrimSpace(r.draft.Content) == "" && len(r.draft.Doc) == 0 {
		r.lastErr = "Please enter content for your blog."
		r.mu.Unlock()
		return "", &ValidationError{Message: "Please enter content for your blog."}
	}

	sub := Submission{
		Slug:    r.draft.Date,
		Title:   r.draft.Title,
		Content: r.draft.Content,
		Doc:     r.draft.Doc,
	}
	r.state = StateSubmitting
	r.mu.Unlock()

	location, err := r.gateway.CreateEntry(ctx, sub)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = StateEditing
		r.lastErr = submitFailureMessage(err)
		return "", err
	}

	// The entry exists server-side now; the transition must resolve to
	// Empty no matter what the best-effort mirror does.
	r.entries = append(r.entries, CachedEntry{
		Date:    sub.Slug,
		Title:   sub.Title,
		Content: sub.Content,
	})
	if raw, marshalErr := json.Marshal(r.entries); marshalErr == nil {
		if mirrorErr := r.mirror.Set(entriesKey, string(raw)); mirrorErr != nil {
			log.Printf("draft: mirror entry cache: %v", mirrorErr)
		}
	}

	r.draft = Draft{}
	r.state = StateEmpty
	r.lastErr = ""
	if mirrorErr := r.mirror.Delete(draftKey); mirrorErr != nil {
		log.Printf("draft: clear mirrored draft: %v", mirrorErr)
	}
	return location, nil
}

func submitFailureMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "An unknown error occurred while creating the blog."
	}
	return msg
}
