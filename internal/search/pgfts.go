package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries the entries table using plainto_tsquery and ts_rank, with
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM entries
		WHERE fts @@ plainto_tsquery('english', $1)
	`, q.Text).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT slug, title,
			ts_headline('english', content, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet
		FROM entries
		WHERE fts @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, limit, offset), q.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all indexable entries for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]EntryRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT slug, title, content, extract(epoch FROM created_at)::bigint
		FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	records := make([]EntryRecord, 0)
	for rows.Next() {
		var r EntryRecord
		var content string
		if err := rows.Scan(&r.Slug, &r.Title, &content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry record: %w", err)
		}
		r.Text = stripMarkup(content)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry records: %w", err)
	}
	return records, nil
}

func stripMarkup(content string) string {
	var result strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
