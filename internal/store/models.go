package store

import "time"

// Entry is one published blog entry. The slug doubles as the entry's date
// in YYYY-MM-DD form and is unique across the table.
type Entry struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
